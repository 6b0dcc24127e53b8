package diagnostics

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"crypto-volatility-lab/internal/domain"
)

// Describe summarizes a raw return series before modeling: sample
// moments plus a Jarque-Bera normality test. Skewness and kurtosis use
// population moments, matching the test statistic; the standard
// deviation is the usual n-1 sample estimate.
func Describe(rs *domain.ReturnSeries) (*domain.DescriptiveStats, error) {
	xs := rs.Values()
	if len(xs) < 3 {
		return nil, fmt.Errorf("describe %q: %w", rs.Symbol, ErrInsufficientSample)
	}

	jbStat, jbP, err := JarqueBera(xs)
	if err != nil {
		return nil, fmt.Errorf("describe %q: %w", rs.Symbol, err)
	}
	skew, kurt, err := momentShape(xs)
	if err != nil {
		return nil, fmt.Errorf("describe %q: %w", rs.Symbol, err)
	}

	mean, std := stat.MeanStdDev(xs, nil)
	return &domain.DescriptiveStats{
		NumObs:         len(xs),
		Mean:           mean,
		StdDev:         std,
		Min:            floats.Min(xs),
		Max:            floats.Max(xs),
		Skewness:       skew,
		Kurtosis:       kurt - 3,
		JarqueBeraStat: jbStat,
		JarqueBeraP:    jbP,
	}, nil
}
