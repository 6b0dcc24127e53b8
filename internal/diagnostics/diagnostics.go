// Package diagnostics implements the residual tests applied to fitted
// volatility models and the descriptive summary of raw return series.
package diagnostics

import (
	"fmt"

	"crypto-volatility-lab/internal/domain"
)

// Evaluate runs the residual test battery on a fitted model: Ljung-Box
// on the standardized residuals (remaining autocorrelation), Ljung-Box
// on their squares (remaining ARCH effects) and Jarque-Bera (residual
// normality), all at the given Ljung-Box lag.
func Evaluate(m *domain.FittedModel, lag int) (*domain.DiagnosticResult, error) {
	res := m.Residuals

	lbStat, lbP, err := LjungBox(res, lag)
	if err != nil {
		return nil, fmt.Errorf("ljung-box on residuals: %w", err)
	}

	sq := make([]float64, len(res))
	for i, r := range res {
		sq[i] = r * r
	}
	lbSqStat, lbSqP, err := LjungBox(sq, lag)
	if err != nil {
		return nil, fmt.Errorf("ljung-box on squared residuals: %w", err)
	}

	jbStat, jbP, err := JarqueBera(res)
	if err != nil {
		return nil, fmt.Errorf("jarque-bera on residuals: %w", err)
	}

	return &domain.DiagnosticResult{
		Lag:            lag,
		LjungBoxStat:   lbStat,
		LjungBoxP:      lbP,
		LjungBoxSqStat: lbSqStat,
		LjungBoxSqP:    lbSqP,
		JarqueBeraStat: jbStat,
		JarqueBeraP:    jbP,
		NumObs:         len(res),
	}, nil
}
