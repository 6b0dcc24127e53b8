package diagnostics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// JarqueBera tests the null of normality from sample skewness and
// kurtosis:
//
//	JB = n/6 * (S^2 + (K-3)^2 / 4)
//
// S and K are the population-moment skewness and kurtosis; the p-value
// comes from the chi-squared survival function with 2 degrees of
// freedom. Requires at least 3 observations with non-zero variance.
func JarqueBera(xs []float64) (stat, pValue float64, err error) {
	n := len(xs)
	if n < 3 {
		return 0, 0, fmt.Errorf("need at least 3 observations, have %d: %w", n, ErrInsufficientSample)
	}

	skew, kurt, err := momentShape(xs)
	if err != nil {
		return 0, 0, err
	}

	jb := float64(n) / 6 * (skew*skew + (kurt-3)*(kurt-3)/4)
	chi2 := distuv.ChiSquared{K: 2}
	return jb, chi2.Survival(jb), nil
}

// momentShape computes population-moment skewness and kurtosis.
// gonum's stat.Skew and stat.ExKurtosis apply sample-size corrections,
// so the raw moment ratios the test statistic is defined on are
// computed directly.
func momentShape(xs []float64) (skew, kurt float64, err error) {
	n := float64(len(xs))

	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= n

	var m2, m3, m4 float64
	for _, x := range xs {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	m2 /= n
	m3 /= n
	m4 /= n

	if m2 == 0 {
		return 0, 0, fmt.Errorf("zero variance: %w", ErrInsufficientSample)
	}
	return m3 / math.Pow(m2, 1.5), m4 / (m2 * m2), nil
}
