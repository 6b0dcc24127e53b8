package diagnostics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// Test errors
var (
	ErrInsufficientSample = errors.New("sample too small or degenerate for test")
	ErrInvalidLag         = errors.New("lag must be positive")
)

// LjungBox tests the null of no autocorrelation through the given lag:
//
//	Q = n(n+2) * sum_{k=1}^{lag} rho_k^2 / (n-k)
//
// The p-value comes from the chi-squared survival function with lag
// degrees of freedom. Requires n > lag observations.
func LjungBox(xs []float64, lag int) (stat, pValue float64, err error) {
	if lag <= 0 {
		return 0, 0, ErrInvalidLag
	}
	n := len(xs)
	if n <= lag {
		return 0, 0, fmt.Errorf("need more than %d observations, have %d: %w", lag, n, ErrInsufficientSample)
	}

	rho := ACF(xs, lag)
	q := 0.0
	for k := 1; k <= lag; k++ {
		q += rho[k-1] * rho[k-1] / float64(n-k)
	}
	q *= float64(n) * float64(n+2)

	chi2 := distuv.ChiSquared{K: float64(lag)}
	return q, chi2.Survival(q), nil
}
