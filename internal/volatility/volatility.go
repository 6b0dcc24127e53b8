// Package volatility implements the conditional-variance model families
// (GARCH, EGARCH, GJR-GARCH) as interchangeable recursions behind a
// single interface. Estimation lives elsewhere; these types only know
// their parameterization, constraints and variance dynamics.
package volatility

import (
	"math"

	"crypto-volatility-lab/internal/domain"
)

// Model is one conditional-variance family at fixed lag orders.
// Implementations are stateless and safe for concurrent use.
type Model interface {
	// Spec identifies the family, orders and distribution.
	Spec() domain.ModelSpec

	// ParamNames returns canonical parameter names in optimization
	// order. Param slices passed to the other methods follow it.
	ParamNames() []string

	// InitialParams seeds the optimizer by variance targeting: the
	// constant is chosen so the implied unconditional variance equals
	// sampleVar under conventional starting dynamics.
	InitialParams(sampleVar float64) []float64

	// Feasible reports whether params satisfy the family's sign and
	// positivity constraints.
	Feasible(params []float64) bool

	// Stationary reports whether params satisfy the family's
	// covariance-stationarity constraint.
	Stationary(params []float64) bool

	// VarianceSeries runs the variance recursion over demeaned returns
	// eps, seeded with the seedVar backcast for pre-sample terms.
	// The result has len(eps) entries.
	VarianceSeries(params, eps []float64, seedVar float64) []float64

	// ForecastVariance projects the conditional variance horizon steps
	// past the end of the fitted sample. eps and variance are the
	// demeaned returns and fitted variance series; multi-step values
	// follow the deterministic recursion with shock terms at their
	// expectations.
	ForecastVariance(params, eps, variance []float64, horizon int) []float64
}

// paramFinite reports whether every parameter is a usable number.
func paramFinite(params []float64) bool {
	for _, p := range params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return false
		}
	}
	return true
}
