package volatility

import (
	"crypto-volatility-lab/internal/domain"
)

// GARCH is the symmetric GARCH(1,1) recursion:
//
//	sigma^2_t = omega + alpha*eps^2_{t-1} + beta*sigma^2_{t-1}
//
// Parameters in order: omega, alpha, beta.
type GARCH struct {
	dist domain.Distribution
}

// NewGARCH creates a GARCH(1,1) model under the given innovation
// distribution.
func NewGARCH(dist domain.Distribution) *GARCH {
	return &GARCH{dist: dist}
}

// Spec identifies the model.
func (m *GARCH) Spec() domain.ModelSpec {
	return domain.ModelSpec{Family: domain.FamilyGARCH, P: 1, Q: 1, Dist: m.dist}
}

// ParamNames returns [omega alpha beta].
func (m *GARCH) ParamNames() []string {
	return []string{domain.ParamOmega, domain.ParamAlpha, domain.ParamBeta}
}

// InitialParams targets the sample variance: alpha=0.05, beta=0.90 and
// omega = sampleVar*(1-alpha-beta).
func (m *GARCH) InitialParams(sampleVar float64) []float64 {
	const alpha0, beta0 = 0.05, 0.90
	return []float64{sampleVar * (1 - alpha0 - beta0), alpha0, beta0}
}

// Feasible requires omega > 0, alpha >= 0, beta >= 0.
func (m *GARCH) Feasible(params []float64) bool {
	if !paramFinite(params) {
		return false
	}
	omega, alpha, beta := params[0], params[1], params[2]
	return omega > 0 && alpha >= 0 && beta >= 0
}

// Stationary requires alpha + beta < 1.
func (m *GARCH) Stationary(params []float64) bool {
	return params[1]+params[2] < 1
}

// VarianceSeries runs the recursion. Pre-sample eps^2 and sigma^2 are
// both set to the seedVar backcast.
func (m *GARCH) VarianceSeries(params, eps []float64, seedVar float64) []float64 {
	omega, alpha, beta := params[0], params[1], params[2]

	out := make([]float64, len(eps))
	prevVar := seedVar
	prevSq := seedVar
	for t := range eps {
		v := omega + alpha*prevSq + beta*prevVar
		out[t] = v
		prevVar = v
		prevSq = eps[t] * eps[t]
	}
	return out
}

// ForecastVariance projects h steps ahead. Step one uses the final
// observed shock; later steps decay toward the unconditional variance
// at rate alpha+beta.
func (m *GARCH) ForecastVariance(params, eps, variance []float64, horizon int) []float64 {
	if horizon <= 0 || len(eps) == 0 || len(variance) == 0 {
		return nil
	}
	omega, alpha, beta := params[0], params[1], params[2]

	out := make([]float64, horizon)
	lastEps := eps[len(eps)-1]
	v := omega + alpha*lastEps*lastEps + beta*variance[len(variance)-1]
	out[0] = v
	for j := 1; j < horizon; j++ {
		v = omega + (alpha+beta)*v
		out[j] = v
	}
	return out
}

// Ensure GARCH implements Model
var _ Model = (*GARCH)(nil)
