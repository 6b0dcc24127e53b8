package volatility

import (
	"crypto-volatility-lab/internal/domain"
)

// GJRGARCH is the asymmetric GJR-GARCH(1,1) recursion:
//
//	sigma^2_t = omega + (alpha + gamma*I[eps_{t-1} < 0])*eps^2_{t-1} + beta*sigma^2_{t-1}
//
// Negative shocks raise next-period variance by an extra gamma when
// gamma > 0. Parameters in order: omega, alpha, gamma, beta.
type GJRGARCH struct {
	dist domain.Distribution
}

// NewGJRGARCH creates a GJR-GARCH(1,1) model under the given innovation
// distribution.
func NewGJRGARCH(dist domain.Distribution) *GJRGARCH {
	return &GJRGARCH{dist: dist}
}

// Spec identifies the model.
func (m *GJRGARCH) Spec() domain.ModelSpec {
	return domain.ModelSpec{Family: domain.FamilyGJRGARCH, P: 1, Q: 1, Dist: m.dist}
}

// ParamNames returns [omega alpha gamma beta].
func (m *GJRGARCH) ParamNames() []string {
	return []string{domain.ParamOmega, domain.ParamAlpha, domain.ParamGamma, domain.ParamBeta}
}

// InitialParams targets the sample variance: alpha=0.03, gamma=0.04,
// beta=0.90 and omega = sampleVar*(1-alpha-gamma/2-beta).
func (m *GJRGARCH) InitialParams(sampleVar float64) []float64 {
	const alpha0, gamma0, beta0 = 0.03, 0.04, 0.90
	return []float64{sampleVar * (1 - alpha0 - gamma0/2 - beta0), alpha0, gamma0, beta0}
}

// Feasible requires omega > 0, alpha >= 0, beta >= 0 and
// alpha + gamma >= 0 so the shock coefficient stays non-negative.
func (m *GJRGARCH) Feasible(params []float64) bool {
	if !paramFinite(params) {
		return false
	}
	omega, alpha, gamma, beta := params[0], params[1], params[2], params[3]
	return omega > 0 && alpha >= 0 && beta >= 0 && alpha+gamma >= 0
}

// Stationary requires alpha + beta < 1.
func (m *GJRGARCH) Stationary(params []float64) bool {
	return params[1]+params[3] < 1
}

// VarianceSeries runs the recursion. Pre-sample eps^2 and sigma^2 are
// set to the seedVar backcast, with the pre-sample indicator at its
// symmetric expectation of one half.
func (m *GJRGARCH) VarianceSeries(params, eps []float64, seedVar float64) []float64 {
	omega, alpha, gamma, beta := params[0], params[1], params[2], params[3]

	out := make([]float64, len(eps))
	v := omega + (alpha+gamma/2)*seedVar + beta*seedVar
	for t := range eps {
		out[t] = v
		coef := alpha
		if eps[t] < 0 {
			coef += gamma
		}
		v = omega + coef*eps[t]*eps[t] + beta*out[t]
	}
	return out
}

// ForecastVariance projects h steps ahead. Step one uses the final
// observed shock and its sign; later steps decay toward the
// unconditional variance at rate alpha+gamma/2+beta.
func (m *GJRGARCH) ForecastVariance(params, eps, variance []float64, horizon int) []float64 {
	if horizon <= 0 || len(eps) == 0 || len(variance) == 0 {
		return nil
	}
	omega, alpha, gamma, beta := params[0], params[1], params[2], params[3]

	lastEps := eps[len(eps)-1]
	coef := alpha
	if lastEps < 0 {
		coef += gamma
	}
	v := omega + coef*lastEps*lastEps + beta*variance[len(variance)-1]

	out := make([]float64, horizon)
	out[0] = v
	for j := 1; j < horizon; j++ {
		v = omega + (alpha+gamma/2+beta)*v
		out[j] = v
	}
	return out
}

// Ensure GJRGARCH implements Model
var _ Model = (*GJRGARCH)(nil)
