package volatility

import (
	"math"

	"crypto-volatility-lab/internal/domain"
)

// absZMean is E|z| for a standard normal innovation, sqrt(2/pi).
var absZMean = math.Sqrt(2 / math.Pi)

// EGARCH is the exponential GARCH(1,1) recursion on log variance:
//
//	ln sigma^2_t = omega + alpha*(|z_{t-1}| - E|z|) + gamma*z_{t-1} + beta*ln sigma^2_{t-1}
//
// with z_t = eps_t / sigma_t. Positivity holds by construction, so no
// sign constraints apply; gamma < 0 captures the leverage effect.
// Parameters in order: omega, alpha, gamma, beta.
type EGARCH struct {
	dist domain.Distribution
}

// NewEGARCH creates an EGARCH(1,1) model under the given innovation
// distribution.
func NewEGARCH(dist domain.Distribution) *EGARCH {
	return &EGARCH{dist: dist}
}

// Spec identifies the model.
func (m *EGARCH) Spec() domain.ModelSpec {
	return domain.ModelSpec{Family: domain.FamilyEGARCH, P: 1, Q: 1, Dist: m.dist}
}

// ParamNames returns [omega alpha gamma beta].
func (m *EGARCH) ParamNames() []string {
	return []string{domain.ParamOmega, domain.ParamAlpha, domain.ParamGamma, domain.ParamBeta}
}

// InitialParams targets ln(sampleVar): beta=0.95, alpha=0.10,
// gamma=-0.05 and omega = (1-beta)*ln(sampleVar).
func (m *EGARCH) InitialParams(sampleVar float64) []float64 {
	const alpha0, gamma0, beta0 = 0.10, -0.05, 0.95
	return []float64{(1 - beta0) * math.Log(sampleVar), alpha0, gamma0, beta0}
}

// Feasible only requires finite parameters; the log recursion needs no
// sign constraints.
func (m *EGARCH) Feasible(params []float64) bool {
	return paramFinite(params)
}

// Stationary requires |beta| < 1.
func (m *EGARCH) Stationary(params []float64) bool {
	return math.Abs(params[3]) < 1
}

// VarianceSeries runs the log recursion. The pre-sample log variance is
// ln(seedVar) and pre-sample shock terms sit at their expectations, so
// ln sigma^2_0 = omega + beta*ln(seedVar).
func (m *EGARCH) VarianceSeries(params, eps []float64, seedVar float64) []float64 {
	omega, alpha, gamma, beta := params[0], params[1], params[2], params[3]

	out := make([]float64, len(eps))
	logVar := omega + beta*math.Log(seedVar)
	for t := range eps {
		v := math.Exp(logVar)
		out[t] = v
		z := eps[t] / math.Sqrt(v)
		logVar = omega + alpha*(math.Abs(z)-absZMean) + gamma*z + beta*logVar
	}
	return out
}

// ForecastVariance projects h steps ahead on the log scale. Step one
// uses the final standardized shock; later steps keep the shock terms
// at their expectations, ignoring the lognormal convexity adjustment.
func (m *EGARCH) ForecastVariance(params, eps, variance []float64, horizon int) []float64 {
	if horizon <= 0 || len(eps) == 0 || len(variance) == 0 {
		return nil
	}
	omega, alpha, gamma, beta := params[0], params[1], params[2], params[3]

	lastVar := variance[len(variance)-1]
	z := eps[len(eps)-1] / math.Sqrt(lastVar)
	logVar := omega + alpha*(math.Abs(z)-absZMean) + gamma*z + beta*math.Log(lastVar)

	out := make([]float64, horizon)
	out[0] = math.Exp(logVar)
	for j := 1; j < horizon; j++ {
		logVar = omega + beta*logVar
		out[j] = math.Exp(logVar)
	}
	return out
}

// Ensure EGARCH implements Model
var _ Model = (*EGARCH)(nil)
