package domain

import "math"

// FittedModel holds the estimation output for one ModelSpec on one
// return series. Variance, Residuals and the input returns share the
// same length: the recursion is seeded with a sample-variance backcast,
// so no observations are dropped.
type FittedModel struct {
	Symbol string
	Spec   ModelSpec

	// Params maps canonical parameter names (omega, alpha, gamma, beta)
	// to estimated values. Gamma is present only for asymmetric families.
	Params map[string]float64

	LogLikelihood float64
	AIC           float64
	BIC           float64

	// Converged reports whether the optimizer met its tolerance within
	// the iteration budget. A false value is a result, not an error:
	// Params holds the best vector found.
	Converged  bool
	Iterations int
	FuncEvals  int

	// Mean is the plug-in sample mean subtracted from returns before
	// variance estimation.
	Mean float64

	NumObs int

	// Variance is the fitted conditional variance sigma^2_t.
	Variance []float64

	// Residuals are standardized residuals (r_t - Mean) / sigma_t.
	Residuals []float64
}

// NumParams returns k for information criteria.
func (m *FittedModel) NumParams() int {
	return len(m.Params)
}

// Persistence reports the fitted persistence measure: alpha+beta for
// GARCH, alpha+gamma/2+beta for GJR-GARCH, beta for EGARCH.
func (m *FittedModel) Persistence() float64 {
	switch m.Spec.Family {
	case FamilyEGARCH:
		return m.Params[ParamBeta]
	case FamilyGJRGARCH:
		return m.Params[ParamAlpha] + m.Params[ParamGamma]/2 + m.Params[ParamBeta]
	default:
		return m.Params[ParamAlpha] + m.Params[ParamBeta]
	}
}

// AnnualizedVol converts the final conditional variance to an
// annualized volatility assuming daily observations.
func (m *FittedModel) AnnualizedVol() float64 {
	if len(m.Variance) == 0 {
		return 0
	}
	last := m.Variance[len(m.Variance)-1]
	if last <= 0 {
		return 0
	}
	return math.Sqrt(last * TradingDaysPerYear)
}

// TradingDaysPerYear is the annualization factor; crypto trades every day.
const TradingDaysPerYear = 365
