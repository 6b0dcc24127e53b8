package domain

import "time"

// FitResult is the flat persistence record of one estimated model. The
// specification and the (1,1)-family parameters are stored as individual
// columns; families without a leverage term carry Gamma as zero.
type FitResult struct {
	FitID  string // deterministic identifier, see internal/idhash
	RunID  string // groups fits produced by one pipeline run
	Symbol string

	Family string
	P      int
	Q      int
	Dist   string

	Omega float64
	Alpha float64
	Gamma float64
	Beta  float64

	LogLikelihood float64
	AIC           float64
	BIC           float64
	Converged     bool
	Iterations    int
	FuncEvals     int
	Mean          float64
	NumObs        int

	CreatedAtMs int64 // insertion time, unix milliseconds
}

// Spec rebuilds the model specification from the flattened columns.
func (r *FitResult) Spec() ModelSpec {
	return ModelSpec{
		Family: ModelFamily(r.Family),
		P:      r.P,
		Q:      r.Q,
		Dist:   Distribution(r.Dist),
	}
}

// ModelKey returns the stable storage key of the recorded specification.
func (r *FitResult) ModelKey() string {
	return r.Spec().Key()
}

// ParamMap rebuilds the named parameter map. Gamma is included only for
// families that estimate a leverage term.
func (r *FitResult) ParamMap() map[string]float64 {
	params := map[string]float64{
		ParamOmega: r.Omega,
		ParamAlpha: r.Alpha,
		ParamBeta:  r.Beta,
	}
	if ModelFamily(r.Family) != FamilyGARCH {
		params[ParamGamma] = r.Gamma
	}
	return params
}

// NewFitResult flattens a fitted model into a persistence record.
func NewFitResult(fitID, runID string, m *FittedModel, createdAt time.Time) *FitResult {
	return &FitResult{
		FitID:         fitID,
		RunID:         runID,
		Symbol:        m.Symbol,
		Family:        string(m.Spec.Family),
		P:             m.Spec.P,
		Q:             m.Spec.Q,
		Dist:          string(m.Spec.Dist),
		Omega:         m.Params[ParamOmega],
		Alpha:         m.Params[ParamAlpha],
		Gamma:         m.Params[ParamGamma],
		Beta:          m.Params[ParamBeta],
		LogLikelihood: m.LogLikelihood,
		AIC:           m.AIC,
		BIC:           m.BIC,
		Converged:     m.Converged,
		Iterations:    m.Iterations,
		FuncEvals:     m.FuncEvals,
		Mean:          m.Mean,
		NumObs:        m.NumObs,
		CreatedAtMs:   createdAt.UnixMilli(),
	}
}
