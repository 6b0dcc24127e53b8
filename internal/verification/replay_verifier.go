package verification

import (
	"context"
	"fmt"

	"crypto-volatility-lab/internal/domain"
)

// ReplayVerifier checks that persisted fit results are reproducible:
// refitting the recorded price data must land on the recorded numbers
// bit for bit.
type ReplayVerifier struct {
	fitter ModelFitter
}

// NewReplayVerifier creates a ReplayVerifier.
func NewReplayVerifier(fitter ModelFitter) *ReplayVerifier {
	return &ReplayVerifier{fitter: fitter}
}

// VerifyRecord refits the recorded spec on rs and compares the outcome
// against the stored record. storedVariance may be nil when no variance
// series was persisted for the fit; the series comparison is skipped.
func (v *ReplayVerifier) VerifyRecord(ctx context.Context, rs *domain.ReturnSeries, stored *domain.FitResult, storedVariance []float64) (*VerificationResult, error) {
	refit, err := v.fitter.Fit(ctx, rs, stored.Spec())
	if err != nil {
		return nil, fmt.Errorf("refit %s: %w", stored.Spec(), err)
	}

	result := &VerificationResult{Symbol: stored.Symbol, Spec: stored.Spec()}
	result.Divergences = CompareRecord(stored, storedVariance, refit)
	result.Match = len(result.Divergences) == 0
	return result, nil
}

// CompareRecord compares a persistence record against a fresh fit field
// by field. Floats are compared by bit pattern, not tolerance.
func CompareRecord(stored *domain.FitResult, storedVariance []float64, refit *domain.FittedModel) []FieldDivergence {
	var divergences []FieldDivergence
	add := func(field string, expected, actual interface{}) {
		divergences = append(divergences, FieldDivergence{
			Field:    field,
			Expected: expected,
			Actual:   actual,
		})
	}

	if stored.Symbol != refit.Symbol {
		add("Symbol", stored.Symbol, refit.Symbol)
	}
	if stored.Spec() != refit.Spec {
		add("Spec", stored.Spec(), refit.Spec)
	}

	storedParams := stored.ParamMap()
	for _, name := range paramNames(storedParams, refit.Params) {
		a, aok := storedParams[name]
		b, bok := refit.Params[name]
		if aok != bok || !bitsEqual(a, b) {
			add(fmt.Sprintf("Params[%s]", name), a, b)
		}
	}

	if !bitsEqual(stored.LogLikelihood, refit.LogLikelihood) {
		add("LogLikelihood", stored.LogLikelihood, refit.LogLikelihood)
	}
	if !bitsEqual(stored.AIC, refit.AIC) {
		add("AIC", stored.AIC, refit.AIC)
	}
	if !bitsEqual(stored.BIC, refit.BIC) {
		add("BIC", stored.BIC, refit.BIC)
	}
	if stored.Converged != refit.Converged {
		add("Converged", stored.Converged, refit.Converged)
	}
	if stored.Iterations != refit.Iterations {
		add("Iterations", stored.Iterations, refit.Iterations)
	}
	if stored.FuncEvals != refit.FuncEvals {
		add("FuncEvals", stored.FuncEvals, refit.FuncEvals)
	}
	if !bitsEqual(stored.Mean, refit.Mean) {
		add("Mean", stored.Mean, refit.Mean)
	}
	if stored.NumObs != refit.NumObs {
		add("NumObs", stored.NumObs, refit.NumObs)
	}

	if storedVariance != nil {
		divergences = append(divergences, compareSeries("Variance", storedVariance, refit.Variance)...)
	}

	return divergences
}
