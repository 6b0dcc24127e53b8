// Package verification checks that model estimation is deterministic:
// refitting the same series under the same spec must reproduce every
// reported number bit for bit. Comparisons are exact; the fitter has no
// randomized state, so any drift is a bug.
package verification

import (
	"context"
	"fmt"
	"math"
	"sort"

	"crypto-volatility-lab/internal/domain"
)

// FieldDivergence represents a mismatch between two fits of the same
// spec on the same data.
type FieldDivergence struct {
	Field    string      // field name, slice fields carry the index
	Expected interface{} // value from the first fit
	Actual   interface{} // value from the refit
}

// VerificationResult contains the outcome of verifying a single spec.
type VerificationResult struct {
	Symbol      string
	Spec        domain.ModelSpec
	Match       bool
	Divergences []FieldDivergence
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalFits     int
	MatchedFits   int
	DivergentFits int
	Results       []VerificationResult
}

// ModelFitter estimates one spec on a return series.
type ModelFitter interface {
	Fit(ctx context.Context, rs *domain.ReturnSeries, spec domain.ModelSpec) (*domain.FittedModel, error)
}

// Verifier checks estimation determinism.
type Verifier interface {
	// VerifySpec refits one spec and compares every reported number
	// against the first fit.
	VerifySpec(ctx context.Context, rs *domain.ReturnSeries, spec domain.ModelSpec) (*VerificationResult, error)

	// VerifyAll verifies every spec in turn and aggregates a report.
	VerifyAll(ctx context.Context, rs *domain.ReturnSeries, specs []domain.ModelSpec) (*VerificationReport, error)
}

// CompareFits compares two fits field by field and returns divergences.
// Floats are compared by bit pattern, not tolerance.
func CompareFits(first, second *domain.FittedModel) []FieldDivergence {
	var divergences []FieldDivergence
	add := func(field string, expected, actual interface{}) {
		divergences = append(divergences, FieldDivergence{
			Field:    field,
			Expected: expected,
			Actual:   actual,
		})
	}

	if first.Symbol != second.Symbol {
		add("Symbol", first.Symbol, second.Symbol)
	}
	if first.Spec != second.Spec {
		add("Spec", first.Spec, second.Spec)
	}

	for _, name := range paramNames(first.Params, second.Params) {
		a, aok := first.Params[name]
		b, bok := second.Params[name]
		if aok != bok || !bitsEqual(a, b) {
			add(fmt.Sprintf("Params[%s]", name), a, b)
		}
	}

	if !bitsEqual(first.LogLikelihood, second.LogLikelihood) {
		add("LogLikelihood", first.LogLikelihood, second.LogLikelihood)
	}
	if !bitsEqual(first.AIC, second.AIC) {
		add("AIC", first.AIC, second.AIC)
	}
	if !bitsEqual(first.BIC, second.BIC) {
		add("BIC", first.BIC, second.BIC)
	}
	if first.Converged != second.Converged {
		add("Converged", first.Converged, second.Converged)
	}
	if first.Iterations != second.Iterations {
		add("Iterations", first.Iterations, second.Iterations)
	}
	if first.FuncEvals != second.FuncEvals {
		add("FuncEvals", first.FuncEvals, second.FuncEvals)
	}
	if !bitsEqual(first.Mean, second.Mean) {
		add("Mean", first.Mean, second.Mean)
	}
	if first.NumObs != second.NumObs {
		add("NumObs", first.NumObs, second.NumObs)
	}

	divergences = append(divergences, compareSeries("Variance", first.Variance, second.Variance)...)
	divergences = append(divergences, compareSeries("Residuals", first.Residuals, second.Residuals)...)

	return divergences
}

// compareSeries compares two float series element-wise. A length
// mismatch is reported as a single divergence on the field itself.
func compareSeries(field string, a, b []float64) []FieldDivergence {
	if len(a) != len(b) {
		return []FieldDivergence{{
			Field:    fmt.Sprintf("len(%s)", field),
			Expected: len(a),
			Actual:   len(b),
		}}
	}
	var divergences []FieldDivergence
	for i := range a {
		if !bitsEqual(a[i], b[i]) {
			divergences = append(divergences, FieldDivergence{
				Field:    fmt.Sprintf("%s[%d]", field, i),
				Expected: a[i],
				Actual:   b[i],
			})
		}
	}
	return divergences
}

// paramNames returns the union of both parameter maps' names, sorted
// for stable divergence ordering.
func paramNames(first, second map[string]float64) []string {
	seen := make(map[string]bool, len(first))
	for name := range first {
		seen[name] = true
	}
	for name := range second {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bitsEqual compares floats by bit pattern so that NaN payloads and
// signed zeros are distinguished exactly as the determinism guarantee
// requires.
func bitsEqual(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}
