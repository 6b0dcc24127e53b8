package verification

import (
	"context"
	"fmt"

	"crypto-volatility-lab/internal/domain"
)

// RefitVerifier implements Verifier by estimating each spec repeatedly
// on the same series and comparing the outcomes.
type RefitVerifier struct {
	fitter ModelFitter
	runs   int
}

// RefitVerifierOptions contains configuration for creating a
// RefitVerifier.
type RefitVerifierOptions struct {
	// Fitter performs the repeated fits. Required.
	Fitter ModelFitter

	// Runs is the total number of fits per spec. Defaults to 2;
	// values below 2 are raised to 2.
	Runs int
}

// NewRefitVerifier creates a RefitVerifier.
func NewRefitVerifier(opts RefitVerifierOptions) *RefitVerifier {
	runs := opts.Runs
	if runs < 2 {
		runs = 2
	}
	return &RefitVerifier{fitter: opts.Fitter, runs: runs}
}

// VerifySpec fits the spec once, then refits and compares. A refit that
// fails after the first fit succeeded is recorded as a divergence on
// the "error" field.
func (v *RefitVerifier) VerifySpec(ctx context.Context, rs *domain.ReturnSeries, spec domain.ModelSpec) (*VerificationResult, error) {
	first, err := v.fitter.Fit(ctx, rs, spec)
	if err != nil {
		return nil, fmt.Errorf("first fit %s: %w", spec, err)
	}

	result := &VerificationResult{Symbol: rs.Symbol, Spec: spec}
	for run := 1; run < v.runs; run++ {
		refit, err := v.fitter.Fit(ctx, rs, spec)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Divergences = append(result.Divergences, FieldDivergence{
				Field:    "error",
				Expected: nil,
				Actual:   err.Error(),
			})
			continue
		}
		result.Divergences = append(result.Divergences, CompareFits(first, refit)...)
	}
	result.Match = len(result.Divergences) == 0
	return result, nil
}

// VerifyAll verifies every spec and aggregates the counts. A spec whose
// first fit fails aborts the batch: an unfittable spec cannot be
// checked for determinism.
func (v *RefitVerifier) VerifyAll(ctx context.Context, rs *domain.ReturnSeries, specs []domain.ModelSpec) (*VerificationReport, error) {
	report := &VerificationReport{}
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := v.VerifySpec(ctx, rs, spec)
		if err != nil {
			return nil, err
		}
		report.TotalFits++
		if result.Match {
			report.MatchedFits++
		} else {
			report.DivergentFits++
		}
		report.Results = append(report.Results, *result)
	}
	return report, nil
}

var _ Verifier = (*RefitVerifier)(nil)
