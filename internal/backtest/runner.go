package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"crypto-volatility-lab/internal/domain"
)

// Options configures a Runner.
type Options struct {
	// Fitter estimates each refit. Required.
	Fitter ModelFitter

	// MinTrainObs is the initial training window. Defaults to
	// DefaultMinTrainObs.
	MinTrainObs int

	// RefitEvery is the number of origins between full refits.
	// Defaults to DefaultRefitEvery.
	RefitEvery int
}

// Runner evaluates every spec over a series and ranks the outcomes.
type Runner struct {
	fitter     ModelFitter
	minTrain   int
	refitEvery int
}

// NewRunner creates a backtest runner.
func NewRunner(opts Options) *Runner {
	return &Runner{
		fitter:     opts.Fitter,
		minTrain:   opts.MinTrainObs,
		refitEvery: opts.RefitEvery,
	}
}

// Report holds the walk-forward outcome for one series. Evaluations
// preserve the order in which specs were supplied.
type Report struct {
	Symbol      string
	Evaluations []Evaluation
}

// Ranked returns the successful evaluations ordered by ascending QLIKE,
// ties broken by spec key.
func (r *Report) Ranked() []*Evaluation {
	var out []*Evaluation
	for i := range r.Evaluations {
		if !r.Evaluations[i].Failed() {
			out = append(out, &r.Evaluations[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Losses.QLIKE != out[j].Losses.QLIKE {
			return out[i].Losses.QLIKE < out[j].Losses.QLIKE
		}
		return out[i].Spec.Key() < out[j].Spec.Key()
	})
	return out
}

// Best returns the top-ranked evaluation, or nil when every spec failed.
func (r *Report) Best() *Evaluation {
	ranked := r.Ranked()
	if len(ranked) == 0 {
		return nil
	}
	return ranked[0]
}

// Run evaluates each spec in turn. A spec whose evaluation fails is
// recorded in its slot with the error; only a cancelled context or an
// empty spec list fails the run itself.
func (r *Runner) Run(ctx context.Context, rs *domain.ReturnSeries, specs []domain.ModelSpec) (*Report, error) {
	if len(specs) == 0 {
		return nil, errors.New("no specs to evaluate")
	}

	report := &Report{
		Symbol:      rs.Symbol,
		Evaluations: make([]Evaluation, len(specs)),
	}
	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		engine := NewEngine(r.fitter, spec, r.minTrain, r.refitEvery)
		eval, err := engine.Run(ctx, rs)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.Evaluations[i] = Evaluation{Spec: spec, Err: fmt.Errorf("evaluate: %w", err)}
			continue
		}
		report.Evaluations[i] = *eval
	}
	return report, nil
}
