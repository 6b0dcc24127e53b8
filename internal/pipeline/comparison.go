// Package pipeline runs the model comparison: every spec fitted and
// diagnosed against one return series, failures isolated per entry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crypto-volatility-lab/internal/diagnostics"
	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/estimate"
)

// Comparison errors
var (
	ErrNoSpecs = errors.New("no model specs supplied")
)

// DefaultDiagnosticLag is the conventional Ljung-Box lag for daily
// series.
const DefaultDiagnosticLag = 12

// Comparison fits a set of model specs against one return series and
// collects fits plus residual diagnostics into a ComparisonReport.
type Comparison struct {
	fitter   *estimate.Fitter
	lag      int
	parallel bool
	now      func() time.Time
}

// ComparisonOptions contains configuration for creating a Comparison.
type ComparisonOptions struct {
	// Fitter estimates each spec. Defaults to a fitter with the
	// standard optimizer.
	Fitter *estimate.Fitter

	// DiagnosticLag is the Ljung-Box lag. Defaults to
	// DefaultDiagnosticLag.
	DiagnosticLag int

	// Parallel fans fits out to one goroutine per spec. Entries are
	// written to disjoint slots, so results are identical to a
	// sequential run.
	Parallel bool
}

// NewComparison creates a comparison runner.
func NewComparison(opts ComparisonOptions) *Comparison {
	fitter := opts.Fitter
	if fitter == nil {
		fitter = estimate.NewFitter(estimate.FitterOptions{})
	}
	lag := opts.DiagnosticLag
	if lag <= 0 {
		lag = DefaultDiagnosticLag
	}
	return &Comparison{
		fitter:   fitter,
		lag:      lag,
		parallel: opts.Parallel,
		now:      time.Now,
	}
}

// WithClock overrides the report timestamp source.
func (c *Comparison) WithClock(now func() time.Time) *Comparison {
	c.now = now
	return c
}

// Run fits every spec on the return series. One entry's failure never
// aborts its siblings: the entry records the error and the run
// continues. Entries preserve the supplied spec order. The returned
// error is reserved for run-level problems (no specs, cancellation).
func (c *Comparison) Run(ctx context.Context, rs *domain.ReturnSeries, specs []domain.ModelSpec) (*domain.ComparisonReport, error) {
	if len(specs) == 0 {
		return nil, ErrNoSpecs
	}

	report := &domain.ComparisonReport{
		Symbol:      rs.Symbol,
		GeneratedAt: c.now().UTC(),
		Entries:     make([]domain.ComparisonEntry, len(specs)),
	}

	// Descriptive stats are preliminary context; a series the fitter
	// will reject anyway just leaves them absent.
	if stats, err := diagnostics.Describe(rs); err == nil {
		report.Stats = stats
	}

	if c.parallel {
		var wg sync.WaitGroup
		for i, spec := range specs {
			wg.Add(1)
			go func(slot int, spec domain.ModelSpec) {
				defer wg.Done()
				report.Entries[slot] = c.fitOne(ctx, rs, spec)
			}(i, spec)
		}
		wg.Wait()
	} else {
		for i, spec := range specs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			report.Entries[i] = c.fitOne(ctx, rs, spec)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return report, nil
}

// fitOne produces the entry for a single spec: estimation followed by
// the residual test battery. A failed fit yields a failed entry with a
// nil model; a successful fit whose diagnostics cannot be computed
// (sample no longer than the lag) keeps the model with nil Diagnostics.
func (c *Comparison) fitOne(ctx context.Context, rs *domain.ReturnSeries, spec domain.ModelSpec) domain.ComparisonEntry {
	start := time.Now()

	model, err := c.fitter.Fit(ctx, rs, spec)
	if err != nil {
		return domain.ComparisonEntry{Spec: spec, Err: fmt.Errorf("fit: %w", err), Elapsed: time.Since(start)}
	}

	diag, err := diagnostics.Evaluate(model, c.lag)
	if err != nil {
		return domain.ComparisonEntry{Spec: spec, Model: model, Elapsed: time.Since(start)}
	}

	return domain.ComparisonEntry{Spec: spec, Model: model, Diagnostics: diag, Elapsed: time.Since(start)}
}
