// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: price loading → return transform → model comparison → persistence → reporting
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/estimate"
	"crypto-volatility-lab/internal/idhash"
	"crypto-volatility-lab/internal/observability"
	"crypto-volatility-lab/internal/pipeline"
	"crypto-volatility-lab/internal/provider"
	"crypto-volatility-lab/internal/reporting"
	"crypto-volatility-lab/internal/returns"
	"crypto-volatility-lab/internal/storage"
)

// Orchestrator coordinates the full volatility pipeline execution.
// Flow: load prices → log returns → comparison fits → persist → reports
type Orchestrator struct {
	// Sources and stores
	provider       provider.PriceProvider
	fitResultStore storage.FitResultStore
	varianceStore  storage.VarianceSeriesStore

	// Run scope
	symbols []string
	specs   []domain.ModelSpec

	// Fitting
	fitter   *estimate.Fitter
	lag      int
	parallel bool

	// Reporting
	horizons []int

	runID string
	now   func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required price source and result stores
	Provider            provider.PriceProvider
	FitResultStore      storage.FitResultStore
	VarianceSeriesStore storage.VarianceSeriesStore

	// Symbols to process, in order
	Symbols []string

	// Specs to fit per symbol. Defaults to domain.DefaultSpecs.
	Specs []domain.ModelSpec

	// Fitter estimates each spec. Defaults to the standard fitter.
	Fitter *estimate.Fitter

	// DiagnosticLag is the Ljung-Box lag passed to the comparison run.
	DiagnosticLag int

	// Parallel fans fits out across specs within each symbol.
	Parallel bool

	// Horizons overrides the report forecast horizons.
	Horizons []int

	// RunID labels every fit result persisted by a run. Empty means a
	// fresh UUID per Run call.
	RunID string
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	specs := opts.Specs
	if len(specs) == 0 {
		specs = domain.DefaultSpecs()
	}
	return &Orchestrator{
		provider:       opts.Provider,
		fitResultStore: opts.FitResultStore,
		varianceStore:  opts.VarianceSeriesStore,
		symbols:        opts.Symbols,
		specs:          specs,
		fitter:         opts.Fitter,
		lag:            opts.DiagnosticLag,
		parallel:       opts.Parallel,
		horizons:       opts.Horizons,
		runID:          opts.RunID,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock for report timestamps. Metric durations
// keep using wall time.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	RunID                   string
	SymbolsProcessed        int
	FitsPersisted           int
	VariancePointsPersisted int
	Reports                 []*reporting.Report
	Errors                  []string
}

// symbolRun carries one symbol's state between phases.
type symbolRun struct {
	returns     *domain.ReturnSeries
	sufficiency *pipeline.SufficiencyResult
	comparison  *domain.ComparisonReport
}

// Run executes the full pipeline.
// Phases:
//  1. Load price series and transform to log returns
//  2. Fit every spec per symbol (comparison run)
//  3. Persist fit results and variance series
//  4. Generate per-symbol reports
//
// A symbol that fails a phase is dropped from later phases and its error
// recorded in RunResult.Errors; only cancellation and run-level faults
// abort the whole run.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	runID := o.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	result := &RunResult{RunID: runID}

	// Phase 1: Load price series
	log.Info().Str("run_id", runID).Int("symbols", len(o.symbols)).Msg("Phase 1: loading price series")
	phaseStart := time.Now()
	runs, err := o.loadReturns(ctx, result)
	if err != nil {
		observability.RecordPipelineRun("load", "error", time.Since(phaseStart).Seconds())
		return nil, fmt.Errorf("phase 1 (load price series) failed: %w", err)
	}
	observability.RecordPipelineRun("load", "ok", time.Since(phaseStart).Seconds())
	result.SymbolsProcessed = len(runs)
	log.Info().Int("loaded", len(runs)).Int("failed", len(result.Errors)).Msg("Price series loaded")

	if len(runs) == 0 {
		return result, nil
	}

	// Phase 2: Model comparison
	log.Info().Int("specs", len(o.specs)).Msg("Phase 2: fitting models")
	phaseStart = time.Now()
	runs, err = o.runComparisons(ctx, runs, result)
	if err != nil {
		observability.RecordPipelineRun("compare", "error", time.Since(phaseStart).Seconds())
		return nil, fmt.Errorf("phase 2 (model comparison) failed: %w", err)
	}
	observability.RecordPipelineRun("compare", "ok", time.Since(phaseStart).Seconds())

	// Phase 3: Persistence
	log.Info().Msg("Phase 3: persisting fit results")
	phaseStart = time.Now()
	fits, points, persistErrs := o.persistResults(ctx, runID, runs)
	result.FitsPersisted = fits
	result.VariancePointsPersisted = points
	result.Errors = append(result.Errors, persistErrs...)
	observability.RecordPipelineRun("persist", "ok", time.Since(phaseStart).Seconds())
	log.Info().Int("fits", fits).Int("variance_points", points).Int("errors", len(persistErrs)).Msg("Fit results persisted")

	// Phase 4: Reports
	log.Info().Msg("Phase 4: generating reports")
	phaseStart = time.Now()
	reports, reportErrs := o.generateReports(runs)
	result.Reports = reports
	result.Errors = append(result.Errors, reportErrs...)
	observability.RecordPipelineRun("report", "ok", time.Since(phaseStart).Seconds())

	observability.MarkPipelineSuccess(float64(o.now().Unix()))
	log.Info().
		Str("run_id", runID).
		Int("symbols", result.SymbolsProcessed).
		Int("fits", result.FitsPersisted).
		Int("reports", len(result.Reports)).
		Int("errors", len(result.Errors)).
		Msg("Pipeline completed")

	return result, nil
}

// loadReturns loads each symbol's price series and transforms it to log
// returns. Symbols that cannot be loaded are recorded and skipped.
func (o *Orchestrator) loadReturns(ctx context.Context, result *RunResult) ([]*symbolRun, error) {
	runs := make([]*symbolRun, 0, len(o.symbols))
	for _, symbol := range o.symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prices, err := o.provider.Prices(ctx, symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to load price series")
			result.Errors = append(result.Errors, fmt.Sprintf("load %s: %v", symbol, err))
			continue
		}

		rs, err := returns.ToLogReturns(prices)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to transform price series")
			result.Errors = append(result.Errors, fmt.Sprintf("transform %s: %v", symbol, err))
			continue
		}

		runs = append(runs, &symbolRun{returns: rs})
		observability.RecordSymbolProcessed()
	}
	return runs, nil
}

// runComparisons fits every spec against each loaded series and returns
// the symbols that produced a comparison report. Per-spec failures stay
// inside the report; only a run-level fault (cancellation) aborts.
func (o *Orchestrator) runComparisons(ctx context.Context, runs []*symbolRun, result *RunResult) ([]*symbolRun, error) {
	cmp := pipeline.NewComparison(pipeline.ComparisonOptions{
		Fitter:        o.fitter,
		DiagnosticLag: o.lag,
		Parallel:      o.parallel,
	}).WithClock(o.now)

	kept := make([]*symbolRun, 0, len(runs))
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		run.sufficiency = pipeline.CheckSufficiency(run.returns, o.specs)

		report, err := cmp.Run(ctx, run.returns, o.specs)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			result.Errors = append(result.Errors, fmt.Sprintf("compare %s: %v", run.returns.Symbol, err))
			continue
		}
		run.comparison = report
		kept = append(kept, run)

		for i := range report.Entries {
			entry := &report.Entries[i]
			family := string(entry.Spec.Family)
			if entry.Failed() {
				log.Warn().Err(entry.Err).Str("symbol", run.returns.Symbol).Str("model", entry.Spec.String()).Msg("Fit failed")
				observability.RecordFitFailure(family)
				continue
			}
			observability.RecordFit(family, entry.Model.Converged, entry.Model.Iterations, entry.Elapsed.Seconds())
		}
	}

	return kept, nil
}

// persistResults writes fit results and fitted variance series for every
// successful entry. Duplicate keys are skipped so re-running over the
// same data is idempotent.
func (o *Orchestrator) persistResults(ctx context.Context, runID string, runs []*symbolRun) (int, int, []string) {
	var fits, points int
	var errs []string

	createdAt := o.now()
	for _, run := range runs {
		symbol := run.returns.Symbol
		digest := idhash.ComputeSeriesDigest(run.returns)

		for _, entry := range run.comparison.Fitted() {
			modelKey := entry.Spec.Key()

			fitID := idhash.ComputeFitID(symbol, modelKey, digest)
			fr := domain.NewFitResult(fitID, runID, entry.Model, createdAt)
			switch err := o.fitResultStore.Insert(ctx, fr); {
			case errors.Is(err, storage.ErrDuplicateKey):
				// Already persisted by an earlier run over the same data.
			case err != nil:
				errs = append(errs, fmt.Sprintf("persist fit %s/%s: %v", symbol, modelKey, err))
				continue
			default:
				fits++
			}

			vps := make([]domain.VariancePoint, len(entry.Model.Variance))
			for i := range vps {
				vps[i] = domain.VariancePoint{
					Time:     run.returns.Points[i].Time,
					Variance: entry.Model.Variance[i],
				}
			}
			switch err := o.varianceStore.InsertBulk(ctx, symbol, modelKey, vps); {
			case errors.Is(err, storage.ErrDuplicateKey):
			case err != nil:
				errs = append(errs, fmt.Sprintf("persist variance %s/%s: %v", symbol, modelKey, err))
			default:
				points += len(vps)
			}
		}
	}

	return fits, points, errs
}

// generateReports assembles the per-symbol report structures. Rendering
// and file layout are the caller's concern.
func (o *Orchestrator) generateReports(runs []*symbolRun) ([]*reporting.Report, []string) {
	gen := reporting.NewGenerator(reporting.GeneratorOptions{Horizons: o.horizons}).WithClock(o.now)

	var reports []*reporting.Report
	var errs []string
	for _, run := range runs {
		rep, err := gen.Generate(run.returns, run.comparison, run.sufficiency)
		if err != nil {
			errs = append(errs, fmt.Sprintf("report %s: %v", run.returns.Symbol, err))
			continue
		}
		reports = append(reports, rep)
		observability.RecordReportGenerated()
	}
	return reports, errs
}
