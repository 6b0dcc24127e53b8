// Package main provides the replay verification CLI. It refits the
// recorded price series for every persisted fit result and requires the
// stored numbers to reproduce bit for bit.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-volatility-lab/internal/config"
	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/estimate"
	"crypto-volatility-lab/internal/idhash"
	"crypto-volatility-lab/internal/optimize"
	"crypto-volatility-lab/internal/orchestrator"
	"crypto-volatility-lab/internal/pipeline"
	"crypto-volatility-lab/internal/provider"
	"crypto-volatility-lab/internal/returns"
	"crypto-volatility-lab/internal/storage"
	chstore "crypto-volatility-lab/internal/storage/clickhouse"
	"crypto-volatility-lab/internal/storage/memory"
	pgstore "crypto-volatility-lab/internal/storage/postgres"
	"crypto-volatility-lab/internal/verification"
)

const maxPrintedDivergences = 5

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file (supplies the optimizer settings used at fit time)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (fit results)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (price and variance series)")
	useFixtures := flag.Bool("use-fixtures", false, "Fit and verify deterministic fixture data in memory")
	symbols := flag.String("symbols", "", "Comma-separated symbols (default: all stored)")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	verbose := flag.Bool("verbose", false, "Verbose logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if !*verbose {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}

	if !*useFixtures && (cfg.Storage.PostgresDSN == "" || cfg.Storage.ClickhouseDSN == "") {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn and --clickhouse-dsn are required when not using fixtures")
		fmt.Fprintln(os.Stderr, "Use --use-fixtures to run with demo data instead")
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling...\n", sig)
		cancel()
	}()

	fitter := buildFitter(cfg)

	stores, cleanup, err := createStores(ctx, cfg, *useFixtures, fitter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	symbolList, err := resolveSymbols(ctx, *symbols, stores.priceStore)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	stats, err := runReplay(ctx, stores, fitter, symbolList, *outputJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Println()
		fmt.Println("=== Replay Summary ===")
		fmt.Printf("Symbols:        %d\n", stats.Symbols)
		fmt.Printf("Fits checked:   %d\n", stats.FitsChecked)
		fmt.Printf("Reproduced:     %d\n", stats.Reproduced)
		fmt.Printf("Diverged:       %d\n", stats.Diverged)
		fmt.Printf("Refit errors:   %d\n", stats.RefitErrors)
		fmt.Printf("Stale skipped:  %d\n", stats.StaleSkipped)
	}

	if stats.Diverged > 0 || stats.RefitErrors > 0 {
		os.Exit(1)
	}
}

// buildFitter applies the optimizer overrides from config. The replay
// only reproduces stored fits when these match the settings used to
// produce them.
func buildFitter(cfg *config.Config) *estimate.Fitter {
	nm := optimize.NewNelderMead()
	if cfg.Optimizer.MaxIterations > 0 {
		nm.MaxIterations = cfg.Optimizer.MaxIterations
	}
	if cfg.Optimizer.TolF > 0 {
		nm.TolF = cfg.Optimizer.TolF
	}
	if cfg.Optimizer.TolX > 0 {
		nm.TolX = cfg.Optimizer.TolX
	}
	return estimate.NewFitter(estimate.FitterOptions{Optimizer: nm})
}

// replayStores holds the storage implementations.
type replayStores struct {
	priceStore    storage.PriceSeriesStore
	fitStore      storage.FitResultStore
	varianceStore storage.VarianceSeriesStore
}

// createStores creates the stores. Fixture mode seeds memory stores and
// runs one pipeline pass so there are recorded fits to replay.
func createStores(ctx context.Context, cfg *config.Config, useFixtures bool, fitter *estimate.Fitter) (*replayStores, func(), error) {
	if useFixtures {
		priceStore := memory.NewPriceSeriesStore()
		if err := pipeline.LoadFixtures(ctx, priceStore); err != nil {
			return nil, nil, fmt.Errorf("load fixtures: %w", err)
		}
		stores := &replayStores{
			priceStore:    priceStore,
			fitStore:      memory.NewFitResultStore(),
			varianceStore: memory.NewVarianceSeriesStore(),
		}

		orch := orchestrator.New(orchestrator.Options{
			Provider:            provider.NewStoreProvider(priceStore, time.Time{}, time.Time{}),
			FitResultStore:      stores.fitStore,
			VarianceSeriesStore: stores.varianceStore,
			Symbols:             pipeline.FixtureSymbols(),
			Fitter:              fitter,
			Parallel:            true,
		})
		result, err := orch.Run(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("seed fixture fits: %w", err)
		}
		fmt.Printf("Seeded %d fixture fits across %d symbols\n", result.FitsPersisted, result.SymbolsProcessed)

		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	chConn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	stores := &replayStores{
		priceStore:    chstore.NewPriceSeriesStore(chConn),
		fitStore:      pgstore.NewFitResultStore(pool),
		varianceStore: chstore.NewVarianceSeriesStore(chConn),
	}
	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

func resolveSymbols(ctx context.Context, flagValue string, priceStore storage.PriceSeriesStore) ([]string, error) {
	if flagValue != "" {
		var out []string
		for _, part := range strings.Split(flagValue, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
	symbols, err := priceStore.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("price store holds no symbols")
	}
	return symbols, nil
}

// replayStats is the verification outcome over every checked fit.
type replayStats struct {
	Symbols      int              `json:"symbols"`
	FitsChecked  int              `json:"fits_checked"`
	Reproduced   int              `json:"reproduced"`
	Diverged     int              `json:"diverged"`
	RefitErrors  int              `json:"refit_errors"`
	StaleSkipped int              `json:"stale_skipped"`
	Divergences  []divergenceJSON `json:"divergences,omitempty"`
}

type divergenceJSON struct {
	Symbol   string      `json:"symbol"`
	Model    string      `json:"model"`
	Field    string      `json:"field"`
	Expected interface{} `json:"expected"`
	Actual   interface{} `json:"actual"`
}

// runReplay verifies the latest stored fit per (symbol, model key). A
// fit whose ID no longer matches the digest of the stored prices was
// produced from different data and is skipped as stale.
func runReplay(ctx context.Context, stores *replayStores, fitter *estimate.Fitter, symbolList []string, quiet bool) (*replayStats, error) {
	verifier := verification.NewReplayVerifier(fitter)
	src := provider.NewStoreProvider(stores.priceStore, time.Time{}, time.Time{})
	stats := &replayStats{}

	if !quiet {
		fmt.Println("=== Replay Verification ===")
		fmt.Printf("Symbols: %s\n", strings.Join(symbolList, ", "))
		fmt.Println()
	}

	for _, symbol := range symbolList {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prices, err := src.Prices(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", symbol, err)
		}
		rs, err := returns.ToLogReturns(prices)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", symbol, err)
		}
		digest := idhash.ComputeSeriesDigest(rs)

		fits, err := stores.fitStore.GetBySymbol(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("load fits for %s: %w", symbol, err)
		}

		stats.Symbols++
		reproduced, checked := 0, 0
		for _, fit := range latestPerModel(fits) {
			modelKey := fit.ModelKey()

			if fit.FitID != idhash.ComputeFitID(symbol, modelKey, digest) {
				stats.StaleSkipped++
				if !quiet {
					fmt.Printf("  %s %s: stale (price series changed since fit), skipped\n", symbol, fit.Spec())
				}
				continue
			}

			result, err := verifier.VerifyRecord(ctx, rs, fit, storedVariance(ctx, stores.varianceStore, symbol, modelKey))
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				stats.RefitErrors++
				if !quiet {
					fmt.Printf("  %s %s: refit failed: %v\n", symbol, fit.Spec(), err)
				}
				continue
			}

			stats.FitsChecked++
			checked++
			if result.Match {
				stats.Reproduced++
				reproduced++
				continue
			}

			stats.Diverged++
			for _, div := range result.Divergences {
				stats.Divergences = append(stats.Divergences, divergenceJSON{
					Symbol:   symbol,
					Model:    fit.Spec().String(),
					Field:    div.Field,
					Expected: div.Expected,
					Actual:   div.Actual,
				})
			}
			if !quiet {
				printDivergences(symbol, fit.Spec(), result.Divergences)
			}
		}

		if !quiet {
			fmt.Printf("  %s: %d/%d fits reproduced bit-for-bit\n", symbol, reproduced, checked)
		}
	}

	return stats, nil
}

// latestPerModel keeps the newest fit per model key; fits arrive in
// created_at ASC order. Keys are sorted for stable output.
func latestPerModel(fits []*domain.FitResult) []*domain.FitResult {
	byKey := make(map[string]*domain.FitResult)
	for _, fit := range fits {
		byKey[fit.ModelKey()] = fit
	}
	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]*domain.FitResult, 0, len(keys))
	for _, key := range keys {
		out = append(out, byKey[key])
	}
	return out
}

// storedVariance loads the persisted variance series, or nil when none
// was recorded so the series comparison is skipped.
func storedVariance(ctx context.Context, store storage.VarianceSeriesStore, symbol, modelKey string) []float64 {
	points, err := store.GetByModel(ctx, symbol, modelKey)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Str("model", modelKey).Msg("Failed to load variance series")
		return nil
	}
	if len(points) == 0 {
		return nil
	}
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Variance
	}
	return out
}

func printDivergences(symbol string, spec domain.ModelSpec, divs []verification.FieldDivergence) {
	for i, div := range divs {
		if i == maxPrintedDivergences {
			fmt.Printf("    ... and %d more\n", len(divs)-maxPrintedDivergences)
			return
		}
		fmt.Printf("    %s %s %s: expected %v, got %v\n", symbol, spec, div.Field, div.Expected, div.Actual)
	}
}
