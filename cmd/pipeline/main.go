// Package main provides the batch pipeline entry point.
// Executes: price loading → model comparison → persistence → reporting
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
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
	"crypto-volatility-lab/internal/provider"
	"crypto-volatility-lab/internal/reporting"
	"crypto-volatility-lab/internal/returns"
	"crypto-volatility-lab/internal/storage"
	"crypto-volatility-lab/internal/storage/clickhouse"
	"crypto-volatility-lab/internal/storage/memory"
	"crypto-volatility-lab/internal/storage/postgres"
	"crypto-volatility-lab/internal/verification"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	dataDir := flag.String("data-dir", "", "Directory of <symbol>.csv price files (overrides config)")
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols (overrides config)")
	outputDir := flag.String("output-dir", "", "Output directory for generated files (overrides config)")
	verify := flag.Bool("verify", false, "Refit every model and require bit-identical results")
	verbose := flag.Bool("verbose", false, "Verbose logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if !*verbose {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling pipeline...\n", sig)
		cancel()
	}()

	cfg, err := loadConfig(*configPath, *dataDir, *symbolsFlag, *outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	from, to, _ := cfg.Data.Range()
	specs, _ := cfg.Models.Specs()
	fitter := buildFitter(cfg)

	stores, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Storage error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	src := provider.NewCSVProvider(cfg.Data.CSVDir, from, to)

	start := time.Now().UTC()
	runID := idhash.ComputeRunID(start.UnixMilli(), cfg.Data.Symbols)

	fmt.Println("=== Volatility Model Comparison ===")
	orch := orchestrator.New(orchestrator.Options{
		Provider:            src,
		FitResultStore:      stores.fitStore,
		VarianceSeriesStore: stores.varianceStore,
		Symbols:             cfg.Data.Symbols,
		Specs:               specs,
		Fitter:              fitter,
		DiagnosticLag:       cfg.Models.DiagnosticLag,
		Parallel:            cfg.Models.Parallel,
		RunID:               runID,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Run %s completed:\n", shortID(result.RunID))
	fmt.Printf("  Symbols:         %d\n", result.SymbolsProcessed)
	fmt.Printf("  Fits persisted:  %d\n", result.FitsPersisted)
	fmt.Printf("  Variance points: %d\n", result.VariancePointsPersisted)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	// Console tables and report files
	for _, rep := range result.Reports {
		fmt.Println()
		fmt.Print(reporting.RenderText(rep))
	}
	written, err := writeReports(cfg.Output.Dir, result.Reports)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Write reports: %v\n", err)
		os.Exit(1)
	}
	if len(written) > 0 {
		fmt.Println("\nGenerated files:")
		for _, f := range written {
			fmt.Printf("  - %s\n", f)
		}
	}

	if *verify {
		fmt.Println("\n=== Determinism Verification ===")
		if err := runVerification(ctx, src, fitter, cfg.Data.Symbols, specs); err != nil {
			fmt.Fprintf(os.Stderr, "Verification error: %v\n", err)
			os.Exit(1)
		}
	}

	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}

// loadConfig loads the YAML config (or defaults) and applies flag
// overrides before validating.
func loadConfig(path, dataDir, symbols, outputDir string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if dataDir != "" {
		cfg.Data.CSVDir = dataDir
	}
	if symbols != "" {
		cfg.Data.Symbols = splitSymbols(symbols)
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// buildFitter applies the optimizer overrides from config.
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

// resultStores holds the stores the pipeline persists into.
type resultStores struct {
	fitStore      storage.FitResultStore
	varianceStore storage.VarianceSeriesStore
}

// buildStores connects to the configured databases, falling back to
// memory stores when no DSN is set.
func buildStores(ctx context.Context, cfg *config.Config) (*resultStores, func(), error) {
	stores := &resultStores{
		fitStore:      memory.NewFitResultStore(),
		varianceStore: memory.NewVarianceSeriesStore(),
	}
	cleanup := func() {}

	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		stores.fitStore = postgres.NewFitResultStore(pool)
		prev := cleanup
		cleanup = func() { pool.Close(); prev() }
	}

	if dsn := cfg.Storage.ClickhouseDSN; dsn != "" {
		conn, err := clickhouse.NewConn(ctx, dsn)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		stores.varianceStore = clickhouse.NewVarianceSeriesStore(conn)
		prev := cleanup
		cleanup = func() { conn.Close(); prev() }
	}

	return stores, cleanup, nil
}

// writeReports renders one Markdown report and one comparison CSV per
// symbol under dir.
func writeReports(dir string, reports []*reporting.Report) ([]string, error) {
	if len(reports) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	for _, rep := range reports {
		mdPath := filepath.Join(dir, rep.Symbol+"_report.md")
		if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(rep)), 0o644); err != nil {
			return written, err
		}
		written = append(written, mdPath)

		csvPath := filepath.Join(dir, rep.Symbol+"_comparison.csv")
		if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(rep.Comparison)), 0o644); err != nil {
			return written, err
		}
		written = append(written, csvPath)
	}
	return written, nil
}

// runVerification refits every (symbol, spec) pair and reports any
// numeric divergence.
func runVerification(ctx context.Context, src provider.PriceProvider, fitter *estimate.Fitter, symbols []string, specs []domain.ModelSpec) error {
	verifier := verification.NewRefitVerifier(verification.RefitVerifierOptions{Fitter: fitter})

	divergent := 0
	for _, symbol := range symbols {
		prices, err := src.Prices(ctx, symbol)
		if err != nil {
			return fmt.Errorf("load %s: %w", symbol, err)
		}
		rs, err := returns.ToLogReturns(prices)
		if err != nil {
			return fmt.Errorf("transform %s: %w", symbol, err)
		}

		report, err := verifier.VerifyAll(ctx, rs, specs)
		if err != nil {
			return fmt.Errorf("verify %s: %w", symbol, err)
		}

		fmt.Printf("  %s: %d/%d fits reproduced bit-for-bit\n", symbol, report.MatchedFits, report.TotalFits)
		for _, res := range report.Results {
			if res.Match {
				continue
			}
			divergent++
			for _, d := range res.Divergences {
				fmt.Printf("    %s %s: expected %v, got %v\n", res.Spec, d.Field, d.Expected, d.Actual)
			}
		}
	}

	if divergent > 0 {
		return fmt.Errorf("%d fits diverged on refit", divergent)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
