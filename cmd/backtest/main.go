// Package main provides the walk-forward forecast evaluation CLI.
// Each model is refit on an expanding window and judged on one-step
// variance forecasts against the squared-return proxy.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-volatility-lab/internal/backtest"
	"crypto-volatility-lab/internal/config"
	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/estimate"
	"crypto-volatility-lab/internal/observability"
	"crypto-volatility-lab/internal/optimize"
	"crypto-volatility-lab/internal/pipeline"
	"crypto-volatility-lab/internal/provider"
	"crypto-volatility-lab/internal/returns"
	"crypto-volatility-lab/internal/storage"
	chstore "crypto-volatility-lab/internal/storage/clickhouse"
	"crypto-volatility-lab/internal/storage/memory"
)

func main() {
	// Data source
	dataDir := flag.String("data-dir", "", "Directory of <SYMBOL>.csv daily price files")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (read prices from the store)")
	useFixtures := flag.Bool("use-fixtures", false, "Use deterministic fixture data")
	symbols := flag.String("symbols", "", "Comma-separated symbols (default: all available)")
	fromDate := flag.String("from", "", "Inclusive start date (YYYY-MM-DD)")
	toDate := flag.String("to", "", "Inclusive end date (YYYY-MM-DD)")

	// Walk-forward parameters
	minTrain := flag.Int("min-train-obs", backtest.DefaultMinTrainObs, "Initial training window (observations)")
	refitEvery := flag.Int("refit-every", backtest.DefaultRefitEvery, "Origins between full refits")
	families := flag.String("families", "", "Comma-separated model families (default: all)")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	verbose := flag.Bool("verbose", false, "Verbose logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if !*verbose {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	if *dataDir == "" && *clickhouseDSN == "" && !*useFixtures {
		fmt.Fprintln(os.Stderr, "Error: one of --data-dir, --clickhouse-dsn, or --use-fixtures is required")
		os.Exit(1)
	}

	specs, err := resolveSpecs(*families)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	from, to, err := parseBounds(*fromDate, *toDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
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

	src, symbolList, cleanup, err := createSource(ctx, *dataDir, *clickhouseDSN, *useFixtures, *symbols, from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	fitter := estimate.NewFitter(estimate.FitterOptions{Optimizer: optimize.NewNelderMead()})
	runner := backtest.NewRunner(backtest.Options{
		Fitter:      fitter,
		MinTrainObs: *minTrain,
		RefitEvery:  *refitEvery,
	})

	if !*outputJSON {
		fmt.Println("=== Walk-Forward Forecast Evaluation ===")
		fmt.Printf("Symbols:      %s\n", strings.Join(symbolList, ", "))
		fmt.Printf("Min train:    %d observations\n", *minTrain)
		fmt.Printf("Refit every:  %d origins\n", *refitEvery)
		fmt.Printf("Models:       %s\n", specNames(specs))
	}

	var (
		reports []*backtest.Report
		failed  int
	)
	for _, symbol := range symbolList {
		prices, err := src.Prices(ctx, symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to load prices")
			fmt.Fprintf(os.Stderr, "Error: load %s: %v\n", symbol, err)
			failed++
			continue
		}
		rs, err := returns.ToLogReturns(prices)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: transform %s: %v\n", symbol, err)
			failed++
			continue
		}

		rep, err := runner.Run(ctx, rs, specs)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(os.Stderr, "Cancelled")
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Error: evaluate %s: %v\n", symbol, err)
			failed++
			continue
		}

		for i := range rep.Evaluations {
			eval := &rep.Evaluations[i]
			if eval.Failed() {
				observability.RecordEvaluationFailure(string(eval.Spec.Family))
			} else {
				observability.RecordEvaluation(string(eval.Spec.Family), len(eval.Forecasts))
			}
		}

		if !*outputJSON {
			printReport(rep, len(rs.Points))
		}
		reports = append(reports, rep)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(toJSON(reports), "", "  ")
		fmt.Println(string(output))
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// resolveSpecs parses the families flag through the config parser so
// both accept the same names.
func resolveSpecs(families string) ([]domain.ModelSpec, error) {
	cfg := config.Default()
	for _, name := range strings.Split(families, ",") {
		if name = strings.TrimSpace(name); name != "" {
			cfg.Models.Families = append(cfg.Models.Families, name)
		}
	}
	return cfg.Models.Specs()
}

// createSource builds the price source and the symbol list for it.
func createSource(ctx context.Context, dataDir, clickhouseDSN string, useFixtures bool, symbolsFlag string, from, to time.Time) (provider.PriceProvider, []string, func(), error) {
	noop := func() {}

	switch {
	case useFixtures:
		priceStore := memory.NewPriceSeriesStore()
		if err := pipeline.LoadFixtures(ctx, priceStore); err != nil {
			return nil, nil, nil, fmt.Errorf("load fixtures: %w", err)
		}
		symbols, err := resolveStoreSymbols(ctx, symbolsFlag, priceStore)
		if err != nil {
			return nil, nil, nil, err
		}
		return provider.NewStoreProvider(priceStore, from, to), symbols, noop, nil

	case clickhouseDSN != "":
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		priceStore := chstore.NewPriceSeriesStore(conn)
		symbols, err := resolveStoreSymbols(ctx, symbolsFlag, priceStore)
		if err != nil {
			conn.Close()
			return nil, nil, nil, err
		}
		return provider.NewStoreProvider(priceStore, from, to), symbols, func() { conn.Close() }, nil

	default:
		symbols, err := resolveCSVSymbols(symbolsFlag, dataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return provider.NewCSVProvider(dataDir, from, to), symbols, noop, nil
	}
}

func resolveStoreSymbols(ctx context.Context, flagValue string, store storage.PriceSeriesStore) ([]string, error) {
	if flagValue != "" {
		return splitSymbols(flagValue), nil
	}
	symbols, err := store.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("price store holds no symbols")
	}
	return symbols, nil
}

func resolveCSVSymbols(flagValue, dataDir string) ([]string, error) {
	if flagValue != "" {
		return splitSymbols(flagValue), nil
	}
	matches, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dataDir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no CSV files in %s (use --symbols to select)", dataDir)
	}
	symbols := make([]string, 0, len(matches))
	for _, m := range matches {
		symbols = append(symbols, strings.TrimSuffix(filepath.Base(m), ".csv"))
	}
	sort.Strings(symbols)
	return symbols, nil
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

func parseBounds(fromDate, toDate string) (from, to time.Time, err error) {
	if fromDate != "" {
		from, err = time.ParseInLocation("2006-01-02", fromDate, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
		}
	}
	if toDate != "" {
		to, err = time.ParseInLocation("2006-01-02", toDate, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s precedes --from %s", toDate, fromDate)
	}
	return from, to, nil
}

func specNames(specs []domain.ModelSpec) string {
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.String()
	}
	return strings.Join(names, ", ")
}

// printReport outputs the human-readable loss table for one symbol.
func printReport(rep *backtest.Report, observations int) {
	fmt.Println()
	fmt.Printf("%s: %d observations\n", rep.Symbol, observations)

	ranked := rep.Ranked()
	if len(ranked) > 0 {
		fmt.Printf("  %-4s  %-16s  %12s  %12s  %12s  %9s  %6s  %6s\n",
			"Rank", "Model", "QLIKE", "MSE", "MAE", "Forecasts", "Refits", "Failed")
		for i, eval := range ranked {
			fmt.Printf("  %-4d  %-16s  %12.6f  %12.4e  %12.4e  %9d  %6d  %6d\n",
				i+1, eval.Spec.String(), eval.Losses.QLIKE, eval.Losses.MSE, eval.Losses.MAE,
				len(eval.Forecasts), eval.Refits, eval.FailedFits)
		}
	}

	for i := range rep.Evaluations {
		eval := &rep.Evaluations[i]
		if eval.Failed() {
			fmt.Printf("  failed: %s: %v\n", eval.Spec.String(), eval.Err)
		}
	}

	if best := rep.Best(); best != nil {
		fmt.Printf("  Best model: %s\n", best.Spec.String())
	} else {
		fmt.Println("  Best model: none (every evaluation failed)")
	}
}

// JSON output shapes.
type reportJSON struct {
	Symbol      string     `json:"symbol"`
	Evaluations []evalJSON `json:"evaluations"`
	BestModel   string     `json:"best_model,omitempty"`
}

type evalJSON struct {
	Model      string  `json:"model"`
	Forecasts  int     `json:"forecasts"`
	Refits     int     `json:"refits"`
	FailedFits int     `json:"failed_fits"`
	MSE        float64 `json:"mse"`
	MAE        float64 `json:"mae"`
	QLIKE      float64 `json:"qlike"`
	Error      string  `json:"error,omitempty"`
}

func toJSON(reports []*backtest.Report) []reportJSON {
	out := make([]reportJSON, 0, len(reports))
	for _, rep := range reports {
		rj := reportJSON{Symbol: rep.Symbol}
		for i := range rep.Evaluations {
			eval := &rep.Evaluations[i]
			ej := evalJSON{
				Model:      eval.Spec.String(),
				Forecasts:  len(eval.Forecasts),
				Refits:     eval.Refits,
				FailedFits: eval.FailedFits,
				MSE:        eval.Losses.MSE,
				MAE:        eval.Losses.MAE,
				QLIKE:      eval.Losses.QLIKE,
			}
			if eval.Err != nil {
				ej.Error = eval.Err.Error()
			}
			rj.Evaluations = append(rj.Evaluations, ej)
		}
		if best := rep.Best(); best != nil {
			rj.BestModel = best.Spec.String()
		}
		out = append(out, rj)
	}
	return out
}
