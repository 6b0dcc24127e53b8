// Package main imports daily price CSVs into the price store.
package main

import (
	"context"
	"errors"
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

	"crypto-volatility-lab/internal/observability"
	"crypto-volatility-lab/internal/provider"
	"crypto-volatility-lab/internal/storage"
	chstore "crypto-volatility-lab/internal/storage/clickhouse"
	"crypto-volatility-lab/internal/storage/memory"
)

func main() {
	// Parse flags
	dataDir := flag.String("data-dir", "data", "Directory of <symbol>.csv price files")
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols (default: every CSV in data-dir)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	fromFlag := flag.String("from", "", "Inclusive lower date bound (2006-01-02)")
	toFlag := flag.String("to", "", "Inclusive upper date bound (2006-01-02)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse (dry run)")
	verbose := flag.Bool("verbose", false, "Verbose logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if !*verbose {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	if !*useMemory && *clickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --clickhouse-dsn is required (or --use-memory for a dry run)")
		os.Exit(1)
	}

	from, to, err := parseBounds(*fromFlag, *toFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling import...\n", sig)
		cancel()
	}()

	var store storage.PriceSeriesStore
	storeLabel := "memory"
	if *useMemory {
		store = memory.NewPriceSeriesStore()
	} else {
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to clickhouse: %v\n", err)
			os.Exit(1)
		}
		defer conn.Close()
		store = chstore.NewPriceSeriesStore(conn)
		storeLabel = "clickhouse"
	}

	symbols, err := resolveSymbols(*symbolsFlag, *dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(symbols) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no CSV files found in %s\n", *dataDir)
		os.Exit(1)
	}

	src := provider.NewCSVProvider(*dataDir, from, to)

	var imported, points, skipped, failed int
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}

		prices, err := src.Prices(ctx, symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to read price CSV")
			fmt.Fprintf(os.Stderr, "  %s: read failed: %v\n", symbol, err)
			failed++
			continue
		}

		start := time.Now()
		err = store.InsertBulk(ctx, symbol, prices.Points)
		observability.RecordDBQuery(storeLabel, "insert_price_series", time.Since(start).Seconds(), err)
		switch {
		case errors.Is(err, storage.ErrDuplicateKey):
			fmt.Printf("  %s: already imported, skipped\n", symbol)
			skipped++
		case err != nil:
			log.Warn().Err(err).Str("symbol", symbol).Msg("Insert failed")
			fmt.Fprintf(os.Stderr, "  %s: insert failed: %v\n", symbol, err)
			failed++
		default:
			fmt.Printf("  %s: %d points\n", symbol, len(prices.Points))
			imported++
			points += len(prices.Points)
		}
	}

	fmt.Printf("Import complete: %d symbols (%d points), %d skipped, %d failed\n", imported, points, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// parseBounds parses the optional date-bound flags. Zero values leave
// that side unbounded.
func parseBounds(fromFlag, toFlag string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromFlag != "" {
		if from, err = time.ParseInLocation("2006-01-02", fromFlag, time.UTC); err != nil {
			return from, to, fmt.Errorf("parse --from: %w", err)
		}
	}
	if toFlag != "" {
		if to, err = time.ParseInLocation("2006-01-02", toFlag, time.UTC); err != nil {
			return from, to, fmt.Errorf("parse --to: %w", err)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fmt.Errorf("--to %s precedes --from %s", toFlag, fromFlag)
	}
	return from, to, nil
}

// resolveSymbols returns the explicit list when given, otherwise the
// basename of every CSV file in the data directory.
func resolveSymbols(flagValue, dataDir string) ([]string, error) {
	if flagValue != "" {
		var out []string
		for _, part := range strings.Split(flagValue, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}

	matches, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(matches))
	for _, m := range matches {
		symbols = append(symbols, strings.TrimSuffix(filepath.Base(m), ".csv"))
	}
	sort.Strings(symbols)
	return symbols, nil
}
