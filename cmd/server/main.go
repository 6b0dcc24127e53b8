// Package main provides the long-running volatility lab service:
// - Refit (scheduled): price loading → model comparison → persistence
// - HTTP: latest reports as JSON, health, status, prometheus metrics
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-volatility-lab/internal/config"
	"crypto-volatility-lab/internal/domain"
	"crypto-volatility-lab/internal/estimate"
	"crypto-volatility-lab/internal/observability"
	"crypto-volatility-lab/internal/optimize"
	"crypto-volatility-lab/internal/orchestrator"
	"crypto-volatility-lab/internal/pipeline"
	"crypto-volatility-lab/internal/provider"
	"crypto-volatility-lab/internal/reporting"
	"crypto-volatility-lab/internal/storage"
	chstore "crypto-volatility-lab/internal/storage/clickhouse"
	"crypto-volatility-lab/internal/storage/memory"
	pgstore "crypto-volatility-lab/internal/storage/postgres"
)

// Server holds the components of the lab service.
type Server struct {
	// Configuration
	symbols       []string
	specs         []domain.ModelSpec
	fitter        *estimate.Fitter
	lag           int
	parallel      bool
	refitInterval time.Duration

	// Stores
	stores *labStores

	// State
	mu            sync.Mutex
	startedAt     time.Time
	lastRefitRun  time.Time
	refitRunning  bool
	refitRuns     int
	lastRunID     string
	lastErrors    []string
	latestReports []*reporting.Report
}

// labStores holds the storage implementations.
type labStores struct {
	priceStore    storage.PriceSeriesStore
	fitStore      storage.FitResultStore
	varianceStore storage.VarianceSeriesStore
}

func main() {
	// Parse flags (env vars override DSNs inside config.Load)
	configPath := flag.String("config", "", "YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	refitInterval := flag.Duration("refit-interval", 0, "Refit interval (overrides config)")
	useFixtures := flag.Bool("use-fixtures", false, "Use in-memory fixture data instead of databases")
	verbose := flag.Bool("verbose", false, "Verbose logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := loadConfig(*configPath, *addr, *refitInterval, *useFixtures)
	if err != nil {
		log.Fatal().Err(err).Msg("Config error")
	}

	if !*useFixtures && (cfg.Storage.PostgresDSN == "" || cfg.Storage.ClickhouseDSN == "") {
		log.Fatal().Msg("storage.postgres_dsn and storage.clickhouse_dsn are required (use --use-fixtures for demo data)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := createStores(ctx, cfg, *useFixtures)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stores")
	}
	defer cleanup()

	specs, _ := cfg.Models.Specs()
	interval, _ := cfg.Server.Interval()
	server := &Server{
		symbols:       cfg.Data.Symbols,
		specs:         specs,
		fitter:        buildFitter(cfg),
		lag:           cfg.Models.DiagnosticLag,
		parallel:      cfg.Models.Parallel,
		refitInterval: interval,
		stores:        stores,
		startedAt:     time.Now().UTC(),
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Initiating graceful shutdown")
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			log.Error().Str("signal", sig.String()).Msg("Forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Error().Msg("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	go server.startHTTPServer(cfg.Server.Addr)

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("Server error")
	}
	log.Info().Msg("Shutdown complete")
}

// loadConfig loads the YAML config (or defaults in fixture mode) and
// applies flag overrides before validating.
func loadConfig(path, addr string, refitInterval time.Duration, useFixtures bool) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case path != "":
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	case useFixtures:
		cfg = config.Default()
		cfg.Data.Symbols = pipeline.FixtureSymbols()
	default:
		return nil, fmt.Errorf("--config is required (or --use-fixtures for demo data)")
	}

	if addr != "" {
		cfg.Server.Addr = addr
	}
	if refitInterval > 0 {
		cfg.Server.RefitInterval = refitInterval.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
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

// createStores creates the required stores. Fixture mode seeds memory
// stores with deterministic demo data.
func createStores(ctx context.Context, cfg *config.Config, useFixtures bool) (*labStores, func(), error) {
	if useFixtures {
		priceStore := memory.NewPriceSeriesStore()
		if err := pipeline.LoadFixtures(ctx, priceStore); err != nil {
			return nil, nil, fmt.Errorf("load fixtures: %w", err)
		}
		stores := &labStores{
			priceStore:    priceStore,
			fitStore:      memory.NewFitResultStore(),
			varianceStore: memory.NewVarianceSeriesStore(),
		}
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

	stores := &labStores{
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

// Run starts the refit scheduler and the uptime ticker.
func (s *Server) Run(ctx context.Context) error {
	log.Info().
		Int("symbols", len(s.symbols)).
		Dur("refit_interval", s.refitInterval).
		Msg("Starting volatility lab service")

	errCh := make(chan error, 1)

	go func() {
		if err := s.runRefitScheduler(ctx); err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("refit scheduler: %w", err)
		}
	}()

	go s.runUptimeTicker(ctx)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runRefitScheduler refits immediately on start, then on every tick.
func (s *Server) runRefitScheduler(ctx context.Context) error {
	s.runRefit(ctx)

	ticker := time.NewTicker(s.refitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runRefit(ctx)
		}
	}
}

// runRefit executes one full pipeline run and captures the results for
// the HTTP endpoints.
func (s *Server) runRefit(ctx context.Context) {
	s.mu.Lock()
	if s.refitRunning {
		s.mu.Unlock()
		log.Warn().Msg("Refit already running, skipping")
		return
	}
	s.refitRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refitRunning = false
		s.lastRefitRun = time.Now().UTC()
		s.refitRuns++
		s.mu.Unlock()
	}()

	log.Info().Msg("Running refit")
	start := time.Now()

	orch := orchestrator.New(orchestrator.Options{
		Provider:            provider.NewStoreProvider(s.stores.priceStore, time.Time{}, time.Time{}),
		FitResultStore:      s.stores.fitStore,
		VarianceSeriesStore: s.stores.varianceStore,
		Symbols:             s.symbols,
		Specs:               s.specs,
		Fitter:              s.fitter,
		DiagnosticLag:       s.lag,
		Parallel:            s.parallel,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Refit error")
		observability.RecordPipelineRun("refit", "error", time.Since(start).Seconds())
		return
	}

	s.mu.Lock()
	s.lastRunID = result.RunID
	s.lastErrors = result.Errors
	s.latestReports = result.Reports
	s.mu.Unlock()

	log.Info().
		Dur("elapsed", time.Since(start)).
		Int("symbols", result.SymbolsProcessed).
		Int("fits", result.FitsPersisted).
		Int("reports", len(result.Reports)).
		Msg("Refit completed")
	observability.RecordPipelineRun("refit", "ok", time.Since(start).Seconds())
}

// runUptimeTicker feeds the uptime counter once per second.
func (s *Server) runUptimeTicker(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.DefaultMetrics.UptimeSeconds.Inc()
		}
	}
}

// startHTTPServer starts the HTTP server for health/metrics/status/reports.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status and latest results
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/reports", s.handleReports)

	log.Info().Str("addr", addr).Msg("Starting HTTP server")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("HTTP server error")
	}
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status       string    `json:"status"`
	Uptime       string    `json:"uptime"`
	StartedAt    time.Time `json:"started_at"`
	LastRefitRun time.Time `json:"last_refit_run,omitempty"`
	RefitRuns    int       `json:"refit_runs"`
	RefitRunning bool      `json:"refit_running"`
	LastRunID    string    `json:"last_run_id,omitempty"`
	LastErrors   []string  `json:"last_errors,omitempty"`
	Symbols      []string  `json:"symbols"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:       "running",
		Uptime:       time.Since(s.startedAt).String(),
		StartedAt:    s.startedAt,
		LastRefitRun: s.lastRefitRun,
		RefitRuns:    s.refitRuns,
		RefitRunning: s.refitRunning,
		LastRunID:    s.lastRunID,
		LastErrors:   s.lastErrors,
		Symbols:      s.symbols,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleReports returns the latest per-symbol reports as JSON. Empty
// until the first refit completes.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	reports := s.latestReports
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if reports == nil {
		w.Write([]byte("[]"))
		return
	}
	json.NewEncoder(w).Encode(reports)
}
