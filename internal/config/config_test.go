package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"crypto-volatility-lab/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
data:
  symbols: [BTC-USD, ETH-USD]
  csv_dir: testdata/prices
  from: "2023-01-01"
  to: "2024-12-31"
models:
  families: [GARCH, GJR]
  diagnostic_lag: 20
  forecast_horizon: 5
  parallel: true
optimizer:
  max_iterations: 5000
  tol_f: 1e-12
backtest:
  min_train_obs: 400
  refit_every: 50
storage:
  postgres_dsn: postgres://test@localhost/vollab
  clickhouse_dsn: clickhouse://localhost:9000/vollab
output:
  dir: out
server:
  addr: ":9090"
  refit_interval: 12h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if len(cfg.Data.Symbols) != 2 || cfg.Data.Symbols[0] != "BTC-USD" {
		t.Errorf("symbols = %v", cfg.Data.Symbols)
	}
	if cfg.Data.CSVDir != "testdata/prices" {
		t.Errorf("csv_dir = %q", cfg.Data.CSVDir)
	}
	if !cfg.Models.Parallel {
		t.Error("parallel not set")
	}
	if cfg.Models.DiagnosticLag != 20 {
		t.Errorf("diagnostic_lag = %d", cfg.Models.DiagnosticLag)
	}
	if cfg.Optimizer.MaxIterations != 5000 {
		t.Errorf("max_iterations = %d", cfg.Optimizer.MaxIterations)
	}
	if cfg.Backtest.RefitEvery != 50 {
		t.Errorf("refit_every = %d", cfg.Backtest.RefitEvery)
	}
	if cfg.Output.Dir != "out" {
		t.Errorf("output dir = %q", cfg.Output.Dir)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}

	from, to, err := cfg.Data.Range()
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if !from.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", from)
	}
	if !to.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("to = %v", to)
	}

	specs, err := cfg.Models.Specs()
	if err != nil {
		t.Fatalf("Specs: %v", err)
	}
	if len(specs) != 2 || specs[0].Family != domain.FamilyGARCH || specs[1].Family != domain.FamilyGJRGARCH {
		t.Errorf("specs = %v", specs)
	}

	interval, err := cfg.Server.Interval()
	if err != nil {
		t.Fatalf("Interval: %v", err)
	}
	if interval != 12*time.Hour {
		t.Errorf("interval = %v", interval)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
data:
  symbols: [BTC-USD]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Models.ForecastHorizon != 10 {
		t.Errorf("forecast_horizon = %d, want 10", cfg.Models.ForecastHorizon)
	}
	if cfg.Output.Dir != "reports" {
		t.Errorf("output dir = %q, want reports", cfg.Output.Dir)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Server.RefitInterval != "24h" {
		t.Errorf("refit_interval = %q, want 24h", cfg.Server.RefitInterval)
	}

	specs, err := cfg.Models.Specs()
	if err != nil {
		t.Fatalf("Specs: %v", err)
	}
	if len(specs) != 3 {
		t.Errorf("default specs = %d, want 3", len(specs))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverridesDSNs(t *testing.T) {
	t.Setenv("VOLLAB_POSTGRES_DSN", "postgres://env@localhost/envdb")
	t.Setenv("VOLLAB_CLICKHOUSE_DSN", "clickhouse://env:9000/envdb")

	path := writeConfig(t, `
data:
  symbols: [BTC-USD]
storage:
  postgres_dsn: postgres://file@localhost/filedb
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.PostgresDSN != "postgres://env@localhost/envdb" {
		t.Errorf("postgres dsn = %q, want env override", cfg.Storage.PostgresDSN)
	}
	if cfg.Storage.ClickhouseDSN != "clickhouse://env:9000/envdb" {
		t.Errorf("clickhouse dsn = %q, want env override", cfg.Storage.ClickhouseDSN)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"no symbols", `
output:
  dir: out
`},
		{"blank symbol", `
data:
  symbols: ["BTC-USD", "  "]
`},
		{"inverted range", `
data:
  symbols: [BTC-USD]
  from: "2024-01-01"
  to: "2023-01-01"
`},
		{"bad date", `
data:
  symbols: [BTC-USD]
  from: "01/02/2023"
`},
		{"unknown family", `
data:
  symbols: [BTC-USD]
models:
  families: [ARCH]
`},
		{"bad interval", `
data:
  symbols: [BTC-USD]
server:
  refit_interval: soon
`},
		{"negative lag", `
data:
  symbols: [BTC-USD]
models:
  diagnostic_lag: -1
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tc.yaml))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Output.Dir != "reports" || cfg.Server.Addr != ":8080" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	// No symbols configured, so a bare default config does not validate.
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty default config")
	}
}
