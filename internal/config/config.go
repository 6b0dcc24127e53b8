// Package config loads run configuration from YAML with environment
// overrides for storage credentials. Zero values defer to the defaults
// of the component they configure.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"crypto-volatility-lab/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Models    ModelsConfig    `yaml:"models"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Backtest  BacktestConfig  `yaml:"backtest"`
	Storage   StorageConfig   `yaml:"storage"`
	Output    OutputConfig    `yaml:"output"`
	Server    ServerConfig    `yaml:"server"`
}

// DataConfig locates and bounds the input price series.
type DataConfig struct {
	Symbols []string `yaml:"symbols"`
	CSVDir  string   `yaml:"csv_dir"`
	From    string   `yaml:"from"` // inclusive, "2006-01-02" or RFC3339; empty = unbounded
	To      string   `yaml:"to"`
}

// ModelsConfig selects the model set and analysis settings.
type ModelsConfig struct {
	Families        []string `yaml:"families"` // empty selects every family
	DiagnosticLag   int      `yaml:"diagnostic_lag"`
	ForecastHorizon int      `yaml:"forecast_horizon"`
	Parallel        bool     `yaml:"parallel"`
}

// OptimizerConfig overrides the Nelder-Mead budget and tolerances.
type OptimizerConfig struct {
	MaxIterations int     `yaml:"max_iterations"`
	TolF          float64 `yaml:"tol_f"`
	TolX          float64 `yaml:"tol_x"`
}

// BacktestConfig parameterizes walk-forward forecast evaluation.
type BacktestConfig struct {
	MinTrainObs int `yaml:"min_train_obs"`
	RefitEvery  int `yaml:"refit_every"`
}

// StorageConfig carries backend DSNs. An empty DSN selects the
// in-memory store for that backend.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// OutputConfig controls where report files land.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// ServerConfig controls the long-running refit server.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	RefitInterval string `yaml:"refit_interval"`
}

// Load reads configuration from a YAML file, then applies environment
// overrides and defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns the configuration used when no file is given:
// environment overrides plus defaults over a zero config.
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("VOLLAB_POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("VOLLAB_CLICKHOUSE_DSN"); v != "" {
		c.Storage.ClickhouseDSN = v
	}
}

func (c *Config) applyDefaults() {
	if c.Models.ForecastHorizon == 0 {
		c.Models.ForecastHorizon = 10
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "reports"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RefitInterval == "" {
		c.Server.RefitInterval = "24h"
	}
}

// Validate checks field sanity and cross-field consistency.
func (c *Config) Validate() error {
	if len(c.Data.Symbols) == 0 {
		return fmt.Errorf("data.symbols is required")
	}
	for i, symbol := range c.Data.Symbols {
		if strings.TrimSpace(symbol) == "" {
			return fmt.Errorf("data.symbols[%d] is empty", i)
		}
	}
	from, to, err := c.Data.Range()
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return fmt.Errorf("data.to %s is before data.from %s", c.Data.To, c.Data.From)
	}

	if _, err := c.Models.Specs(); err != nil {
		return err
	}
	if c.Models.DiagnosticLag < 0 {
		return fmt.Errorf("models.diagnostic_lag must not be negative")
	}
	if c.Models.ForecastHorizon < 1 {
		return fmt.Errorf("models.forecast_horizon must be at least 1")
	}

	if c.Optimizer.MaxIterations < 0 {
		return fmt.Errorf("optimizer.max_iterations must not be negative")
	}
	if c.Optimizer.TolF < 0 || c.Optimizer.TolX < 0 {
		return fmt.Errorf("optimizer tolerances must not be negative")
	}

	if c.Backtest.MinTrainObs < 0 {
		return fmt.Errorf("backtest.min_train_obs must not be negative")
	}
	if c.Backtest.RefitEvery < 0 {
		return fmt.Errorf("backtest.refit_every must not be negative")
	}

	if _, err := c.Server.Interval(); err != nil {
		return err
	}
	return nil
}

// Range parses the configured date bounds. A zero time means unbounded
// on that side.
func (d *DataConfig) Range() (from, to time.Time, err error) {
	if d.From != "" {
		from, err = parseDate(d.From)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("data.from: %w", err)
		}
	}
	if d.To != "" {
		to, err = parseDate(d.To)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("data.to: %w", err)
		}
	}
	return from, to, nil
}

// Specs resolves the configured family names into model specs. An empty
// list selects every family.
func (m *ModelsConfig) Specs() ([]domain.ModelSpec, error) {
	if len(m.Families) == 0 {
		return domain.DefaultSpecs(), nil
	}
	specs := make([]domain.ModelSpec, 0, len(m.Families))
	for _, name := range m.Families {
		family, err := parseFamily(name)
		if err != nil {
			return nil, fmt.Errorf("models.families: %w", err)
		}
		specs = append(specs, domain.ModelSpec{Family: family, P: 1, Q: 1, Dist: domain.DistNormal})
	}
	return specs, nil
}

// Interval parses the refit interval.
func (s *ServerConfig) Interval() (time.Duration, error) {
	d, err := time.ParseDuration(s.RefitInterval)
	if err != nil {
		return 0, fmt.Errorf("server.refit_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("server.refit_interval must be positive")
	}
	return d, nil
}

func parseFamily(name string) (domain.ModelFamily, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "GARCH":
		return domain.FamilyGARCH, nil
	case "EGARCH":
		return domain.FamilyEGARCH, nil
	case "GJR-GARCH", "GJR":
		return domain.FamilyGJRGARCH, nil
	}
	return "", fmt.Errorf("unknown model family %q", name)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return t.UTC(), nil
}
