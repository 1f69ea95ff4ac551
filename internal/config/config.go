// Package config loads batch run settings.
//
// Values are layered: built-in defaults, then the YAML run file, then
// environment variables (optionally seeded from a .env file). Command line
// flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/contactkeval/option-pricer/internal/batch"
	"github.com/contactkeval/option-pricer/internal/data"
	"github.com/contactkeval/option-pricer/internal/logger"
	"github.com/contactkeval/option-pricer/internal/models"
)

const (
	EnvWorkers   = "OPTION_PRICER_WORKERS"
	EnvVerbosity = "OPTION_PRICER_VERBOSITY"
	EnvReportDir = "OPTION_PRICER_REPORT_DIR"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config describes one batch run.
type Config struct {
	Underlying  models.Underlying   `yaml:"underlying"`
	Market      models.MarketParams `yaml:"market"`
	Generator   data.GeneratorSpec  `yaml:"generator"`
	Input       string              `yaml:"input"` // contracts CSV; empty means generate
	Workers     int                 `yaml:"workers"`
	ChunkSize   int                 `yaml:"chunk_size"`
	Greeks      bool                `yaml:"greeks"`
	ReportDir   string              `yaml:"report_dir"`
	PreviewRows int                 `yaml:"preview_rows"`
	Verbosity   int                 `yaml:"verbosity"`
}

// Default returns the benchmark run: one million generated contracts on a
// spot of 100 at a 5% rate.
func Default() *Config {
	return &Config{
		Underlying:  models.Underlying{Symbol: "SYN", Spot: 100},
		Market:      models.MarketParams{Rate: 0.05, Volatility: 0.2},
		Generator:   data.DefaultGeneratorSpec(),
		ChunkSize:   batch.DefaultChunkSize,
		ReportDir:   "reports",
		PreviewRows: 10,
		Verbosity:   int(logger.Info),
	}
}

// Load builds a Config from the defaults, the YAML file at path (skipped when
// path is empty) and the environment. Keys absent from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error. Variables already set are left alone.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s file: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvWorkers, v)
		}
		c.Workers = n
	}
	if v, ok := lookup(EnvVerbosity); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvVerbosity, v)
		}
		c.Verbosity = n
	}
	if v, ok := lookup(EnvReportDir); ok {
		c.ReportDir = v
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Validate reports the first setting a run cannot use.
func (c *Config) Validate() error {
	switch {
	case c.Underlying.Spot <= 0:
		return fmt.Errorf("%w: spot must be positive, got %v", ErrInvalidConfig, c.Underlying.Spot)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	case c.ChunkSize < 0:
		return fmt.Errorf("%w: chunk_size must not be negative, got %d", ErrInvalidConfig, c.ChunkSize)
	case c.PreviewRows < 0:
		return fmt.Errorf("%w: preview_rows must not be negative, got %d", ErrInvalidConfig, c.PreviewRows)
	case c.Verbosity < int(logger.Error) || c.Verbosity > int(logger.Trace):
		return fmt.Errorf("%w: verbosity must be in [%d,%d], got %d", ErrInvalidConfig, logger.Error, logger.Trace, c.Verbosity)
	case c.ReportDir == "":
		return fmt.Errorf("%w: report_dir is empty", ErrInvalidConfig)
	}

	if c.Input == "" {
		if err := c.Generator.Validate(); err != nil {
			return fmt.Errorf("%w: generator: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// BatchOptions maps the run settings onto batch.Options.
func (c *Config) BatchOptions(runID string) batch.Options {
	return batch.Options{
		Workers:   c.Workers,
		ChunkSize: c.ChunkSize,
		Greeks:    c.Greeks,
		RunID:     runID,
	}
}
