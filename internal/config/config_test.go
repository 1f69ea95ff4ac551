package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-pricer/internal/batch"
	"github.com/contactkeval/option-pricer/internal/data"
	"github.com/contactkeval/option-pricer/internal/logger"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 100.0, cfg.Underlying.Spot)
	assert.Equal(t, 0.05, cfg.Market.Rate)
	assert.Equal(t, 1_000_000, cfg.Generator.Count)
	assert.Equal(t, "0.6 * spot", cfg.Generator.StrikeMin)
	assert.Equal(t, batch.DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, "reports", cfg.ReportDir)
	assert.Equal(t, int(logger.Info), cfg.Verbosity)
	assert.False(t, cfg.Greeks)
}

func TestLoadYAMLOverlaysDefaults(t *testing.T) {
	path := writeFile(t, "run.yaml", `
underlying:
  symbol: SPX
  spot: 4500
market:
  rate: -0.01
generator:
  count: 500
  strike_distribution: lognormal
workers: 3
greeks: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "SPX", cfg.Underlying.Symbol)
	assert.Equal(t, 4500.0, cfg.Underlying.Spot)
	assert.Equal(t, -0.01, cfg.Market.Rate)
	assert.Equal(t, 500, cfg.Generator.Count)
	assert.Equal(t, data.LognormalStrikes, cfg.Generator.StrikeDistribution)
	assert.Equal(t, "1.4 * spot", cfg.Generator.StrikeMax, "untouched keys keep defaults")
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.Greeks)
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, "run.yaml", "workers: [1, 2\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvOverrides(t *testing.T) {
	path := writeFile(t, "run.yaml", "workers: 3\nreport_dir: from-file\n")

	t.Setenv(EnvWorkers, "7")
	t.Setenv(EnvVerbosity, "3")
	t.Setenv(EnvReportDir, "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, 3, cfg.Verbosity)
	assert.Equal(t, "from-env", cfg.ReportDir)
}

func TestEnvOverrideRejectsGarbage(t *testing.T) {
	t.Setenv(EnvWorkers, "lots")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv(EnvReportDir, "")
	os.Unsetenv(EnvReportDir)

	path := writeFile(t, ".env", EnvReportDir+"=dotenv-dir\n")
	require.NoError(t, LoadEnvFile(path))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-dir", cfg.ReportDir)

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero spot", func(c *Config) { c.Underlying.Spot = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"negative chunk", func(c *Config) { c.ChunkSize = -1 }},
		{"negative preview", func(c *Config) { c.PreviewRows = -1 }},
		{"verbosity too high", func(c *Config) { c.Verbosity = 9 }},
		{"empty report dir", func(c *Config) { c.ReportDir = "" }},
		{"bad generator", func(c *Config) { c.Generator.IVMin = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidateSkipsGeneratorWithInput(t *testing.T) {
	cfg := Default()
	cfg.Generator.IVMin = 1
	cfg.Input = "contracts.csv"
	assert.NoError(t, cfg.Validate())
}

func TestBatchOptions(t *testing.T) {
	cfg := Default()
	cfg.Workers = 4
	cfg.Greeks = true

	opts := cfg.BatchOptions("run-1")
	assert.Equal(t, batch.Options{Workers: 4, ChunkSize: batch.DefaultChunkSize, Greeks: true, RunID: "run-1"}, opts)
}
