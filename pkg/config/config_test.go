package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/echod/pkg/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "echod.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "localhost:8080", cfg.Address)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 512, cfg.BufferSize)
	assert.Zero(t, cfg.MaxConnections)
	assert.Empty(t, cfg.MetricsAddress)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, SourceDefault, cfg.Source("address"))
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
address: 0.0.0.0:9000
read_timeout: 2s
poll_interval: 50ms
buffer_size: 1024
max_connections: 16
metrics_address: 127.0.0.1:9090
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9000", cfg.Address)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 1024, cfg.BufferSize)
	assert.Equal(t, 16, cfg.MaxConnections)
	assert.Equal(t, "127.0.0.1:9090", cfg.MetricsAddress)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, SourceFile, cfg.Source("address"))
	assert.Equal(t, SourceFile, cfg.Source("log.level"))
}

func TestLoadFilePartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "address: 127.0.0.1:7000\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.Address)
	assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
	assert.Equal(t, DefaultBufferSize, cfg.BufferSize)
	assert.Equal(t, SourceDefault, cfg.Source("read_timeout"))
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultAddress, cfg.Address)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "address: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "adress: typo:8080\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeConfig(t, "read_timeout: 5\n"))
	assert.Error(t, err, "durations need a unit")
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(EnvAddress, "127.0.0.1:6000")
	t.Setenv(EnvReadTimeout, "3")
	t.Setenv(EnvPollInterval, "20ms")
	t.Setenv(EnvBufferSize, "256")
	t.Setenv(EnvMaxConnections, "not-a-number")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogFormat, "json")

	path := writeConfig(t, "address: 0.0.0.0:9000\nmax_connections: 4\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6000", cfg.Address, "env overrides file")
	assert.Equal(t, SourceEnv, cfg.Source("address"))
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 20*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 256, cfg.BufferSize)
	assert.Equal(t, 4, cfg.MaxConnections, "unparseable env values are ignored")
	assert.Equal(t, SourceFile, cfg.Source("max_connections"))

	lc := cfg.LoggingConfig()
	assert.Equal(t, logging.LevelWarn, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing address", func(c *Config) { c.Address = "" }, "address is required"},
		{"address without port", func(c *Config) { c.Address = "localhost" }, "address"},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }, "read_timeout"},
		{"negative poll interval", func(c *Config) { c.PollInterval = -time.Second }, "poll_interval"},
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }, "buffer_size"},
		{"negative max connections", func(c *Config) { c.MaxConnections = -1 }, "max_connections"},
		{"bad metrics address", func(c *Config) { c.MetricsAddress = "nope" }, "metrics_address"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "yaml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Address = ""
	cfg.BufferSize = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address is required")
	assert.Contains(t, err.Error(), "buffer_size")
}

func TestMarkFlag(t *testing.T) {
	cfg := Default()
	cfg.Address = "127.0.0.1:1234"
	cfg.MarkFlag("address")

	assert.Equal(t, SourceFlag, cfg.Source("address"))
	assert.Equal(t, SourceDefault, cfg.Source("buffer_size"))
}
