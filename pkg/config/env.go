package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variable names.
const (
	EnvAddress        = "ECHOD_ADDRESS"
	EnvReadTimeout    = "ECHOD_READ_TIMEOUT"
	EnvPollInterval   = "ECHOD_POLL_INTERVAL"
	EnvBufferSize     = "ECHOD_BUFFER_SIZE"
	EnvMaxConnections = "ECHOD_MAX_CONNECTIONS"
	EnvMetricsAddress = "ECHOD_METRICS_ADDRESS"
	EnvLogLevel       = "ECHOD_LOG_LEVEL"
	EnvLogFormat      = "ECHOD_LOG_FORMAT"
)

// LoadEnv applies ECHOD_* environment variables to cfg.
// Only variables that are set and parse cleanly are applied.
func LoadEnv(cfg *Config) {
	if v := os.Getenv(EnvAddress); v != "" {
		cfg.Address = v
		cfg.setSource("address", SourceEnv)
	}

	if d, ok := envDuration(EnvReadTimeout); ok {
		cfg.ReadTimeout = d
		cfg.setSource("read_timeout", SourceEnv)
	}

	if d, ok := envDuration(EnvPollInterval); ok {
		cfg.PollInterval = d
		cfg.setSource("poll_interval", SourceEnv)
	}

	if n, ok := envInt(EnvBufferSize); ok {
		cfg.BufferSize = n
		cfg.setSource("buffer_size", SourceEnv)
	}

	if n, ok := envInt(EnvMaxConnections); ok {
		cfg.MaxConnections = n
		cfg.setSource("max_connections", SourceEnv)
	}

	if v := os.Getenv(EnvMetricsAddress); v != "" {
		cfg.MetricsAddress = v
		cfg.setSource("metrics_address", SourceEnv)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
		cfg.setSource("log.level", SourceEnv)
	}

	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
		cfg.setSource("log.format", SourceEnv)
	}
}

// envDuration accepts Go duration strings ("5s") or bare integers as seconds.
func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
