package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/getmockd/echod/pkg/logging"
)

// Defaults.
const (
	DefaultAddress      = "localhost:8080"
	DefaultReadTimeout  = 5 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
	DefaultBufferSize   = 512
)

// Config is the complete echod server configuration.
type Config struct {
	// Address is the host:port the server binds to.
	Address string `yaml:"address"`

	// ReadTimeout bounds how long a connection may sit idle between reads.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// PollInterval is how long the accept loop waits for a pending connection
	// before re-checking whether it should keep running.
	PollInterval time.Duration `yaml:"poll_interval"`

	// BufferSize is the size of the per-connection read buffer. One read is
	// treated as one message, so it also caps the message size.
	BufferSize int `yaml:"buffer_size"`

	// MaxConnections caps concurrently served connections. 0 means unbounded.
	MaxConnections int `yaml:"max_connections"`

	// MetricsAddress, when set, serves Prometheus metrics over HTTP.
	MetricsAddress string `yaml:"metrics_address"`

	Log LogConfig `yaml:"log"`

	// Sources records where each non-default value came from.
	Sources map[string]string `yaml:"-"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Value sources.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Address:      DefaultAddress,
		ReadTimeout:  DefaultReadTimeout,
		PollInterval: DefaultPollInterval,
		BufferSize:   DefaultBufferSize,
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
		Sources: make(map[string]string),
	}
}

// Validate checks every field and returns all problems joined together.
func (c *Config) Validate() error {
	var errs []error

	if c.Address == "" {
		errs = append(errs, errors.New("address is required"))
	} else if _, _, err := net.SplitHostPort(c.Address); err != nil {
		errs = append(errs, fmt.Errorf("address %q: %w", c.Address, err))
	}
	if c.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("read_timeout must be positive, got %s", c.ReadTimeout))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if c.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("buffer_size must be positive, got %d", c.BufferSize))
	}
	if c.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("max_connections must not be negative, got %d", c.MaxConnections))
	}
	if c.MetricsAddress != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddress); err != nil {
			errs = append(errs, fmt.Errorf("metrics_address %q: %w", c.MetricsAddress, err))
		}
	}
	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if !logging.ValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// LoggingConfig converts the log section into a logging.Config.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	cfg.Format = logging.ParseFormat(c.Log.Format)
	return cfg
}

func (c *Config) setSource(key, source string) {
	if c.Sources == nil {
		c.Sources = make(map[string]string)
	}
	c.Sources[key] = source
}

// MarkFlag records that key was overridden by a command-line flag.
func (c *Config) MarkFlag(key string) {
	c.setSource(key, SourceFlag)
}

// Source reports where the value for key came from.
func (c *Config) Source(key string) string {
	if s, ok := c.Sources[key]; ok {
		return s
	}
	return SourceDefault
}
