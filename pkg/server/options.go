package server

import (
	"log/slog"
	"time"

	"github.com/getmockd/echod/pkg/metrics"
)

// Defaults applied when an option is not given or is not positive.
const (
	DefaultReadTimeout  = 5 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
	DefaultBufferSize   = 512
)

type options struct {
	log            *slog.Logger
	readTimeout    time.Duration
	pollInterval   time.Duration
	bufferSize     int
	maxConnections int
	registry       *metrics.Registry
}

func defaultOptions() options {
	return options{
		readTimeout:  DefaultReadTimeout,
		pollInterval: DefaultPollInterval,
		bufferSize:   DefaultBufferSize,
	}
}

// Option configures a Server.
type Option func(*options)

// WithLogger sets the operational logger. A nil logger discards output.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithReadTimeout sets how long each connection may wait for its next read.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.readTimeout = d
		}
	}
}

// WithPollInterval sets how long one accept attempt waits for a pending
// connection. It bounds how quickly Run notices Stop.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithBufferSize sets the per-connection read buffer size, which is also the
// largest message a client can send.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithMaxConnections caps the number of connections served at once. Accepting
// pauses while the cap is reached. 0 leaves the server unbounded.
func WithMaxConnections(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxConnections = n
		}
	}
}

// WithMetrics registers the server's metrics in r instead of a private
// registry. A registry can back only one Server.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}
