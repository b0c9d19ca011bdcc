package server

import (
	"time"

	"github.com/getmockd/echod/pkg/message"
	"github.com/getmockd/echod/pkg/metrics"
)

// Stats is a point-in-time snapshot of server activity.
type Stats struct {
	Accepted     int64 `json:"accepted"`
	Active       int64 `json:"active"`
	Echoed       int64 `json:"echoed"`
	Added        int64 `json:"added"`
	DecodeErrors int64 `json:"decodeErrors"`
	AcceptErrors int64 `json:"acceptErrors"`
}

// serverMetrics is the set of metrics one Server updates. Every field is
// safe for concurrent use, so handlers share it without locking.
type serverMetrics struct {
	accepted     *metrics.Counter
	active       *metrics.Gauge
	messages     *metrics.Counter
	decodeErrors *metrics.Counter
	acceptErrors *metrics.Counter
	duration     *metrics.Histogram
}

func newServerMetrics(r *metrics.Registry) *serverMetrics {
	return &serverMetrics{
		accepted: r.NewCounter("echod_connections_accepted_total",
			"Total number of accepted client connections."),
		active: r.NewGauge("echod_connections_active",
			"Number of connections currently being served."),
		messages: r.NewCounter("echod_messages_total",
			"Total number of messages answered, by envelope variant.", "type"),
		decodeErrors: r.NewCounter("echod_decode_errors_total",
			"Total number of reads that did not decode as a client message."),
		acceptErrors: r.NewCounter("echod_accept_errors_total",
			"Total number of failed accept calls, excluding poll timeouts."),
		duration: r.NewHistogram("echod_connection_duration_seconds",
			"Lifetime of served connections in seconds.", metrics.DefaultBuckets),
	}
}

func (m *serverMetrics) connOpened() {
	_ = m.accepted.Inc()
	_ = m.active.Inc()
}

func (m *serverMetrics) connClosed(lifetime time.Duration) {
	_ = m.active.Dec()
	m.duration.Observe(lifetime.Seconds())
}

func (m *serverMetrics) answered(kind message.Kind) {
	_ = m.messages.Inc(string(kind))
}

func (m *serverMetrics) snapshot() Stats {
	return Stats{
		Accepted:     int64(m.accepted.Value()),
		Active:       int64(m.active.Value()),
		Echoed:       int64(m.messages.Value(string(message.KindEcho))),
		Added:        int64(m.messages.Value(string(message.KindAddRequest))),
		DecodeErrors: int64(m.decodeErrors.Value()),
		AcceptErrors: int64(m.acceptErrors.Value()),
	}
}
