// Package metrics provides Prometheus-compatible metrics collection for echod.
//
// It implements the Prometheus text exposition format (text/plain;
// version=0.0.4) directly. Supported types:
//   - Counter: monotonically increasing value, optionally labeled
//   - Gauge: value that can go up or down, optionally labeled
//   - GaugeFunc: gauge sampled from a callback at collection time
//   - Histogram: unlabeled distribution with fixed buckets
//
// All metrics are safe for concurrent use.
//
//	reg := metrics.NewRegistry()
//	accepted := reg.NewCounter("echod_connections_accepted_total", "Accepted connections.")
//	_ = accepted.Inc()
//	http.Handle("/metrics", reg.Handler())
package metrics
