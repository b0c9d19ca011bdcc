package metrics

// DefaultBuckets are histogram buckets for connection lifetimes, in seconds.
// They span sub-second probes up to clients idling into the read timeout.
var DefaultBuckets = []float64{
	0.01,
	0.05,
	0.1,
	0.5,
	1,
	2.5,
	5,
	10,
	30,
	60,
	300,
}
