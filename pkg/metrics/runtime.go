package metrics

import (
	"runtime"
	"time"
)

// RegisterRuntime adds Go runtime gauges to r. Values are sampled on every
// collection, so goroutine counts track per-connection handlers live.
func RegisterRuntime(r *Registry) {
	start := time.Now()

	r.NewGaugeFunc("go_goroutines", "Number of goroutines that currently exist.", func() float64 {
		return float64(runtime.NumGoroutine())
	})
	r.NewGaugeFunc("go_memstats_heap_alloc_bytes", "Number of heap bytes allocated and still in use.", func() float64 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return float64(ms.HeapAlloc)
	})
	r.NewGaugeFunc("process_uptime_seconds", "Seconds since the metrics registry was created.", func() float64 {
		return time.Since(start).Seconds()
	})
}
