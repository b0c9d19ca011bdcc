package metrics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrLabelCountMismatch is returned when the number of label values doesn't match the defined labels.
var ErrLabelCountMismatch = errors.New("label count mismatch")

// ErrNegativeCounterValue is returned when attempting to add a negative value to a counter.
var ErrNegativeCounterValue = errors.New("counter cannot be decreased")

// ErrDuplicateMetric is returned when registering a metric with a name that is already registered.
var ErrDuplicateMetric = errors.New("duplicate metric name")

// atomicFloat64 stores the bits of a float64 in a uint64 for atomic access.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat64) Store(val float64) {
	a.bits.Store(math.Float64bits(val))
}

// Add atomically adds delta using a CAS loop.
func (a *atomicFloat64) Add(delta float64) {
	for {
		old := a.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if a.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// MetricType represents the type of a metric.
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// Metric is the interface implemented by all metric types.
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	// Collect returns all samples for exposition.
	Collect() []Sample
}

// Sample represents a single metric sample with labels.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// family is the label-keyed series store shared by counters and gauges.
type family struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	series     map[string]*series
}

type series struct {
	labels map[string]string
	value  atomicFloat64
}

func newFamily(name, help string, labelNames []string) *family {
	return &family{
		name:       name,
		help:       help,
		labelNames: labelNames,
		series:     make(map[string]*series),
	}
}

func (f *family) Name() string { return f.name }

func (f *family) Help() string { return f.help }

// lookup returns the series for values, creating it on first use.
func (f *family) lookup(kind MetricType, values []string) (*series, error) {
	if len(values) != len(f.labelNames) {
		return nil, fmt.Errorf("%w: %s %s expected %d labels, got %d", ErrLabelCountMismatch, kind, f.name, len(f.labelNames), len(values))
	}

	key := labelsKey(values)
	f.mu.RLock()
	s, ok := f.series[key]
	f.mu.RUnlock()
	if ok {
		return s, nil
	}

	labels := make(map[string]string, len(f.labelNames))
	for i, name := range f.labelNames {
		labels[name] = values[i]
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok = f.series[key]; !ok {
		s = &series{labels: labels}
		f.series[key] = s
	}
	return s, nil
}

// value returns the current value for values, or 0 if the series was never touched.
func (f *family) value(values []string) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if s, ok := f.series[labelsKey(values)]; ok {
		return s.value.Load()
	}
	return 0
}

func (f *family) collect() []Sample {
	f.mu.RLock()
	defer f.mu.RUnlock()

	samples := make([]Sample, 0, len(f.series))
	for _, s := range f.series {
		samples = append(samples, Sample{Name: f.name, Labels: s.labels, Value: s.value.Load()})
	}
	sort.Slice(samples, func(i, j int) bool {
		return formatLabels(samples[i].Labels) < formatLabels(samples[j].Labels)
	})
	return samples
}

// Counter is a monotonically increasing metric.
type Counter struct {
	*family
}

// Type returns MetricTypeCounter.
func (c *Counter) Type() MetricType { return MetricTypeCounter }

// Add adds delta to the series identified by labels.
// Returns an error if delta is negative or the label count is wrong.
func (c *Counter) Add(delta float64, labels ...string) error {
	if delta < 0 {
		return fmt.Errorf("%w: counter %s", ErrNegativeCounterValue, c.name)
	}
	s, err := c.lookup(MetricTypeCounter, labels)
	if err != nil {
		return err
	}
	s.value.Add(delta)
	return nil
}

// Inc increments the series identified by labels by 1.
func (c *Counter) Inc(labels ...string) error {
	return c.Add(1, labels...)
}

// Value returns the current value of the series identified by labels.
func (c *Counter) Value(labels ...string) float64 {
	return c.value(labels)
}

// Collect returns all metric samples.
func (c *Counter) Collect() []Sample {
	return c.collect()
}

// Gauge is a metric that can arbitrarily go up and down.
type Gauge struct {
	*family
}

// Type returns MetricTypeGauge.
func (g *Gauge) Type() MetricType { return MetricTypeGauge }

// Set sets the series identified by labels to value.
func (g *Gauge) Set(value float64, labels ...string) error {
	s, err := g.lookup(MetricTypeGauge, labels)
	if err != nil {
		return err
	}
	s.value.Store(value)
	return nil
}

// Add adds delta, which may be negative, to the series identified by labels.
func (g *Gauge) Add(delta float64, labels ...string) error {
	s, err := g.lookup(MetricTypeGauge, labels)
	if err != nil {
		return err
	}
	s.value.Add(delta)
	return nil
}

// Inc increments the series identified by labels by 1.
func (g *Gauge) Inc(labels ...string) error { return g.Add(1, labels...) }

// Dec decrements the series identified by labels by 1.
func (g *Gauge) Dec(labels ...string) error { return g.Add(-1, labels...) }

// Value returns the current value of the series identified by labels.
func (g *Gauge) Value(labels ...string) float64 {
	return g.value(labels)
}

// Collect returns all metric samples.
func (g *Gauge) Collect() []Sample {
	return g.collect()
}

// GaugeFunc is an unlabeled gauge whose value is computed at collection time.
type GaugeFunc struct {
	name string
	help string
	fn   func() float64
}

func (g *GaugeFunc) Name() string     { return g.name }
func (g *GaugeFunc) Help() string     { return g.help }
func (g *GaugeFunc) Type() MetricType { return MetricTypeGauge }

// Collect calls the underlying function once.
func (g *GaugeFunc) Collect() []Sample {
	return []Sample{{Name: g.name, Value: g.fn()}}
}

// Histogram tracks the distribution of observed values in cumulative buckets.
// Histograms are unlabeled.
type Histogram struct {
	name    string
	help    string
	buckets []float64 // upper bounds, ascending, ending in +Inf
	counts  []atomic.Uint64
	sum     atomicFloat64
	count   atomic.Uint64
}

func newHistogram(name, help string, buckets []float64) *Histogram {
	sorted := make([]float64, len(buckets))
	copy(sorted, buckets)
	sort.Float64s(sorted)
	if len(sorted) == 0 || !math.IsInf(sorted[len(sorted)-1], 1) {
		sorted = append(sorted, math.Inf(1))
	}
	return &Histogram{
		name:    name,
		help:    help,
		buckets: sorted,
		counts:  make([]atomic.Uint64, len(sorted)),
	}
}

func (h *Histogram) Name() string     { return h.name }
func (h *Histogram) Help() string     { return h.help }
func (h *Histogram) Type() MetricType { return MetricTypeHistogram }

// Observe records a value.
func (h *Histogram) Observe(value float64) {
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i].Add(1)
			break
		}
	}
	h.sum.Add(value)
	h.count.Add(1)
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	return h.count.Load()
}

// Collect returns the bucket, _sum and _count samples.
func (h *Histogram) Collect() []Sample {
	samples := make([]Sample, 0, len(h.buckets)+2)
	var cumulative uint64
	for i, bound := range h.buckets {
		cumulative += h.counts[i].Load()
		le := "+Inf"
		if !math.IsInf(bound, 1) {
			le = formatFloat(bound)
		}
		samples = append(samples, Sample{
			Name:   h.name + "_bucket",
			Labels: map[string]string{"le": le},
			Value:  float64(cumulative),
		})
	}
	samples = append(samples,
		Sample{Name: h.name + "_sum", Value: h.sum.Load()},
		Sample{Name: h.name + "_count", Value: float64(h.count.Load())},
	)
	return samples
}

// Registry holds all registered metrics.
type Registry struct {
	mu      sync.RWMutex
	metrics []Metric
	names   map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// NewCounter creates and registers a new counter.
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	c := &Counter{newFamily(name, help, labels)}
	r.register(c)
	return c
}

// NewGauge creates and registers a new gauge.
func (r *Registry) NewGauge(name, help string, labels ...string) *Gauge {
	g := &Gauge{newFamily(name, help, labels)}
	r.register(g)
	return g
}

// NewGaugeFunc registers a gauge computed by fn on every collection.
func (r *Registry) NewGaugeFunc(name, help string, fn func() float64) *GaugeFunc {
	g := &GaugeFunc{name: name, help: help, fn: fn}
	r.register(g)
	return g
}

// NewHistogram creates and registers a new histogram with the given buckets.
func (r *Registry) NewHistogram(name, help string, buckets []float64) *Histogram {
	h := newHistogram(name, help, buckets)
	r.register(h)
	return h
}

// register panics on duplicate names, since they produce invalid exposition output.
func (r *Registry) register(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[m.Name()]; exists {
		panic(fmt.Sprintf("%s: %s", ErrDuplicateMetric, m.Name()))
	}
	r.names[m.Name()] = struct{}{}
	r.metrics = append(r.metrics, m)
}

// WriteText writes every metric in Prometheus text format.
func (r *Registry) WriteText(w io.Writer) error {
	r.mu.RLock()
	metrics := make([]Metric, len(r.metrics))
	copy(metrics, r.metrics)
	r.mu.RUnlock()

	for _, m := range metrics {
		if err := writeMetric(w, m); err != nil {
			return err
		}
	}
	return nil
}

// Handler returns an http.Handler that serves the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_ = r.WriteText(w)
	})
}

func writeMetric(w io.Writer, m Metric) error {
	samples := m.Collect()
	if len(samples) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", m.Name(), escapeHelp(m.Help()), m.Name(), m.Type()); err != nil {
		return err
	}
	for _, s := range samples {
		var err error
		if len(s.Labels) == 0 {
			_, err = fmt.Fprintf(w, "%s %s\n", s.Name, formatFloat(s.Value))
		} else {
			_, err = fmt.Fprintf(w, "%s{%s} %s\n", s.Name, formatLabels(s.Labels), formatFloat(s.Value))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// formatLabels formats labels as key="value",key="value" in key order.
func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + `="` + escapeLabelValue(labels[k]) + `"`
	}
	return strings.Join(parts, ",")
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%g", v)
	}
}

func escapeHelp(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return strings.ReplaceAll(s, "\n", "\\n")
}

func escapeLabelValue(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return strings.ReplaceAll(s, "\n", "\\n")
}

func labelsKey(values []string) string {
	return strings.Join(values, "\x00")
}
