package metrics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"sort"
	"strconv"
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

// Sample is a single exposed value.
type Sample struct {
	Name   string
	Labels []Label
	Value  float64
}

// Label is a name/value pair attached to a sample.
type Label struct {
	Name, Value string
}

// family holds one child value per label combination.
type family[T any] struct {
	name       string
	help       string
	labelNames []string
	newChild   func() *T

	mu       sync.RWMutex
	children map[string]*T
	labels   map[string][]Label
}

func newFamily[T any](name, help string, labelNames []string, newChild func() *T) *family[T] {
	return &family[T]{
		name:       name,
		help:       help,
		labelNames: labelNames,
		newChild:   newChild,
		children:   make(map[string]*T),
		labels:     make(map[string][]Label),
	}
}

func (f *family[T]) Name() string { return f.name }
func (f *family[T]) Help() string { return f.help }

// child returns the value for the given label values, creating it on first use.
func (f *family[T]) child(values []string) (*T, error) {
	if len(values) != len(f.labelNames) {
		return nil, fmt.Errorf("%w: %s expected %d labels, got %d", ErrLabelCountMismatch, f.name, len(f.labelNames), len(values))
	}
	key := strings.Join(values, "\x00")

	f.mu.RLock()
	c, ok := f.children[key]
	f.mu.RUnlock()
	if ok {
		return c, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok = f.children[key]; ok {
		return c, nil
	}
	labels := make([]Label, len(values))
	for i, v := range values {
		labels[i] = Label{Name: f.labelNames[i], Value: v}
	}
	c = f.newChild()
	f.children[key] = c
	f.labels[key] = labels
	return c, nil
}

// each calls fn for every child in label order.
func (f *family[T]) each(fn func(labels []Label, c *T)) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	keys := make([]string, 0, len(f.children))
	for k := range f.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fn(f.labels[k], f.children[k])
	}
}

// Counter is a monotonically increasing metric.
type Counter struct {
	*family[atomicFloat64]
}

// Type returns the metric type.
func (c *Counter) Type() MetricType { return MetricTypeCounter }

// WithLabels returns the counter for the given label values.
func (c *Counter) WithLabels(values ...string) (*CounterVec, error) {
	v, err := c.child(values)
	if err != nil {
		return nil, err
	}
	return &CounterVec{v: v}, nil
}

// Inc increments an unlabelled counter.
func (c *Counter) Inc() error {
	return c.Add(1)
}

// Add adds delta to an unlabelled counter.
func (c *Counter) Add(delta float64) error {
	vec, err := c.WithLabels()
	if err != nil {
		return err
	}
	return vec.Add(delta)
}

// Collect returns all metric samples.
func (c *Counter) Collect() []Sample {
	var samples []Sample
	c.each(func(labels []Label, v *atomicFloat64) {
		samples = append(samples, Sample{Name: c.name, Labels: labels, Value: v.Load()})
	})
	return samples
}

// CounterVec is a counter bound to one label combination.
type CounterVec struct {
	v *atomicFloat64
}

// Inc increments the counter by 1.
func (v *CounterVec) Inc() {
	v.v.Add(1)
}

// Add adds delta, which must not be negative.
func (v *CounterVec) Add(delta float64) error {
	if delta < 0 {
		return ErrNegativeCounterValue
	}
	v.v.Add(delta)
	return nil
}

// Gauge is a metric that can go up and down.
type Gauge struct {
	*family[atomicFloat64]
}

// Type returns the metric type.
func (g *Gauge) Type() MetricType { return MetricTypeGauge }

// WithLabels returns the gauge for the given label values.
func (g *Gauge) WithLabels(values ...string) (*GaugeVec, error) {
	v, err := g.child(values)
	if err != nil {
		return nil, err
	}
	return &GaugeVec{v: v}, nil
}

// Set sets an unlabelled gauge.
func (g *Gauge) Set(value float64) error {
	vec, err := g.WithLabels()
	if err != nil {
		return err
	}
	vec.Set(value)
	return nil
}

// Collect returns all metric samples.
func (g *Gauge) Collect() []Sample {
	var samples []Sample
	g.each(func(labels []Label, v *atomicFloat64) {
		samples = append(samples, Sample{Name: g.name, Labels: labels, Value: v.Load()})
	})
	return samples
}

// GaugeVec is a gauge bound to one label combination.
type GaugeVec struct {
	v *atomicFloat64
}

func (v *GaugeVec) Set(value float64) { v.v.Store(value) }
func (v *GaugeVec) Inc()              { v.v.Add(1) }
func (v *GaugeVec) Dec()              { v.v.Add(-1) }
func (v *GaugeVec) Add(delta float64) { v.v.Add(delta) }

// GaugeFunc is an unlabelled gauge whose value is computed at scrape time.
type GaugeFunc struct {
	name string
	help string
	fn   func() float64
}

func (g *GaugeFunc) Name() string     { return g.name }
func (g *GaugeFunc) Help() string     { return g.help }
func (g *GaugeFunc) Type() MetricType { return MetricTypeGauge }

// Collect returns the current value.
func (g *GaugeFunc) Collect() []Sample {
	return []Sample{{Name: g.name, Value: g.fn()}}
}

// Histogram tracks the distribution of observed values.
type Histogram struct {
	*family[histogramValue]
	buckets []float64
}

type histogramValue struct {
	counts []atomic.Uint64 // per bucket, not cumulative
	sum    atomicFloat64
	count  atomic.Uint64
}

// Type returns the metric type.
func (h *Histogram) Type() MetricType { return MetricTypeHistogram }

// WithLabels returns the histogram for the given label values.
func (h *Histogram) WithLabels(values ...string) (*HistogramVec, error) {
	v, err := h.child(values)
	if err != nil {
		return nil, err
	}
	return &HistogramVec{h: h, v: v}, nil
}

// Observe records a value in an unlabelled histogram.
func (h *Histogram) Observe(value float64) error {
	vec, err := h.WithLabels()
	if err != nil {
		return err
	}
	vec.Observe(value)
	return nil
}

// Collect returns the cumulative bucket, sum and count samples.
func (h *Histogram) Collect() []Sample {
	var samples []Sample
	h.each(func(labels []Label, v *histogramValue) {
		var cumulative uint64
		for i, bound := range h.buckets {
			cumulative += v.counts[i].Load()
			le := "+Inf"
			if !math.IsInf(bound, 1) {
				le = formatFloat(bound)
			}
			samples = append(samples, Sample{
				Name:   h.name + "_bucket",
				Labels: append(slices.Clip(labels), Label{Name: "le", Value: le}),
				Value:  float64(cumulative),
			})
		}
		samples = append(samples,
			Sample{Name: h.name + "_sum", Labels: labels, Value: v.sum.Load()},
			Sample{Name: h.name + "_count", Labels: labels, Value: float64(v.count.Load())},
		)
	})
	return samples
}

// HistogramVec is a histogram bound to one label combination.
type HistogramVec struct {
	h *Histogram
	v *histogramValue
}

// Observe records a value.
func (v *HistogramVec) Observe(value float64) {
	for i, bound := range v.h.buckets {
		if value <= bound {
			v.v.counts[i].Add(1)
			break
		}
	}
	v.v.sum.Add(value)
	v.v.count.Add(1)
}

// Registry holds the metrics of one server.
type Registry struct {
	mu      sync.RWMutex
	metrics []Metric
	names   map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// NewCounter creates and registers a counter.
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	c := &Counter{newFamily(name, help, labels, func() *atomicFloat64 { return &atomicFloat64{} })}
	r.register(c)
	return c
}

// NewGauge creates and registers a gauge.
func (r *Registry) NewGauge(name, help string, labels ...string) *Gauge {
	g := &Gauge{newFamily(name, help, labels, func() *atomicFloat64 { return &atomicFloat64{} })}
	r.register(g)
	return g
}

// NewGaugeFunc creates and registers a gauge read from fn at scrape time.
func (r *Registry) NewGaugeFunc(name, help string, fn func() float64) *GaugeFunc {
	g := &GaugeFunc{name: name, help: help, fn: fn}
	r.register(g)
	return g
}

// NewHistogram creates and registers a histogram. A +Inf bucket is added
// when missing.
func (r *Registry) NewHistogram(name, help string, buckets []float64, labels ...string) *Histogram {
	sorted := slices.Clone(buckets)
	slices.Sort(sorted)
	if len(sorted) == 0 || !math.IsInf(sorted[len(sorted)-1], 1) {
		sorted = append(sorted, math.Inf(1))
	}
	h := &Histogram{buckets: sorted}
	h.family = newFamily(name, help, labels, func() *histogramValue {
		return &histogramValue{counts: make([]atomic.Uint64, len(sorted))}
	})
	r.register(h)
	return h
}

// register panics on a duplicate name, since duplicates produce invalid
// exposition output.
func (r *Registry) register(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[m.Name()]; exists {
		panic(fmt.Sprintf("%s: %s", ErrDuplicateMetric, m.Name()))
	}
	r.names[m.Name()] = struct{}{}
	r.metrics = append(r.metrics, m)
}

// WriteTo writes every metric in the Prometheus text format.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	r.mu.RLock()
	metrics := slices.Clone(r.metrics)
	r.mu.RUnlock()

	var b strings.Builder
	for _, m := range metrics {
		samples := m.Collect()
		if len(samples) == 0 {
			continue
		}
		fmt.Fprintf(&b, "# HELP %s %s\n", m.Name(), escapeHelp(m.Help()))
		fmt.Fprintf(&b, "# TYPE %s %s\n", m.Name(), m.Type())
		for _, s := range samples {
			b.WriteString(s.Name)
			if len(s.Labels) > 0 {
				b.WriteByte('{')
				for i, l := range s.Labels {
					if i > 0 {
						b.WriteByte(',')
					}
					b.WriteString(l.Name + `="` + escapeLabelValue(l.Value) + `"`)
				}
				b.WriteByte('}')
			}
			b.WriteString(" " + formatFloat(s.Value) + "\n")
		}
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Handler returns an http.Handler serving the registry.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = r.WriteTo(w)
	})
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func escapeHelp(s string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(s)
}

func escapeLabelValue(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s)
}

// DefaultBuckets are the histogram buckets for request durations in seconds.
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
