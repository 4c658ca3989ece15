package metrics

import (
	"strconv"
	"time"
)

// ServerMetrics holds the metrics recorded by one stub server.
type ServerMetrics struct {
	Registry *Registry

	// RequestsTotal counts dispatched requests.
	// Labels: method, status, matched ("true" or "false")
	RequestsTotal *Counter

	// RequestDuration tracks dispatch latency in seconds, including any
	// configured response delay.
	// Labels: method
	RequestDuration *Histogram

	// UnmatchedTotal counts requests answered with the 404 diagnostic.
	UnmatchedTotal *Counter

	// InFlight is the number of stub requests being served, including
	// those waiting out a response delay.
	InFlight *Gauge
}

// ServerState supplies the values sampled at scrape time.
type ServerState interface {
	StubCount() int
	RequestCount() int
	Uptime() int
}

// NewServerMetrics registers the server metrics in a fresh registry.
func NewServerMetrics(state ServerState) *ServerMetrics {
	r := NewRegistry()
	m := &ServerMetrics{
		Registry: r,
		RequestsTotal: r.NewCounter(
			"stubd_requests_total",
			"Total number of requests dispatched to stubs",
			"method", "status", "matched",
		),
		RequestDuration: r.NewHistogram(
			"stubd_request_duration_seconds",
			"Duration of stub requests in seconds",
			DefaultBuckets,
			"method",
		),
		UnmatchedTotal: r.NewCounter(
			"stubd_unmatched_requests_total",
			"Number of requests that did not match any stub",
		),
		InFlight: r.NewGauge(
			"stubd_requests_in_flight",
			"Number of stub requests currently being served",
		),
	}

	if state != nil {
		r.NewGaugeFunc("stubd_stubs", "Number of registered stubs", func() float64 {
			return float64(state.StubCount())
		})
		r.NewGaugeFunc("stubd_journal_entries", "Number of requests held in the journal", func() float64 {
			return float64(state.RequestCount())
		})
		r.NewGaugeFunc("stubd_uptime_seconds", "Seconds since the server last started", func() float64 {
			return float64(state.Uptime())
		})
	}
	return m
}

// TrackInFlight marks a request as in flight. The returned func must be
// called once the response is written.
func (m *ServerMetrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	vec, err := m.InFlight.WithLabels()
	if err != nil {
		return func() {}
	}
	vec.Inc()
	return vec.Dec
}

// ObserveRequest records one dispatched request.
func (m *ServerMetrics) ObserveRequest(method string, status int, matched bool, d time.Duration) {
	if m == nil {
		return
	}
	if vec, err := m.RequestsTotal.WithLabels(method, strconv.Itoa(status), strconv.FormatBool(matched)); err == nil {
		vec.Inc()
	}
	if vec, err := m.RequestDuration.WithLabels(method); err == nil {
		vec.Observe(d.Seconds())
	}
	if !matched && status == 404 {
		_ = m.UnmatchedTotal.Inc()
	}
}
