// Package metrics implements the Prometheus text exposition format
// (text/plain; version=0.0.4) for the stub server.
//
// Supported metric types:
//   - Counter: monotonically increasing value
//   - Gauge: value that can go up or down
//   - GaugeFunc: gauge whose value is read at scrape time
//   - Histogram: distribution of values over fixed buckets
//
// All metrics are safe for concurrent use. Each server owns its own
// Registry, so several servers in one process never share counters.
//
// # Server Metrics
//
// ServerMetrics registers the metrics recorded by the request dispatcher:
//
//   - stubd_requests_total: served requests (labels: method, status, matched)
//   - stubd_request_duration_seconds: request latency (labels: method)
//   - stubd_unmatched_requests_total: requests no stub answered
//   - stubd_stubs: registered stubs
//   - stubd_journal_entries: requests held in the journal
//   - stubd_uptime_seconds: seconds since the last start
//
// The registry is exposed by the admin API at GET /__admin/metrics.
package metrics
