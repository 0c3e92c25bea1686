// Package metrics exposes Prometheus counters for the client's auth and
// session machinery. A nil *Metrics is valid and records nothing, so
// callers never need to guard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the client-side counters.
type Metrics struct {
	registry *prometheus.Registry

	refreshTotal      *prometheus.CounterVec
	replaysTotal      prometheus.Counter
	heartbeatsTotal   prometheus.Counter
	heartbeatFailures prometheus.Counter
}

// New creates a Metrics backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "focusbuddy_token_refresh_total",
			Help: "Token refresh calls issued, by result.",
		}, []string{"result"}),
		replaysTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "focusbuddy_request_replays_total",
			Help: "Requests replayed after a token refresh.",
		}),
		heartbeatsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "focusbuddy_session_heartbeats_total",
			Help: "Session heartbeats sent.",
		}),
		heartbeatFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "focusbuddy_session_heartbeat_failures_total",
			Help: "Session heartbeats that failed (best-effort, not retried early).",
		}),
	}
	reg.MustRegister(m.refreshTotal, m.replaysTotal, m.heartbeatsTotal, m.heartbeatFailures)
	return m
}

// Handler returns an http.Handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RefreshDone records a settled refresh call. result is "ok" or "error".
func (m *Metrics) RefreshDone(result string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(result).Inc()
}

// Replay records one request replayed with a fresh credential.
func (m *Metrics) Replay() {
	if m == nil {
		return
	}
	m.replaysTotal.Inc()
}

// Heartbeat records a heartbeat attempt; failed marks it unsuccessful.
func (m *Metrics) Heartbeat(failed bool) {
	if m == nil {
		return
	}
	m.heartbeatsTotal.Inc()
	if failed {
		m.heartbeatFailures.Inc()
	}
}
