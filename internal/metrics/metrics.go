// Package metrics provides Prometheus metrics for the foreman daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the daemon.
type Metrics struct {
	TicksTotal           prometheus.Counter
	DispatchesTotal      *prometheus.CounterVec
	ItemsAddedTotal      *prometheus.CounterVec
	PendingBlockingGauge prometheus.Gauge
	FlushDuration        prometheus.Histogram
	RequestsTotal        *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		TicksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "foreman_poll_ticks_total",
				Help: "Total number of polling loop ticks.",
			},
		),
		DispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foreman_dispatches_total",
				Help: "Total work item dispatches by outcome.",
			},
			[]string{"outcome"},
		),
		ItemsAddedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foreman_items_added_total",
				Help: "Total work items added by priority.",
			},
			[]string{"priority"},
		),
		PendingBlockingGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "foreman_pending_blocking_events",
				Help: "Number of unresolved blocking events.",
			},
		),
		FlushDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "foreman_state_flush_duration_seconds",
				Help:    "Duration of state file flushes.",
				Buckets: prometheus.DefBuckets,
			},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foreman_requests_total",
				Help: "Total API requests by route and status.",
			},
			[]string{"route", "status"},
		),
		registry: reg,
	}

	reg.MustRegister(m.TicksTotal)
	reg.MustRegister(m.DispatchesTotal)
	reg.MustRegister(m.ItemsAddedTotal)
	reg.MustRegister(m.PendingBlockingGauge)
	reg.MustRegister(m.FlushDuration)
	reg.MustRegister(m.RequestsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTick increments the poll tick counter.
func (m *Metrics) RecordTick() {
	m.TicksTotal.Inc()
}

// RecordDispatch increments the dispatch counter for an outcome.
func (m *Metrics) RecordDispatch(outcome string) {
	m.DispatchesTotal.WithLabelValues(outcome).Inc()
}

// RecordItemAdded increments the added-items counter for a priority.
func (m *Metrics) RecordItemAdded(priority string) {
	m.ItemsAddedTotal.WithLabelValues(priority).Inc()
}

// SetPendingBlocking sets the unresolved blocking event gauge.
func (m *Metrics) SetPendingBlocking(count float64) {
	m.PendingBlockingGauge.Set(count)
}

// ObserveFlush records a state flush duration.
func (m *Metrics) ObserveFlush(seconds float64) {
	m.FlushDuration.Observe(seconds)
}

// RecordRequest increments the API request counter.
func (m *Metrics) RecordRequest(route, status string) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
}
