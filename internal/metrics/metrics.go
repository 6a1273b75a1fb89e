// Package metrics holds the Prometheus instruments of the order workflow and
// the HTTP layer. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "toko"

// Metrics is the set of application instruments.
type Metrics struct {
	gatherer prometheus.Gatherer

	ordersPlaced     prometheus.Counter
	orderFailures    *prometheus.CounterVec
	placeDuration    prometheus.Histogram
	statusUpdates    *prometheus.CounterVec
	paymentsRecorded *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

// New registers the instruments on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the instruments on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: g,
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "placed_total",
			Help: "Orders committed by the placement workflow.",
		}),
		orderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "failed_total",
			Help: "Order placements that failed, by error kind.",
		}, []string{"kind"}),
		placeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "orders", Name: "place_duration_seconds",
			Help:    "Latency of the order placement workflow.",
			Buckets: prometheus.DefBuckets,
		}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "status_updates_total",
			Help: "Order status changes, by new status.",
		}, []string{"status"}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "payments", Name: "recorded_total",
			Help: "Payments recorded, by payment status.",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests served, by method, route and status code.",
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(
		m.ordersPlaced,
		m.orderFailures,
		m.placeDuration,
		m.statusUpdates,
		m.paymentsRecorded,
		m.httpRequests,
	)
	return m
}

// OrderPlaced records a committed order and the workflow latency.
func (m *Metrics) OrderPlaced(seconds float64) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.placeDuration.Observe(seconds)
}

// OrderFailed records a failed placement with the error kind as label.
func (m *Metrics) OrderFailed(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.orderFailures.WithLabelValues(kind).Inc()
	m.placeDuration.Observe(seconds)
}

func (m *Metrics) StatusUpdated(status string) {
	if m == nil {
		return
	}
	m.statusUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) PaymentRecorded(status string) {
	if m == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(status).Inc()
}

func (m *Metrics) HTTPRequest(method, route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, code).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
