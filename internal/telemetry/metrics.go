package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service. Each Metrics value
// carries its own registry so tests can build servers independently.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	StoreErrors     *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rateshop_requests_total",
				Help: "Total number of requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rateshop_request_duration_seconds",
				Help:    "Request duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rateshop_store_errors_total",
				Help: "Total carrier store failures by operation",
			},
			[]string{"operation"},
		),
	}
}

// Handler returns an HTTP handler exposing this Metrics instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records one handled request.
func (m *Metrics) RecordRequest(operation, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration)
}

// RecordStoreError records a carrier store failure.
func (m *Metrics) RecordStoreError(operation string) {
	m.StoreErrors.WithLabelValues(operation).Inc()
}
