// Package observability holds the Prometheus metrics of the process and the
// Store decorator that records them.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the set of collectors registered on one registry. Each
// Metrics owns its registry, so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	RepoOperations *prometheus.CounterVec
	RepoDuration   *prometheus.HistogramVec
	Cascades       *prometheus.CounterVec
	Backend        *prometheus.GaugeVec
}

// New creates and registers the collectors under namespace.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RepoOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repo_operations_total",
				Help:      "Total number of repository operations",
			},
			[]string{"collection", "operation", "status"},
		),
		RepoDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "repo_operation_duration_seconds",
				Help:      "Repository operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"collection", "operation"},
		),
		Cascades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trip_cascades_total",
				Help:      "Total number of trip cascade deletes",
			},
			[]string{"status"},
		),
		Backend: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "backend_info",
				Help:      "Active persistence backend; the series with value 1 is in use",
			},
			[]string{"mode", "driver"},
		),
	}

	m.registry.MustRegister(
		m.RepoOperations,
		m.RepoDuration,
		m.Cascades,
		m.Backend,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetBackend records the backend chosen at startup.
func (m *Metrics) SetBackend(mode, driver string) {
	m.Backend.Reset()
	m.Backend.WithLabelValues(mode, driver).Set(1)
}

// ObserveCascade implements cascade.Observer.
func (m *Metrics) ObserveCascade(err error) {
	m.Cascades.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
