// Package observability holds the Prometheus metrics for the editor core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the application.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Graph metrics
	GraphImports      prometheus.Counter
	MutationsApplied  *prometheus.CounterVec
	MutationsRejected *prometheus.CounterVec
	SaveFailures      prometheus.Counter

	// Layout metrics
	LayoutDuration *prometheus.HistogramVec
}

// NewMetrics creates a collector set on its own registry, so tests can hold
// independent instances without duplicate-registration panics.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		GraphImports: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_imports_total",
				Help:      "Total number of FSM graphs imported from the parser",
			},
		),
		MutationsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_mutations_applied_total",
				Help:      "Total number of committed graph mutations",
			},
			[]string{"operation"},
		),
		MutationsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_mutations_rejected_total",
				Help:      "Total number of rejected graph mutations",
			},
			[]string{"operation"},
		),
		SaveFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_save_failures_total",
				Help:      "Total number of failed persistence saves",
			},
		),
		LayoutDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "layout_duration_seconds",
				Help:      "Layout computation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"mode"},
		),
	}

	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.GraphImports,
		m.MutationsApplied,
		m.MutationsRejected,
		m.SaveFailures,
		m.LayoutDuration,
	)

	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
