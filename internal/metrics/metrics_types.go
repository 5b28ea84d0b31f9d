// Package metrics exports simulation progress as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for one simulation run
type Registry struct {
	// Graph Metrics
	GraphNodesTotal prometheus.Gauge
	GraphEdgesTotal prometheus.Gauge
	NodeDegree      prometheus.Histogram

	// Epidemic Metrics
	CompartmentNodes       *prometheus.GaugeVec
	InfectionAttemptsTotal *prometheus.CounterVec
	InfectionsTotal        *prometheus.CounterVec
	StepsTotal             prometheus.Counter

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized.
// Each run gets its own registry so exported values describe that run only.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initGraphMetrics()
	r.initEpidemicMetrics()

	return r
}

// GetRegistry returns the underlying Prometheus registry
func (r *Registry) GetRegistry() *prometheus.Registry {
	return r.registry
}
