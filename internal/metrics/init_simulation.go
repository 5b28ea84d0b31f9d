package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "epigraph_graph_nodes_total",
			Help: "Number of nodes in the contact network",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "epigraph_graph_edges_total",
			Help: "Number of undirected edges in the contact network",
		},
	)

	r.NodeDegree = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "epigraph_node_degree",
			Help:    "Degree distribution of the contact network",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
}

func (r *Registry) initEpidemicMetrics() {
	r.CompartmentNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "epigraph_compartment_nodes",
			Help: "Nodes currently in each compartment",
		},
		[]string{"compartment"}, // susceptible, exposed, infectious, recovered
	)

	r.InfectionAttemptsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "epigraph_infection_attempts_total",
			Help: "Successful transmission draws, including those hitting non-susceptible nodes",
		},
		[]string{"channel"}, // contact, random
	)

	r.InfectionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "epigraph_infections_total",
			Help: "New infections caused by transmission",
		},
		[]string{"channel"},
	)

	r.StepsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "epigraph_steps_total",
			Help: "Simulation steps executed",
		},
	)
}
