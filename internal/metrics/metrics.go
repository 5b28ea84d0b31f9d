package metrics

import (
	"fmt"

	"github.com/nvandessel/epigraph/internal/constants"
	"github.com/nvandessel/epigraph/internal/epidemic"
	"github.com/prometheus/client_golang/prometheus"
)

// RecordGraph records the size and degree distribution of a built network
func (r *Registry) RecordGraph(nodes, edges int, degrees []int) {
	r.GraphNodesTotal.Set(float64(nodes))
	r.GraphEdgesTotal.Set(float64(edges))
	for _, d := range degrees {
		r.NodeDegree.Observe(float64(d))
	}
}

// SetCompartments sets the compartment gauges from a snapshot
func (r *Registry) SetCompartments(snap epidemic.Snapshot) {
	r.CompartmentNodes.WithLabelValues(epidemic.Susceptible.String()).Set(float64(snap.Susceptible))
	r.CompartmentNodes.WithLabelValues(epidemic.Exposed.String()).Set(float64(snap.Exposed))
	r.CompartmentNodes.WithLabelValues(epidemic.Infectious.String()).Set(float64(snap.Infectious))
	r.CompartmentNodes.WithLabelValues(epidemic.Recovered.String()).Set(float64(snap.Recovered))
}

// RecordStep records one completed simulation step
func (r *Registry) RecordStep(snap epidemic.Snapshot, counts epidemic.StepCounts) {
	r.StepsTotal.Inc()
	r.SetCompartments(snap)

	r.InfectionAttemptsTotal.WithLabelValues(constants.ChannelContact).Add(float64(counts.ContactAttempted))
	r.InfectionAttemptsTotal.WithLabelValues(constants.ChannelRandom).Add(float64(counts.RandomAttempted))
	r.InfectionsTotal.WithLabelValues(constants.ChannelContact).Add(float64(counts.ContactActual))
	r.InfectionsTotal.WithLabelValues(constants.ChannelRandom).Add(float64(counts.RandomActual))
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
