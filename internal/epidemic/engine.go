// Package epidemic implements a discrete-time stochastic SEIR model on a
// contact graph.
//
// Each node moves Susceptible -> Exposed -> Infectious -> Recovered, driven by
// a per-node timer (steps since infection) and by Bernoulli infection trials
// along graph edges plus one long-range random channel. The Engine owns every
// piece of mutable state: per-node states, the pool of active infections, the
// generation table and the running counters.
package epidemic

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/nvandessel/epigraph/internal/network"
	"github.com/nvandessel/epigraph/internal/randsrc"
)

// ErrInvariantViolation is wrapped by the panic values raised when the
// engine's bookkeeping contradicts itself. It signals a programming defect,
// never a property of the input.
var ErrInvariantViolation = errors.New("epidemic: invariant violation")

// ErrInvalidParams is returned by New for unusable parameters.
var ErrInvalidParams = errors.New("epidemic: invalid parameters")

// Params configures disease progression and transmission.
type Params struct {
	// IncubationTime is the timer value at which Exposed becomes Infectious.
	IncubationTime int
	// RecoveryTime is the timer value at which a node recovers. Must exceed IncubationTime.
	RecoveryTime int
	// Contagiousness is the per-neighbor, per-step infection probability.
	Contagiousness float64
	// ExtraRandomContagiousness is the per-step probability of infecting one
	// uniformly random node anywhere in the population.
	ExtraRandomContagiousness float64
}

// Validate checks the parameter domains.
func (p Params) Validate() error {
	if p.IncubationTime <= 0 {
		return fmt.Errorf("%w: incubation_time=%d must be positive", ErrInvalidParams, p.IncubationTime)
	}
	if p.RecoveryTime <= p.IncubationTime {
		return fmt.Errorf("%w: recovery_time=%d must exceed incubation_time=%d",
			ErrInvalidParams, p.RecoveryTime, p.IncubationTime)
	}
	if !(p.Contagiousness >= 0 && p.Contagiousness <= 1) {
		return fmt.Errorf("%w: contagiousness=%g not in [0,1]", ErrInvalidParams, p.Contagiousness)
	}
	if !(p.ExtraRandomContagiousness >= 0 && p.ExtraRandomContagiousness <= 1) {
		return fmt.Errorf("%w: extra_random_contagiousness=%g not in [0,1]",
			ErrInvalidParams, p.ExtraRandomContagiousness)
	}
	return nil
}

// Engine advances the SEIR model one step at a time. It is not safe for
// concurrent use.
type Engine struct {
	graph  *network.Graph
	params Params
	src    randsrc.Source

	nodes       []NodeState
	pool        map[int]struct{}
	generations []int
	counts      Snapshot
	tally       Tally
	last        StepCounts
}

// New creates an engine with every node Susceptible.
func New(g *network.Graph, p Params, src randsrc.Source) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: graph is nil", ErrInvalidParams)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: random source is nil", ErrInvalidParams)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := g.NumNodes()
	nodes := make([]NodeState, n)
	for i := range nodes {
		nodes[i] = NodeState{Compartment: Susceptible, Generation: NoGeneration}
	}

	return &Engine{
		graph:  g,
		params: p,
		src:    src,
		nodes:  nodes,
		pool:   make(map[int]struct{}),
		counts: Snapshot{Susceptible: n},
	}, nil
}

// Infect moves a Susceptible node to Exposed at the given generation and
// reports whether it did. Targets that are already infected or recovered are
// left untouched, so several sources may aim at the same node in one step.
func (e *Engine) Infect(node, generation int) bool {
	if node < 0 || node >= len(e.nodes) {
		panic(fmt.Errorf("%w: node %d out of range [0,%d)", ErrInvariantViolation, node, len(e.nodes)))
	}
	if generation < 0 {
		panic(fmt.Errorf("%w: negative generation %d for node %d", ErrInvariantViolation, generation, node))
	}

	st := &e.nodes[node]
	if st.Compartment != Susceptible {
		return false
	}
	if _, pooled := e.pool[node]; pooled {
		panic(fmt.Errorf("%w: susceptible node %d already in infected pool", ErrInvariantViolation, node))
	}
	if st.Generation != NoGeneration {
		panic(fmt.Errorf("%w: susceptible node %d already has generation %d",
			ErrInvariantViolation, node, st.Generation))
	}

	st.Compartment = Exposed
	st.Timer = 0
	st.Generation = generation
	e.pool[node] = struct{}{}

	for len(e.generations) <= generation {
		e.generations = append(e.generations, 0)
	}
	e.generations[generation]++

	e.counts.Susceptible--
	e.counts.Exposed++
	return true
}

// Seed makes initSeeds uniformly random infection draws at generation 0 and
// returns how many of them hit a distinct susceptible node.
func (e *Engine) Seed(initSeeds int) int {
	n := len(e.nodes)
	if n == 0 {
		return 0
	}
	seeded := 0
	for i := 0; i < initSeeds; i++ {
		if e.Infect(e.src.IntN(n), 0) {
			seeded++
		}
	}
	return seeded
}

// Step advances simulated time by one unit and returns the counts at the end
// of the step.
//
// Only nodes that were active when the step began are processed, in ascending
// node id order. For each: the timer is incremented; an Exposed node whose
// timer reached IncubationTime becomes Infectious, otherwise a node whose timer
// reached RecoveryTime recovers. A node that is Infectious after that check
// attempts to infect each neighbor with probability Contagiousness, then one
// random node with probability ExtraRandomContagiousness.
func (e *Engine) Step() Snapshot {
	e.counts.Step++
	var sc StepCounts

	for _, node := range e.activeNodes() {
		st := &e.nodes[node]
		st.Timer++
		timer := st.Timer

		if st.Compartment == Exposed && timer >= e.params.IncubationTime {
			st.Compartment = Infectious
			e.counts.Exposed--
			e.counts.Infectious++
		} else if timer >= e.params.RecoveryTime {
			e.recover(node)
			continue
		}

		if st.Compartment == Infectious {
			e.spread(node, st.Generation+1, &sc)
		}
	}

	e.last = sc
	e.updateTally(sc)
	e.checkConservation()

	return e.counts
}

// spread runs the infection trials of one infectious node.
func (e *Engine) spread(node, generation int, sc *StepCounts) {
	for _, nb := range e.graph.Neighbors(node) {
		if e.src.Float64() < e.params.Contagiousness {
			sc.ContactAttempted++
			if e.Infect(nb, generation) {
				sc.ContactActual++
			}
		}
	}
	if e.src.Float64() < e.params.ExtraRandomContagiousness {
		sc.RandomAttempted++
		if e.Infect(e.src.IntN(len(e.nodes)), generation) {
			sc.RandomActual++
		}
	}
}

// recover moves an active node to Recovered and drops it from the pool.
func (e *Engine) recover(node int) {
	if _, pooled := e.pool[node]; !pooled {
		panic(fmt.Errorf("%w: recovering node %d not in infected pool", ErrInvariantViolation, node))
	}

	st := &e.nodes[node]
	switch st.Compartment {
	case Exposed:
		e.counts.Exposed--
	case Infectious:
		e.counts.Infectious--
	default:
		panic(fmt.Errorf("%w: node %d recovering from %s", ErrInvariantViolation, node, st.Compartment))
	}
	st.Compartment = Recovered
	delete(e.pool, node)
	e.counts.Recovered++
}

// activeNodes returns the pool members in ascending order.
func (e *Engine) activeNodes() []int {
	return slices.Sorted(maps.Keys(e.pool))
}

func (e *Engine) updateTally(sc StepCounts) {
	n := len(e.nodes)
	step := e.counts.Step
	attack := 0.0
	if n > 0 {
		attack = float64(e.counts.Active()+e.counts.Recovered) / float64(n)
	}

	if active := e.counts.Active(); active > e.tally.PeakInfected.Count {
		e.tally.PeakInfected = Peak{Count: active, Step: step, AttackRate: attack}
	}
	if inf := e.counts.Infectious; inf > e.tally.PeakInfectious.Count {
		e.tally.PeakInfectious = Peak{Count: inf, Step: step, AttackRate: attack}
	}

	attempted, actual := sc.Attempted(), sc.Actual()
	e.tally.TotalAttempted += attempted
	e.tally.TotalActual += actual
	if attempted > e.tally.PeakAttempted.Count {
		e.tally.PeakAttempted = StepPeak{Count: attempted, Step: step}
	}
	if actual > e.tally.PeakActual.Count {
		e.tally.PeakActual = StepPeak{Count: actual, Step: step}
	}
}

func (e *Engine) checkConservation() {
	if total := e.counts.Total(); total != len(e.nodes) {
		panic(fmt.Errorf("%w: compartments sum to %d at step %d, population is %d",
			ErrInvariantViolation, total, e.counts.Step, len(e.nodes)))
	}
	if active := e.counts.Active(); active != len(e.pool) {
		panic(fmt.Errorf("%w: %d exposed+infectious but %d pooled at step %d",
			ErrInvariantViolation, active, len(e.pool), e.counts.Step))
	}
}

// Done reports whether no Exposed or Infectious nodes remain.
func (e *Engine) Done() bool {
	return len(e.pool) == 0
}

// Counts returns the current compartment counts.
func (e *Engine) Counts() Snapshot {
	return e.counts
}

// StepIndex returns the number of completed steps.
func (e *Engine) StepIndex() int {
	return e.counts.Step
}

// PoolSize returns the number of active infections.
func (e *Engine) PoolSize() int {
	return len(e.pool)
}

// State returns the state of a single node.
func (e *Engine) State(node int) NodeState {
	return e.nodes[node]
}

// States returns a copy of all node states.
func (e *Engine) States() []NodeState {
	return slices.Clone(e.nodes)
}

// Generations returns a copy of the per-generation infection counts.
func (e *Engine) Generations() []int {
	return slices.Clone(e.generations)
}

// Tally returns the accumulated attempt totals and peaks.
func (e *Engine) Tally() Tally {
	return e.tally
}

// LastStep returns the attempt counts of the most recent step.
func (e *Engine) LastStep() StepCounts {
	return e.last
}

// Population returns the number of nodes.
func (e *Engine) Population() int {
	return len(e.nodes)
}
