// Package constants provides named constants used throughout the epigraph codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Contact network defaults
const (
	// DefaultNodes is the default population size of the contact network.
	DefaultNodes = 10000

	// DefaultEdgesPerNode controls the mean number of edges created per joining node.
	// The resulting mean degree is roughly twice this value.
	DefaultEdgesPerNode = 3.0

	// DefaultProbUnbiased is the probability that a new edge picks a uniformly random
	// partner instead of a degree-biased one. 1.0 yields a purely random graph.
	DefaultProbUnbiased = 0.5

	// DefaultMaxEdgeAttempts caps the edge attempts made for a single node.
	// The geometric stopping rule makes reaching this cap vanishingly unlikely
	// for any sensible edges-per-node value.
	DefaultMaxEdgeAttempts = 100000
)

// Epidemic defaults
const (
	// DefaultInitSeeds is the number of initial infection draws.
	DefaultInitSeeds = 10

	// DefaultContagiousness is the per-contact, per-step transmission probability.
	DefaultContagiousness = 0.03

	// DefaultExtraRandomContagiousness is the per-step probability that an infectious
	// node also infects one uniformly random member of the population.
	DefaultExtraRandomContagiousness = 0.01

	// DefaultIncubationTime is the number of steps a node stays Exposed.
	DefaultIncubationTime = 5

	// DefaultRecoveryTime is the number of steps from infection to recovery.
	DefaultRecoveryTime = 30
)

// Statistics windows
const (
	// SlopeInterval is the step window used to estimate the exponential growth rate.
	SlopeInterval = 20

	// RepNumInterval is the generation window used to estimate the reproduction number.
	RepNumInterval = 2
)

// Metric channel labels distinguish infections along graph edges from the
// random long-range channel.
const (
	ChannelContact = "contact"
	ChannelRandom  = "random"
)

// DirName is the per-project directory holding the run store and step traces.
const DirName = ".epigraph"

// MaxToolNodes caps the population an MCP client may request in one simulation.
const MaxToolNodes = 200000
