package network

import "errors"

// Sentinel errors returned by Build. Callers match them with errors.Is.
var (
	ErrNegativeNodes       = errors.New("network: node count must be non-negative")
	ErrInvalidEdgesPerNode = errors.New("network: edges per node must be positive")
	ErrInvalidProbability  = errors.New("network: probability must lie in [0,1]")
	ErrNeedRandSource      = errors.New("network: random source is required")
	ErrInvalidEdge         = errors.New("network: invalid edge")
)
