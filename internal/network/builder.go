package network

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/nvandessel/epigraph/internal/constants"
	"github.com/nvandessel/epigraph/internal/randsrc"
)

// Option customizes Build.
type Option func(*buildConfig)

type buildConfig struct {
	maxAttempts int
	logger      *slog.Logger
}

// WithMaxAttempts caps the number of edge attempts for a single node.
// Values <= 0 are ignored.
func WithMaxAttempts(n int) Option {
	return func(c *buildConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithLogger sets the logger used to report the finished graph.
func WithLogger(l *slog.Logger) Option {
	return func(c *buildConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Build grows a contact graph of nbnodes nodes.
//
// Nodes join in ascending order. Each joining node i repeatedly:
//  1. picks a candidate partner k, uniformly among nodes 0..i when there are no
//     edges yet or a draw falls below probUnbiased, otherwise as a random endpoint
//     of a uniformly chosen existing edge;
//  2. keeps the edge (i,k) unless it is a self loop or a duplicate;
//  3. draws u in [0, edgesPerNode) and continues while u >= 1.
//
// Draws are consumed from src in exactly that order, so a seeded source makes
// the graph reproducible.
func Build(nbnodes int, edgesPerNode, probUnbiased float64, src randsrc.Source, opts ...Option) (*Graph, error) {
	if nbnodes < 0 {
		return nil, fmt.Errorf("build: nbnodes=%d: %w", nbnodes, ErrNegativeNodes)
	}
	if math.IsNaN(edgesPerNode) || edgesPerNode <= 0 {
		return nil, fmt.Errorf("build: edges_per_node=%g: %w", edgesPerNode, ErrInvalidEdgesPerNode)
	}
	if math.IsNaN(probUnbiased) || probUnbiased < 0 || probUnbiased > 1 {
		return nil, fmt.Errorf("build: prob_unbiased=%g: %w", probUnbiased, ErrInvalidProbability)
	}
	if src == nil && nbnodes > 0 {
		return nil, fmt.Errorf("build: %w", ErrNeedRandSource)
	}

	cfg := buildConfig{
		maxAttempts: constants.DefaultMaxEdgeAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := newGraph(nbnodes)
	capped := 0
	for i := 0; i < nbnodes; i++ {
		attempts := 0
		for {
			k := g.candidate(i, probUnbiased, src)
			g.addEdge(i, k)
			attempts++

			if src.Float64()*edgesPerNode < 1 {
				break
			}
			if attempts >= cfg.maxAttempts {
				capped++
				break
			}
		}
	}

	g.freeze()

	if capped > 0 {
		cfg.logger.Warn("edge attempt cap reached", "nodes", capped, "max_attempts", cfg.maxAttempts)
	}
	cfg.logger.Info("contact graph built", "nodes", g.NumNodes(), "edges", g.NumEdges())

	return g, nil
}

// candidate draws a partner for joining node i.
func (g *Graph) candidate(i int, probUnbiased float64, src randsrc.Source) int {
	if len(g.edges) == 0 || src.Float64() < probUnbiased {
		return src.IntN(i + 1)
	}
	e := g.edges[src.IntN(len(g.edges))]
	if src.IntN(2) == 0 {
		return e.A
	}
	return e.B
}
