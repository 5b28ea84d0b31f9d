// Package network builds and holds the social contact graph the epidemic runs on.
//
// Graphs are grown by incremental preferential attachment: each joining node
// draws partners either uniformly among existing nodes or, with the remaining
// probability, as an endpoint of a uniformly chosen existing edge. Because a node
// appears in the edge list once per incident edge, the second rule picks partners
// proportionally to their degree.
package network

import (
	"fmt"
	"math"
	"slices"
)

// Edge is an undirected edge in creation order. A is the node that was joining
// when the edge was created.
type Edge struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Graph is an undirected simple graph over nodes 0..N-1.
// It is immutable once Build returns.
type Graph struct {
	adj   []map[int]struct{}
	edges []Edge
	// sorted holds ascending neighbor lists once the graph is frozen.
	sorted [][]int
}

// newGraph allocates an edgeless graph with n nodes.
func newGraph(n int) *Graph {
	adj := make([]map[int]struct{}, n)
	for i := range adj {
		adj[i] = make(map[int]struct{})
	}
	return &Graph{adj: adj}
}

// addEdge inserts (a, b) unless it is a self loop or already present.
func (g *Graph) addEdge(a, b int) bool {
	if a == b {
		return false
	}
	if _, ok := g.adj[a][b]; ok {
		return false
	}
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
	g.edges = append(g.edges, Edge{A: a, B: b})
	g.sorted = nil
	return true
}

// freeze precomputes the sorted neighbor lists. No edges may be added afterwards.
func (g *Graph) freeze() {
	g.sorted = make([][]int, len(g.adj))
	for i := range g.adj {
		g.sorted[i] = g.sortedNeighbors(i)
	}
}

func (g *Graph) sortedNeighbors(i int) []int {
	out := make([]int, 0, len(g.adj[i]))
	for k := range g.adj[i] {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return len(g.adj)
}

// NumEdges returns the number of undirected edges.
func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// HasEdge reports whether a and b are adjacent.
func (g *Graph) HasEdge(a, b int) bool {
	if a < 0 || a >= len(g.adj) {
		return false
	}
	_, ok := g.adj[a][b]
	return ok
}

// Degree returns the number of neighbors of node i.
func (g *Graph) Degree(i int) int {
	return len(g.adj[i])
}

// Neighbors returns the neighbors of node i in ascending order.
// The slice is shared with the graph and must not be modified.
func (g *Graph) Neighbors(i int) []int {
	if g.sorted != nil {
		return g.sorted[i]
	}
	return g.sortedNeighbors(i)
}

// Edges returns a copy of the edge list in creation order.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// DegreeStats summarizes the degree distribution.
type DegreeStats struct {
	Min      int     `json:"min"`
	Max      int     `json:"max"`
	Mean     float64 `json:"mean"`
	Isolated int     `json:"isolated"`
}

// DegreeStats computes min, max and mean degree plus the isolated node count.
// An empty graph yields the zero value.
func (g *Graph) DegreeStats() DegreeStats {
	n := len(g.adj)
	if n == 0 {
		return DegreeStats{}
	}

	ds := DegreeStats{Min: math.MaxInt}
	total := 0
	for i := range g.adj {
		d := len(g.adj[i])
		total += d
		ds.Min = min(ds.Min, d)
		ds.Max = max(ds.Max, d)
		if d == 0 {
			ds.Isolated++
		}
	}
	ds.Mean = float64(total) / float64(n)
	return ds
}

// FromEdges builds a frozen graph with n nodes from an explicit edge list.
// Self loops, duplicates and out-of-range endpoints are rejected.
func FromEdges(n int, edges []Edge) (*Graph, error) {
	if n < 0 {
		return nil, fmt.Errorf("from edges: n=%d: %w", n, ErrNegativeNodes)
	}
	g := newGraph(n)
	for _, e := range edges {
		if e.A < 0 || e.A >= n || e.B < 0 || e.B >= n {
			return nil, fmt.Errorf("from edges: edge %d-%d outside [0,%d): %w", e.A, e.B, n, ErrInvalidEdge)
		}
		if !g.addEdge(e.A, e.B) {
			return nil, fmt.Errorf("from edges: edge %d-%d is a self loop or duplicate: %w", e.A, e.B, ErrInvalidEdge)
		}
	}
	g.freeze()
	return g, nil
}
