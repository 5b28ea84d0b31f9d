// Package visualization renders contact networks in various output formats.
package visualization

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nvandessel/epigraph/internal/epidemic"
	"github.com/nvandessel/epigraph/internal/network"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ErrStateMismatch is returned when the node states do not cover the graph.
var ErrStateMismatch = errors.New("node states do not match graph size")

// compartmentColors maps compartments to DOT colors.
var compartmentColors = map[epidemic.Compartment]string{
	epidemic.Susceptible: "lightgray",
	epidemic.Exposed:     "goldenrod",
	epidemic.Infectious:  "tomato",
	epidemic.Recovered:   "steelblue",
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatDOT, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: dot, json)", s)
	}
}

func checkStates(g *network.Graph, states []epidemic.NodeState) error {
	if states != nil && len(states) != g.NumNodes() {
		return fmt.Errorf("%w: %d states for %d nodes", ErrStateMismatch, len(states), g.NumNodes())
	}
	return nil
}

// RenderDOT produces an undirected Graphviz DOT representation of the contact
// network. When states is non-nil each node is colored by its compartment.
func RenderDOT(g *network.Graph, states []epidemic.NodeState) (string, error) {
	if err := checkStates(g, states); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("graph epigraph {\n")
	b.WriteString("  layout=sfdp;\n")
	b.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\", fontsize=8, fillcolor=\"lightgray\"];\n")
	b.WriteString("  edge [color=\"gray60\"];\n\n")

	for i := 0; i < g.NumNodes(); i++ {
		if states == nil {
			b.WriteString(fmt.Sprintf("  %d [tooltip=\"degree=%d\"];\n", i, g.Degree(i)))
			continue
		}
		st := states[i]
		color := compartmentColors[st.Compartment]
		if color == "" {
			color = "white"
		}
		b.WriteString(fmt.Sprintf("  %d [fillcolor=%q, tooltip=\"%s degree=%d generation=%d\"];\n",
			i, color, st.Compartment, g.Degree(i), st.Generation))
	}
	b.WriteString("\n")

	for _, e := range g.Edges() {
		b.WriteString(fmt.Sprintf("  %d -- %d;\n", e.A, e.B))
	}

	b.WriteString("}\n")
	return b.String(), nil
}

// RenderJSON produces a JSON graph representation with nodes and edges arrays.
func RenderJSON(g *network.Graph, states []epidemic.NodeState) (map[string]interface{}, error) {
	if err := checkStates(g, states); err != nil {
		return nil, err
	}

	jsonNodes := make([]map[string]interface{}, 0, g.NumNodes())
	for i := 0; i < g.NumNodes(); i++ {
		entry := map[string]interface{}{
			"id":     i,
			"degree": g.Degree(i),
		}
		if states != nil {
			entry["compartment"] = states[i].Compartment.String()
			entry["generation"] = states[i].Generation
		}
		jsonNodes = append(jsonNodes, entry)
	}

	edges := g.Edges()
	jsonEdges := make([]map[string]interface{}, 0, len(edges))
	for _, e := range edges {
		jsonEdges = append(jsonEdges, map[string]interface{}{
			"source": e.A,
			"target": e.B,
		})
	}

	return map[string]interface{}{
		"nodes":      jsonNodes,
		"edges":      jsonEdges,
		"node_count": len(jsonNodes),
		"edge_count": len(jsonEdges),
	}, nil
}
