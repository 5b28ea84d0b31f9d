package visualization

import (
	"errors"
	"strings"
	"testing"

	"github.com/nvandessel/epigraph/internal/epidemic"
	"github.com/nvandessel/epigraph/internal/network"
)

// pathGraph returns 0 - 1 - 2.
func pathGraph(t *testing.T) *network.Graph {
	t.Helper()
	g, err := network.FromEdges(3, []network.Edge{{A: 1, B: 0}, {A: 2, B: 1}})
	if err != nil {
		t.Fatalf("FromEdges: %v", err)
	}
	return g
}

func finalStates() []epidemic.NodeState {
	return []epidemic.NodeState{
		{Compartment: epidemic.Recovered, Timer: 30, Generation: 0},
		{Compartment: epidemic.Infectious, Timer: 6, Generation: 1},
		{Compartment: epidemic.Susceptible, Generation: epidemic.NoGeneration},
	}
}

func TestRenderDOT_EmptyGraph(t *testing.T) {
	g, err := network.FromEdges(0, nil)
	if err != nil {
		t.Fatalf("FromEdges: %v", err)
	}

	dot, err := RenderDOT(g, nil)
	if err != nil {
		t.Fatalf("RenderDOT: %v", err)
	}

	if !strings.Contains(dot, "graph epigraph") {
		t.Error("expected graph header")
	}
	if !strings.HasSuffix(strings.TrimSpace(dot), "}") {
		t.Error("expected closing brace")
	}
}

func TestRenderDOT_GraphOnly(t *testing.T) {
	dot, err := RenderDOT(pathGraph(t), nil)
	if err != nil {
		t.Fatalf("RenderDOT: %v", err)
	}

	for _, want := range []string{
		`1 [tooltip="degree=2"]`,
		"1 -- 0;",
		"2 -- 1;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "->") {
		t.Error("contact network must render undirected")
	}
}

func TestRenderDOT_ColorsByCompartment(t *testing.T) {
	dot, err := RenderDOT(pathGraph(t), finalStates())
	if err != nil {
		t.Fatalf("RenderDOT: %v", err)
	}

	tests := []struct {
		node string
		want string
	}{
		{"0", `0 [fillcolor="steelblue", tooltip="recovered degree=1 generation=0"]`},
		{"1", `1 [fillcolor="tomato", tooltip="infectious degree=2 generation=1"]`},
		{"2", `2 [fillcolor="lightgray", tooltip="susceptible degree=1 generation=-1"]`},
	}
	for _, tt := range tests {
		t.Run(tt.node, func(t *testing.T) {
			if !strings.Contains(dot, tt.want) {
				t.Errorf("DOT missing %q:\n%s", tt.want, dot)
			}
		})
	}
}

func TestRenderDOT_StateMismatch(t *testing.T) {
	_, err := RenderDOT(pathGraph(t), finalStates()[:2])
	if !errors.Is(err, ErrStateMismatch) {
		t.Errorf("expected ErrStateMismatch, got %v", err)
	}
}

func TestRenderJSON(t *testing.T) {
	data, err := RenderJSON(pathGraph(t), finalStates())
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	if data["node_count"] != 3 {
		t.Errorf("node_count = %v, want 3", data["node_count"])
	}
	if data["edge_count"] != 2 {
		t.Errorf("edge_count = %v, want 2", data["edge_count"])
	}

	nodes := data["nodes"].([]map[string]interface{})
	if nodes[1]["compartment"] != "infectious" {
		t.Errorf("node 1 compartment = %v, want infectious", nodes[1]["compartment"])
	}
	if nodes[1]["degree"] != 2 {
		t.Errorf("node 1 degree = %v, want 2", nodes[1]["degree"])
	}

	edges := data["edges"].([]map[string]interface{})
	if edges[0]["source"] != 1 || edges[0]["target"] != 0 {
		t.Errorf("first edge = %v, want 1-0", edges[0])
	}
}

func TestRenderJSON_GraphOnly(t *testing.T) {
	data, err := RenderJSON(pathGraph(t), nil)
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	nodes := data["nodes"].([]map[string]interface{})
	if _, ok := nodes[0]["compartment"]; ok {
		t.Error("graph-only render should not carry compartments")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"dot", FormatDOT, false},
		{"JSON", FormatJSON, false},
		{"html", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
