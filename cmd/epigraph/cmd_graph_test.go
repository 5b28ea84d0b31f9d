package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGraphCmd_Stats(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, "graph", "--nbnodes", "300", "--seed", "5")
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	for _, want := range []string{"Contact network", "Nodes", "300", "Degree", "Isolated nodes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGraphCmd_StatsJSON(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, "graph", "--nbnodes", "300", "--seed", "5", "--json")
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}

	var got struct {
		Seed   uint64 `json:"seed"`
		Nodes  int    `json:"nodes"`
		Edges  int    `json:"edges"`
		Degree struct {
			Mean float64 `json:"mean"`
		} `json:"degree"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Seed != 5 || got.Nodes != 300 {
		t.Errorf("got %+v, want seed 5 and 300 nodes", got)
	}
	if got.Edges == 0 {
		t.Error("no edges built")
	}
	// Every edge adds two to the degree sum.
	if want := 2 * float64(got.Edges) / 300; got.Degree.Mean < want-1e-9 || got.Degree.Mean > want+1e-9 {
		t.Errorf("mean degree = %v, want %v", got.Degree.Mean, want)
	}
}

func TestGraphCmd_Formats(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	out, err := execute(t, "graph", "--nbnodes", "20", "--seed", "3", "--format", "dot")
	if err != nil {
		t.Fatalf("graph --format dot failed: %v", err)
	}
	if !strings.HasPrefix(out, "graph epigraph {") || !strings.Contains(out, " -- ") {
		t.Errorf("unexpected DOT output:\n%s", out)
	}

	jsonFile := filepath.Join(tmpDir, "net.json")
	if _, err := execute(t, "graph", "--nbnodes", "20", "--seed", "3", "--format", "json", "-o", jsonFile); err != nil {
		t.Fatalf("graph --format json failed: %v", err)
	}
	data, err := os.ReadFile(jsonFile)
	if err != nil {
		t.Fatalf("read %s: %v", jsonFile, err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := got["nodes"]; !ok {
		t.Errorf("JSON output has no nodes: %v", got)
	}

	if _, err := execute(t, "graph", "--nbnodes", "20", "--format", "svg"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestGraphCmd_Reproducible(t *testing.T) {
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	first, err := execute(t, "graph", "--nbnodes", "50", "--seed", "11", "--format", "dot")
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	second, err := execute(t, "graph", "--nbnodes", "50", "--seed", "11", "--format", "dot")
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	if first != second {
		t.Error("same seed produced different networks")
	}
}
