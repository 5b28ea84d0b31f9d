// Package mcp provides an MCP (Model Context Protocol) server for epigraph.
package mcp

import (
	"time"
)

// SimulateInput defines the input for the epigraph_simulate tool.
// Unset fields fall back to the loaded configuration.
type SimulateInput struct {
	Nodes                     *int     `json:"nbnodes,omitempty" jsonschema:"Population size"`
	EdgesPerNode              *float64 `json:"edges_per_node,omitempty" jsonschema:"Mean edges created per joining node (must be positive)"`
	ProbUnbiased              *float64 `json:"prob_unbiased,omitempty" jsonschema:"Probability of a uniform rather than degree-biased partner choice (0.0-1.0)"`
	InitSeeds                 *int     `json:"init_seeds,omitempty" jsonschema:"Number of initial infection draws"`
	Contagiousness            *float64 `json:"contagiousness,omitempty" jsonschema:"Per-contact per-step transmission probability (0.0-1.0)"`
	ExtraRandomContagiousness *float64 `json:"extra_random_contagiousness,omitempty" jsonschema:"Per-step probability of one long-range infection (0.0-1.0)"`
	IncubationTime            *int     `json:"incubation_time,omitempty" jsonschema:"Steps spent Exposed before becoming Infectious"`
	RecoveryTime              *int     `json:"recovery_time,omitempty" jsonschema:"Steps from infection to recovery (must exceed incubation_time)"`
	Seed                      *uint64  `json:"seed,omitempty" jsonschema:"Random seed for a reproducible run"`
	MaxSteps                  *int     `json:"max_steps,omitempty" jsonschema:"Stop after this many steps (0 = no limit)"`
	Store                     bool     `json:"store,omitempty" jsonschema:"Record the run in the project run store"`
	IncludeTimeline           bool     `json:"include_timeline,omitempty" jsonschema:"Return the per-step compartment counts"`
	OutputDir                 string   `json:"output_dir,omitempty" jsonschema:"Write timeline, generations and summary TSV files to this directory, relative to the project root"`
}

// SimulateOutput defines the output for the epigraph_simulate tool.
type SimulateOutput struct {
	RunID              string          `json:"run_id,omitempty" jsonschema:"Stored run id when store was requested"`
	OutputDir          string          `json:"output_dir,omitempty" jsonschema:"Directory the TSV files were written to"`
	Seed               uint64          `json:"seed" jsonschema:"Seed that reproduces this run"`
	Nodes              int             `json:"nodes" jsonschema:"Population size"`
	Edges              int             `json:"edges" jsonschema:"Edges in the contact network"`
	Steps              int             `json:"steps" jsonschema:"Steps until no node was Exposed or Infectious"`
	Truncated          bool            `json:"truncated" jsonschema:"Whether max_steps stopped the run early"`
	FinalAttackRate    float64         `json:"final_attack_rate" jsonschema:"Fraction of the population ever infected"`
	PeakInfected       PeakOutput      `json:"peak_infected" jsonschema:"Largest Exposed+Infectious fraction"`
	PeakInfectious     PeakOutput      `json:"peak_infectious" jsonschema:"Largest Infectious fraction"`
	TotalAttempted     int             `json:"total_attempted" jsonschema:"Successful transmission draws"`
	TotalActual        int             `json:"total_actual" jsonschema:"Transmissions that infected a susceptible node"`
	PeakAttempted      StepPeakOutput  `json:"peak_attempted" jsonschema:"Most transmission draws in one step"`
	PeakActual         StepPeakOutput  `json:"peak_actual" jsonschema:"Most new infections in one step"`
	GrowthRate         *WindowOutput   `json:"growth_rate,omitempty" jsonschema:"Per-step exponential growth rate; absent when undefined"`
	ReproductionNumber *WindowOutput   `json:"reproduction_number,omitempty" jsonschema:"Per-generation reproduction number; absent when undefined"`
	Timeline           []TimelineEntry `json:"timeline,omitempty" jsonschema:"Compartment counts per step"`
}

// PeakOutput is a peak population fraction with its step and attack rate.
type PeakOutput struct {
	Fraction   float64 `json:"fraction"`
	Step       int     `json:"step"`
	AttackRate float64 `json:"attack_rate"`
}

// StepPeakOutput is the largest per-step count and when it occurred.
type StepPeakOutput struct {
	Count int `json:"count"`
	Step  int `json:"step"`
}

// WindowOutput is a windowed estimate and its interval.
type WindowOutput struct {
	Value float64 `json:"value"`
	From  int     `json:"from"`
	To    int     `json:"to"`
}

// TimelineEntry is one row of the timeline.
type TimelineEntry struct {
	Step        int `json:"step"`
	Susceptible int `json:"susceptible"`
	Exposed     int `json:"exposed"`
	Infectious  int `json:"infectious"`
	Recovered   int `json:"recovered"`
}

// RunsInput defines the input for the epigraph_runs tool.
type RunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum runs to return, newest first (default 20)"`
}

// RunsOutput defines the output for the epigraph_runs tool.
type RunsOutput struct {
	Runs  []RunListItem `json:"runs" jsonschema:"Stored runs"`
	Count int           `json:"count" jsonschema:"Number of runs returned"`
}

// RunListItem provides a list view of a stored run.
type RunListItem struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Seed       uint64    `json:"seed"`
	Nodes      int       `json:"nodes"`
	Steps      int       `json:"steps"`
	AttackRate float64   `json:"attack_rate"`
	Truncated  bool      `json:"truncated"`
}
