package mcp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/epigraph/internal/config"
	"github.com/nvandessel/epigraph/internal/constants"
	"github.com/nvandessel/epigraph/internal/epidemic"
	"github.com/nvandessel/epigraph/internal/pathutil"
	"github.com/nvandessel/epigraph/internal/ratelimit"
	"github.com/nvandessel/epigraph/internal/report"
	"github.com/nvandessel/epigraph/internal/simulation"
	"github.com/nvandessel/epigraph/internal/stats"
	"github.com/nvandessel/epigraph/internal/store"
)

// defaultRunsLimit is the number of runs epigraph_runs returns when no limit is given.
const defaultRunsLimit = 20

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolSimulate,
		Description: "Run an SEIR epidemic simulation on a synthetic social contact network and return summary statistics",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolRuns,
		Description: "List simulation runs recorded in the project run store, newest first",
	}, s.handleRuns)
}

// handleSimulate implements the epigraph_simulate tool.
func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	var runID string
	params := map[string]string{}
	defer func() {
		s.auditTool(ratelimit.ToolSimulate, start, retErr, params, runID)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolSimulate); err != nil {
		return nil, SimulateOutput{}, err
	}

	cfg := applyOverrides(s.settings.Simulation, args, params)

	check := *s.settings
	check.Simulation = cfg
	if err := check.Validate(); err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("invalid parameters: %w", err)
	}
	if cfg.Nodes > constants.MaxToolNodes {
		return nil, SimulateOutput{}, fmt.Errorf("nbnodes=%d exceeds the tool limit of %d", cfg.Nodes, constants.MaxToolNodes)
	}

	var outDir string
	if args.OutputDir != "" {
		params["output_dir"] = args.OutputDir
		dir, err := pathutil.Within(s.root, args.OutputDir)
		if err != nil {
			return nil, SimulateOutput{}, fmt.Errorf("invalid output_dir: %w", err)
		}
		outDir = dir
	}

	res, err := simulation.Run(ctx, cfg, simulation.NewSource(cfg), simulation.Options{Logger: s.logger})
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	if args.Store {
		run := &store.Run{
			Seed:       res.Seed,
			Nodes:      res.Report.Nodes,
			Edges:      res.Edges,
			Steps:      res.Report.Steps,
			AttackRate: res.Report.FinalAttackRate,
			Truncated:  res.Truncated,
			Config:     cfg,
			Report:     res.Report,
		}
		if err := s.store.SaveRun(ctx, run, res.Timeline, res.Generations); err != nil {
			return nil, SimulateOutput{}, fmt.Errorf("failed to store run: %w", err)
		}
		runID = run.ID
	}

	if outDir != "" {
		if err := report.WriteFiles(outDir, res.Seed, res.Timeline, res.Generations, res.Report); err != nil {
			return nil, SimulateOutput{}, fmt.Errorf("failed to write results to %s: %w", pathutil.RedactPath(outDir), err)
		}
	}

	out := simulateOutput(res.Seed, res.Edges, res.Truncated, res.Report)
	out.RunID = runID
	out.OutputDir = args.OutputDir
	if args.IncludeTimeline {
		out.Timeline = timelineEntries(res.Timeline)
	}
	return nil, out, nil
}

// handleRuns implements the epigraph_runs tool.
func (s *Server) handleRuns(ctx context.Context, req *sdk.CallToolRequest, args RunsInput) (_ *sdk.CallToolResult, _ RunsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolRuns, start, retErr, map[string]string{"limit": strconv.Itoa(args.Limit)}, "")
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolRuns); err != nil {
		return nil, RunsOutput{}, err
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}

	runs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, RunsOutput{}, fmt.Errorf("failed to list runs: %w", err)
	}

	items := make([]RunListItem, 0, len(runs))
	for _, r := range runs {
		items = append(items, RunListItem{
			ID:         r.ID,
			CreatedAt:  r.CreatedAt,
			Seed:       r.Seed,
			Nodes:      r.Nodes,
			Steps:      r.Steps,
			AttackRate: r.AttackRate,
			Truncated:  r.Truncated,
		})
	}

	return nil, RunsOutput{Runs: items, Count: len(items)}, nil
}

// applyOverrides returns base with every field set in args replaced, and
// records the overridden keys in params.
func applyOverrides(base config.SimulationConfig, args SimulateInput, params map[string]string) config.SimulationConfig {
	cfg := base
	setInt := func(key string, dst *int, v *int) {
		if v != nil {
			*dst = *v
			params[key] = strconv.Itoa(*v)
		}
	}
	setFloat := func(key string, dst *float64, v *float64) {
		if v != nil {
			*dst = *v
			params[key] = strconv.FormatFloat(*v, 'g', -1, 64)
		}
	}

	setInt("nbnodes", &cfg.Nodes, args.Nodes)
	setFloat("edges_per_node", &cfg.EdgesPerNode, args.EdgesPerNode)
	setFloat("prob_unbiased", &cfg.ProbUnbiased, args.ProbUnbiased)
	setInt("init_seeds", &cfg.InitSeeds, args.InitSeeds)
	setFloat("contagiousness", &cfg.Contagiousness, args.Contagiousness)
	setFloat("extra_random_contagiousness", &cfg.ExtraRandomContagiousness, args.ExtraRandomContagiousness)
	setInt("incubation_time", &cfg.IncubationTime, args.IncubationTime)
	setInt("recovery_time", &cfg.RecoveryTime, args.RecoveryTime)
	setInt("max_steps", &cfg.MaxSteps, args.MaxSteps)

	if args.Seed != nil {
		seed := *args.Seed
		cfg.Seed = &seed
		params["seed"] = strconv.FormatUint(seed, 10)
	}
	return cfg
}

func simulateOutput(seed uint64, edges int, truncated bool, r stats.Report) SimulateOutput {
	return SimulateOutput{
		Seed:            seed,
		Nodes:           r.Nodes,
		Edges:           edges,
		Steps:           r.Steps,
		Truncated:       truncated,
		FinalAttackRate: r.FinalAttackRate,
		PeakInfected: PeakOutput{
			Fraction:   r.PeakInfected.Fraction,
			Step:       r.PeakInfected.Step,
			AttackRate: r.PeakInfected.AttackRate,
		},
		PeakInfectious: PeakOutput{
			Fraction:   r.PeakInfectious.Fraction,
			Step:       r.PeakInfectious.Step,
			AttackRate: r.PeakInfectious.AttackRate,
		},
		TotalAttempted:     r.TotalAttempted,
		TotalActual:        r.TotalActual,
		PeakAttempted:      StepPeakOutput{Count: r.PeakAttempted.Count, Step: r.PeakAttempted.Step},
		PeakActual:         StepPeakOutput{Count: r.PeakActual.Count, Step: r.PeakActual.Step},
		GrowthRate:         windowOutput(r.GrowthRate),
		ReproductionNumber: windowOutput(r.ReproductionNumber),
	}
}

func windowOutput(w stats.Window) *WindowOutput {
	if !w.Defined {
		return nil
	}
	return &WindowOutput{Value: w.Value, From: w.From, To: w.To}
}

func timelineEntries(timeline []epidemic.Snapshot) []TimelineEntry {
	entries := make([]TimelineEntry, len(timeline))
	for i, s := range timeline {
		entries[i] = TimelineEntry{
			Step:        s.Step,
			Susceptible: s.Susceptible,
			Exposed:     s.Exposed,
			Infectious:  s.Infectious,
			Recovered:   s.Recovered,
		}
	}
	return entries
}
