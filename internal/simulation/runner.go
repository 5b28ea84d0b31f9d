package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nvandessel/epigraph/internal/config"
	"github.com/nvandessel/epigraph/internal/epidemic"
	"github.com/nvandessel/epigraph/internal/logging"
	"github.com/nvandessel/epigraph/internal/metrics"
	"github.com/nvandessel/epigraph/internal/network"
	"github.com/nvandessel/epigraph/internal/randsrc"
	"github.com/nvandessel/epigraph/internal/stats"
)

// Options are the optional collaborators of a run. The zero value is usable.
type Options struct {
	// Logger receives operational logs. Defaults to slog.Default().
	Logger *slog.Logger

	// StepLogger receives one JSONL record per step. Nil disables step tracing.
	StepLogger *logging.StepLogger

	// Metrics, when set, is updated after the build and after every step.
	Metrics *metrics.Registry

	// MaxEdgeAttempts overrides the builder's per-node attempt cap when positive.
	MaxEdgeAttempts int
}

// Result is everything a finished run produced.
type Result struct {
	Seed        uint64                  `json:"seed"`
	Config      config.SimulationConfig `json:"config"`
	Edges       int                     `json:"edges"`
	Degree      network.DegreeStats     `json:"degree"`
	SeedsPlaced int                     `json:"seeds_placed"`
	Truncated   bool                    `json:"truncated"`
	Timeline    []epidemic.Snapshot     `json:"timeline"`
	Generations []int                   `json:"generations"`
	Report      stats.Report            `json:"report"`

	// Graph and States describe the final network state for rendering.
	Graph  *network.Graph       `json:"-"`
	States []epidemic.NodeState `json:"-"`
}

// NewSource returns the random source for cfg: seeded when cfg.Seed is set,
// otherwise freshly seeded.
func NewSource(cfg config.SimulationConfig) *randsrc.PCG {
	if cfg.Seed != nil {
		return randsrc.New(*cfg.Seed)
	}
	return randsrc.NewUnseeded()
}

// EngineParams extracts the disease parameters from cfg.
func EngineParams(cfg config.SimulationConfig) epidemic.Params {
	return epidemic.Params{
		IncubationTime:            cfg.IncubationTime,
		RecoveryTime:              cfg.RecoveryTime,
		Contagiousness:            cfg.Contagiousness,
		ExtraRandomContagiousness: cfg.ExtraRandomContagiousness,
	}
}

// Run executes one simulation. ctx is checked between steps; a cancelled
// context aborts the run with ctx's error. A positive cfg.MaxSteps stops the
// run early and marks the result Truncated.
//
// Invariant violations inside the engine surface as an error wrapping
// epidemic.ErrInvariantViolation.
func Run(ctx context.Context, cfg config.SimulationConfig, src randsrc.Source, opts Options) (res *Result, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok || !errors.Is(perr, epidemic.ErrInvariantViolation) {
				panic(r)
			}
			logger.Error("simulation aborted", "error", perr)
			res, err = nil, fmt.Errorf("simulation: aborted: %w", perr)
		}
	}()

	buildOpts := []network.Option{network.WithLogger(logger)}
	if opts.MaxEdgeAttempts > 0 {
		buildOpts = append(buildOpts, network.WithMaxAttempts(opts.MaxEdgeAttempts))
	}

	g, err := network.Build(cfg.Nodes, cfg.EdgesPerNode, cfg.ProbUnbiased, src, buildOpts...)
	if err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}

	degree := g.DegreeStats()
	logger.Debug("degree stats",
		"min", degree.Min, "max", degree.Max, "mean", degree.Mean, "isolated", degree.Isolated)
	if opts.Metrics != nil {
		degrees := make([]int, g.NumNodes())
		for i := range degrees {
			degrees[i] = g.Degree(i)
		}
		opts.Metrics.RecordGraph(g.NumNodes(), g.NumEdges(), degrees)
	}

	engine, err := epidemic.New(g, EngineParams(cfg), src)
	if err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}

	placed := engine.Seed(cfg.InitSeeds)
	logger.Info("infections seeded", "draws", cfg.InitSeeds, "placed", placed)

	timeline := []epidemic.Snapshot{engine.Counts()}
	if opts.Metrics != nil {
		opts.Metrics.SetCompartments(engine.Counts())
	}
	logStep(ctx, logger, opts.StepLogger, engine.Counts(), epidemic.StepCounts{})

	truncated := false
	for !engine.Done() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation: cancelled at step %d: %w", engine.StepIndex(), err)
		}
		if cfg.MaxSteps > 0 && engine.StepIndex() >= cfg.MaxSteps {
			truncated = true
			logger.Warn("step ceiling reached", "max_steps", cfg.MaxSteps, "active", engine.PoolSize())
			break
		}

		snap := engine.Step()
		counts := engine.LastStep()
		timeline = append(timeline, snap)

		if opts.Metrics != nil {
			opts.Metrics.RecordStep(snap, counts)
		}
		logStep(ctx, logger, opts.StepLogger, snap, counts)
	}

	generations := engine.Generations()
	report := stats.Compute(g.NumNodes(), timeline, generations, engine.Tally())

	logger.Info("simulation finished",
		"steps", report.Steps,
		"attack_rate", report.FinalAttackRate,
		"truncated", truncated)

	res = &Result{
		Config:      cfg,
		Edges:       g.NumEdges(),
		Degree:      degree,
		SeedsPlaced: placed,
		Truncated:   truncated,
		Timeline:    timeline,
		Generations: generations,
		Report:      report,
		Graph:       g,
		States:      engine.States(),
	}
	if s, ok := src.(interface{ Seed() uint64 }); ok {
		res.Seed = s.Seed()
	}
	return res, nil
}

func logStep(ctx context.Context, logger *slog.Logger, sl *logging.StepLogger, snap epidemic.Snapshot, counts epidemic.StepCounts) {
	logger.Log(ctx, logging.LevelTrace, "step",
		"step", snap.Step,
		"susceptible", snap.Susceptible,
		"exposed", snap.Exposed,
		"infectious", snap.Infectious,
		"recovered", snap.Recovered,
		"attempted", counts.Attempted(),
		"actual", counts.Actual())

	if sl == nil {
		return
	}
	sl.Log(map[string]any{
		"step":        snap.Step,
		"susceptible": snap.Susceptible,
		"exposed":     snap.Exposed,
		"infectious":  snap.Infectious,
		"recovered":   snap.Recovered,
		"attempted":   counts.Attempted(),
		"actual":      counts.Actual(),
	})
}
