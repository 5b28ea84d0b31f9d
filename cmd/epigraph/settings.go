package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"

	"github.com/nvandessel/epigraph/internal/config"
	"github.com/nvandessel/epigraph/internal/logging"
	"github.com/spf13/cobra"
)

// loadSettings loads configuration from --config or the default locations
// and applies --log-level.
func loadSettings(cmd *cobra.Command) (*config.EpigraphConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, nil
}

// newCmdLogger returns the operational logger. It writes to stderr so stdout
// stays clean for results.
func newCmdLogger(cmd *cobra.Command, cfg *config.EpigraphConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// addSimulationFlags registers one flag per simulation parameter. Unset flags
// leave the configured value alone.
func addSimulationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("nbnodes", 0, "Population size")
	f.Float64("edges-per-node", 0, "Mean edges created per joining node")
	f.Float64("prob-unbiased", 0, "Probability of a uniform rather than degree-biased partner (0-1)")
	f.Int("init-seeds", 0, "Number of initial infection draws")
	f.Float64("contagiousness", 0, "Per-contact per-step transmission probability (0-1)")
	f.Float64("extra-random-contagiousness", 0, "Per-step probability of one long-range infection (0-1)")
	f.Int("incubation-time", 0, "Steps spent Exposed")
	f.Int("recovery-time", 0, "Steps from infection to recovery")
	f.Uint64("seed", 0, "Random seed for a reproducible run")
	f.Int("max-steps", 0, "Stop after this many steps (0 = no limit)")
}

// applySimulationFlags copies every changed simulation flag into sim.
func applySimulationFlags(cmd *cobra.Command, sim *config.SimulationConfig) {
	f := cmd.Flags()
	ints := map[string]*int{
		"nbnodes":         &sim.Nodes,
		"init-seeds":      &sim.InitSeeds,
		"incubation-time": &sim.IncubationTime,
		"recovery-time":   &sim.RecoveryTime,
		"max-steps":       &sim.MaxSteps,
	}
	for name, dst := range ints {
		if f.Lookup(name) != nil && f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}

	floats := map[string]*float64{
		"edges-per-node":              &sim.EdgesPerNode,
		"prob-unbiased":               &sim.ProbUnbiased,
		"contagiousness":              &sim.Contagiousness,
		"extra-random-contagiousness": &sim.ExtraRandomContagiousness,
	}
	for name, dst := range floats {
		if f.Lookup(name) != nil && f.Changed(name) {
			*dst, _ = f.GetFloat64(name)
		}
	}

	if f.Lookup("seed") != nil && f.Changed("seed") {
		seed, _ := f.GetUint64("seed")
		sim.Seed = &seed
	}
}

// signalContext returns a context cancelled by the first shutdown signal.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
