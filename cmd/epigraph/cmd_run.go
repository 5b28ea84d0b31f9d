package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/nvandessel/epigraph/internal/logging"
	"github.com/nvandessel/epigraph/internal/metrics"
	"github.com/nvandessel/epigraph/internal/report"
	"github.com/nvandessel/epigraph/internal/simulation"
	"github.com/nvandessel/epigraph/internal/store"
	"github.com/nvandessel/epigraph/internal/visualization"
	"github.com/spf13/cobra"
)

// runOutput is the --json form of a finished run.
type runOutput struct {
	RunID string `json:"run_id,omitempty"`
	*simulation.Result
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an epidemic simulation",
		Long: `Build a contact network, seed infections and step the epidemic until
no node is Exposed or Infectious.

Parameters come from the config file and EPIGRAPH_* environment variables;
flags override both.

Examples:
  epigraph run                                  # Run with configured defaults
  epigraph run --nbnodes 1000 --seed 42         # Small reproducible run
  epigraph run --out results/ --store           # Write TSV files and record the run
  epigraph run --nbnodes 500 --dot final.dot    # Render the final network state`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			dotFile, _ := cmd.Flags().GetString("dot")

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			applySimulationFlags(cmd, &cfg.Simulation)
			if cmd.Flags().Changed("out") {
				cfg.Output.Dir, _ = cmd.Flags().GetString("out")
			}
			if cmd.Flags().Changed("store") {
				cfg.Output.Store, _ = cmd.Flags().GetBool("store")
			}
			if cmd.Flags().Changed("metrics-file") {
				cfg.Output.MetricsFile, _ = cmd.Flags().GetString("metrics-file")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := newCmdLogger(cmd, cfg)
			runID := uuid.NewString()

			stepLog := logging.NewStepLogger(store.LocalPath(root), cfg.Logging.Level, runID)
			defer stepLog.Close()

			var reg *metrics.Registry
			if cfg.Output.MetricsFile != "" {
				reg = metrics.NewRegistry()
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			res, err := simulation.Run(ctx, cfg.Simulation, simulation.NewSource(cfg.Simulation), simulation.Options{
				Logger:     logger,
				StepLogger: stepLog,
				Metrics:    reg,
			})
			if err != nil {
				return err
			}

			if reg != nil {
				if err := reg.WriteTextfile(cfg.Output.MetricsFile); err != nil {
					return fmt.Errorf("failed to write metrics: %w", err)
				}
			}

			if cfg.Output.Dir != "" {
				if err := report.WriteFiles(cfg.Output.Dir, res.Seed, res.Timeline, res.Generations, res.Report); err != nil {
					return fmt.Errorf("failed to write results: %w", err)
				}
				logger.Info("results written", "dir", cfg.Output.Dir)
			}

			if dotFile != "" {
				dot, err := visualization.RenderDOT(res.Graph, res.States)
				if err != nil {
					return fmt.Errorf("failed to render graph: %w", err)
				}
				if err := os.WriteFile(dotFile, []byte(dot), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", dotFile, err)
				}
			}

			storedID := ""
			if cfg.Output.Store {
				runStore, err := store.NewSQLiteRunStore(root)
				if err != nil {
					return fmt.Errorf("failed to open run store: %w", err)
				}
				defer runStore.Close()

				run := &store.Run{
					ID:         runID,
					Seed:       res.Seed,
					Nodes:      res.Report.Nodes,
					Edges:      res.Edges,
					Steps:      res.Report.Steps,
					AttackRate: res.Report.FinalAttackRate,
					Truncated:  res.Truncated,
					Config:     cfg.Simulation,
					Report:     res.Report,
				}
				if err := runStore.SaveRun(ctx, run, res.Timeline, res.Generations); err != nil {
					return fmt.Errorf("failed to store run: %w", err)
				}
				storedID = runID
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return report.WriteJSON(out, runOutput{RunID: storedID, Result: res})
			}

			printSummary(out, summaryView{
				RunID:       storedID,
				Seed:        res.Seed,
				Edges:       res.Edges,
				MeanDegree:  res.Degree.Mean,
				SeedsPlaced: res.SeedsPlaced,
				Truncated:   res.Truncated,
				Report:      res.Report,
			})
			if cfg.Output.Dir != "" {
				fmt.Fprintf(out, "\nResults written to %s\n", cfg.Output.Dir)
			}
			return nil
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().String("out", "", "Directory for timeline.tsv, generations.tsv and summary.tsv")
	cmd.Flags().Bool("store", false, "Record the run in the project run store")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics for the run to this file")
	cmd.Flags().String("dot", "", "Write the final network state as Graphviz DOT to this file")

	return cmd
}
