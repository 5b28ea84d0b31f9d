package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/nvandessel/epigraph/internal/report"
	"github.com/nvandessel/epigraph/internal/store"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs recorded with --store",
		Long: `List, show and delete simulation runs kept in .epigraph/runs.db.

Run ids may be abbreviated to any unique prefix.

Examples:
  epigraph runs list                 # Newest runs first
  epigraph runs show 3f2a            # Summary of one run
  epigraph runs show 3f2a --timeline # Summary plus the S/E/I/R timeline
  epigraph runs delete 3f2a          # Remove a run`,
	}

	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsDeleteCmd(),
	)

	return cmd
}

// openRunStore opens the run store under --root.
func openRunStore(cmd *cobra.Command) (*store.SQLiteRunStore, error) {
	root, _ := cmd.Flags().GetString("root")
	runStore, err := store.NewSQLiteRunStore(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return runStore, nil
}

func newRunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			runStore, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			runs, err := runStore.ListRuns(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if runs == nil {
					runs = []store.Run{}
				}
				return report.WriteJSON(out, map[string]interface{}{
					"runs":  runs,
					"count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs stored. Use 'epigraph run --store' to record one.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSEED\tNODES\tSTEPS\tATTACK RATE")
			for _, r := range runs {
				steps := fmt.Sprintf("%d", r.Steps)
				if r.Truncated {
					steps += "+"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%.4f\n",
					shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Seed, r.Nodes, steps, r.AttackRate)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 = all)")

	return cmd
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			withTimeline, _ := cmd.Flags().GetBool("timeline")
			ctx := context.Background()

			runStore, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			id, err := runStore.ResolveID(ctx, args[0])
			if err != nil {
				return runLookupError(args[0], err)
			}
			run, err := runStore.GetRun(ctx, id)
			if err != nil {
				return runLookupError(args[0], err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				result := map[string]interface{}{"run": run}
				if withTimeline {
					timeline, err := runStore.Timeline(ctx, id)
					if err != nil {
						return fmt.Errorf("failed to load timeline: %w", err)
					}
					generations, err := runStore.Generations(ctx, id)
					if err != nil {
						return fmt.Errorf("failed to load generations: %w", err)
					}
					result["timeline"] = timeline
					result["generations"] = generations
				}
				return report.WriteJSON(out, result)
			}

			printSummary(out, summaryView{
				RunID:     run.ID,
				Seed:      run.Seed,
				Edges:     run.Edges,
				Truncated: run.Truncated,
				Report:    run.Report,
			})

			if withTimeline {
				timeline, err := runStore.Timeline(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to load timeline: %w", err)
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, titleStyle.Render("Timeline (step S E I R)"))
				return report.WriteTimeline(out, timeline)
			}
			return nil
		},
	}

	cmd.Flags().Bool("timeline", false, "Include the per-step compartment counts")

	return cmd
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			ctx := context.Background()

			runStore, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			id, err := runStore.ResolveID(ctx, args[0])
			if err != nil {
				return runLookupError(args[0], err)
			}
			if err := runStore.DeleteRun(ctx, id); err != nil {
				return runLookupError(args[0], err)
			}

			if jsonOut {
				return report.WriteJSON(cmd.OutOrStdout(), map[string]string{
					"status": "deleted",
					"id":     id,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", id)
			return nil
		},
	}
}

func runLookupError(prefix string, err error) error {
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		return fmt.Errorf("no run matches %q", prefix)
	case errors.Is(err, store.ErrAmbiguousID):
		return fmt.Errorf("%q matches more than one run, use a longer prefix", prefix)
	default:
		return err
	}
}

// shortID abbreviates a run id for table output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
