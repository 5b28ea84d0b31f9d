package main

import (
	"fmt"
	"os"

	"github.com/nvandessel/epigraph/internal/network"
	"github.com/nvandessel/epigraph/internal/report"
	"github.com/nvandessel/epigraph/internal/simulation"
	"github.com/nvandessel/epigraph/internal/visualization"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build a contact network without running an epidemic",
		Long: `Grow a contact network with the configured network parameters and
report its degree distribution, or render it.

Examples:
  epigraph graph --nbnodes 1000 --seed 7                  # Degree statistics
  epigraph graph --nbnodes 200 --format dot > net.dot     # Graphviz DOT
  epigraph graph --nbnodes 200 --format json -o net.json  # Node and edge lists`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			formatName, _ := cmd.Flags().GetString("format")
			outFile, _ := cmd.Flags().GetString("output")

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			applySimulationFlags(cmd, &cfg.Simulation)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := newCmdLogger(cmd, cfg)
			src := simulation.NewSource(cfg.Simulation)
			g, err := network.Build(cfg.Simulation.Nodes, cfg.Simulation.EdgesPerNode, cfg.Simulation.ProbUnbiased, src,
				network.WithLogger(logger))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outFile, err)
				}
				defer f.Close()
				out = f
			}

			if formatName == "" {
				degree := g.DegreeStats()
				if jsonOut {
					return report.WriteJSON(out, map[string]interface{}{
						"seed":   src.Seed(),
						"nodes":  g.NumNodes(),
						"edges":  g.NumEdges(),
						"degree": degree,
					})
				}
				fmt.Fprintln(out, titleStyle.Render("Contact network"))
				fmt.Fprintf(out, "  %s %d\n", labelStyle.Render("Seed"), src.Seed())
				fmt.Fprintf(out, "  %s %d\n", labelStyle.Render("Nodes"), g.NumNodes())
				fmt.Fprintf(out, "  %s %d\n", labelStyle.Render("Edges"), g.NumEdges())
				fmt.Fprintf(out, "  %s min %d, max %d, mean %.2f\n", labelStyle.Render("Degree"), degree.Min, degree.Max, degree.Mean)
				fmt.Fprintf(out, "  %s %d\n", labelStyle.Render("Isolated nodes"), degree.Isolated)
				return nil
			}

			format, err := visualization.ParseFormat(formatName)
			if err != nil {
				return err
			}
			switch format {
			case visualization.FormatJSON:
				data, err := visualization.RenderJSON(g, nil)
				if err != nil {
					return err
				}
				return report.WriteJSON(out, data)
			default:
				dot, err := visualization.RenderDOT(g, nil)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, dot)
				return err
			}
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().String("format", "", "Render the network: dot or json (default: degree statistics)")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	return cmd
}
