package main

import (
	"fmt"

	"github.com/nvandessel/epigraph/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve simulations to an MCP client over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout.

Tools:
  epigraph_simulate  Run a simulation; unset parameters use the configuration
  epigraph_runs      List runs recorded in the project run store

Logs go to stderr. Tool calls are audited to .epigraph/audit.jsonl.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "epigraph",
				Version:  version,
				Root:     root,
				Settings: cfg,
				Logger:   newCmdLogger(cmd, cfg),
			})
			if err != nil {
				return fmt.Errorf("failed to start MCP server: %w", err)
			}
			defer server.Close()

			return server.Run(cmd.Context())
		},
	}
}
