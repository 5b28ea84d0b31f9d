package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/epigraph/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configKeys lists the settable keys in display order.
var configKeys = []string{
	"simulation.nbnodes",
	"simulation.edges_per_node",
	"simulation.prob_unbiased",
	"simulation.init_seeds",
	"simulation.contagiousness",
	"simulation.extra_random_contagiousness",
	"simulation.incubation_time",
	"simulation.recovery_time",
	"simulation.seed",
	"simulation.max_steps",
	"output.dir",
	"output.store",
	"output.metrics_file",
	"logging.level",
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage epigraph configuration",
		Long: `View and modify epigraph configuration settings.

Configuration is stored in ~/.epigraph/config.yaml unless --config names
another file. EPIGRAPH_* environment variables override the file.

Examples:
  epigraph config list                              # Show all settings
  epigraph config get simulation.contagiousness     # Get a specific setting
  epigraph config set simulation.nbnodes 50000      # Set a setting
  epigraph config validate                          # Check the effective configuration`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigValidateCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(cfg)
			}

			for _, key := range configKeys {
				value, _ := getConfigValue(cfg, key)
				fmt.Fprintf(out, "  %-40s %s\n", key+":", value)
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key, value := args[0], args[1]

			path, err := configFilePath(cmd)
			if err != nil {
				return err
			}

			// Start from the file alone so environment overrides are not persisted.
			cfg, err := loadConfigFile(path)
			if err != nil {
				return err
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}

			if err := saveConfig(path, cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status": "updated",
					"key":    key,
					"value":  value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			verr := cfg.Validate()
			if jsonOut {
				result := map[string]interface{}{"valid": verr == nil}
				if verr != nil {
					result["error"] = verr.Error()
				}
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(result); err != nil {
					return err
				}
				return verr
			}
			if verr != nil {
				return fmt.Errorf("invalid configuration: %w", verr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	}
}

// configFilePath returns --config or ~/.epigraph/config.yaml.
func configFilePath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

// loadConfigFile reads path, or returns defaults when it does not exist yet.
func loadConfigFile(path string) (*config.EpigraphConfig, error) {
	cfg, err := config.LoadFromFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.EpigraphConfig, key string) (string, bool) {
	sim := cfg.Simulation
	switch key {
	case "simulation.nbnodes":
		return strconv.Itoa(sim.Nodes), true
	case "simulation.edges_per_node":
		return formatFloat(sim.EdgesPerNode), true
	case "simulation.prob_unbiased":
		return formatFloat(sim.ProbUnbiased), true
	case "simulation.init_seeds":
		return strconv.Itoa(sim.InitSeeds), true
	case "simulation.contagiousness":
		return formatFloat(sim.Contagiousness), true
	case "simulation.extra_random_contagiousness":
		return formatFloat(sim.ExtraRandomContagiousness), true
	case "simulation.incubation_time":
		return strconv.Itoa(sim.IncubationTime), true
	case "simulation.recovery_time":
		return strconv.Itoa(sim.RecoveryTime), true
	case "simulation.seed":
		if sim.Seed == nil {
			return "(random)", true
		}
		return strconv.FormatUint(*sim.Seed, 10), true
	case "simulation.max_steps":
		return strconv.Itoa(sim.MaxSteps), true
	case "output.dir":
		return valueOrDefault(cfg.Output.Dir, "(not set)"), true
	case "output.store":
		return strconv.FormatBool(cfg.Output.Store), true
	case "output.metrics_file":
		return valueOrDefault(cfg.Output.MetricsFile, "(not set)"), true
	case "logging.level":
		return valueOrDefault(cfg.Logging.Level, "info"), true
	default:
		return "", false
	}
}

// setConfigValue sets a configuration value by dot-notation key. Range checks
// are left to EpigraphConfig.Validate.
func setConfigValue(cfg *config.EpigraphConfig, key, value string) error {
	sim := &cfg.Simulation

	setInt := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %s", key, value)
		}
		*dst = n
		return nil
	}
	setFloat := func(dst *float64) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %s", key, value)
		}
		*dst = f
		return nil
	}

	switch key {
	case "simulation.nbnodes":
		return setInt(&sim.Nodes)
	case "simulation.edges_per_node":
		return setFloat(&sim.EdgesPerNode)
	case "simulation.prob_unbiased":
		return setFloat(&sim.ProbUnbiased)
	case "simulation.init_seeds":
		return setInt(&sim.InitSeeds)
	case "simulation.contagiousness":
		return setFloat(&sim.Contagiousness)
	case "simulation.extra_random_contagiousness":
		return setFloat(&sim.ExtraRandomContagiousness)
	case "simulation.incubation_time":
		return setInt(&sim.IncubationTime)
	case "simulation.recovery_time":
		return setInt(&sim.RecoveryTime)
	case "simulation.seed":
		if value == "" || value == "random" {
			sim.Seed = nil
			return nil
		}
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %s (use an unsigned integer or \"random\")", value)
		}
		sim.Seed = &seed
	case "simulation.max_steps":
		return setInt(&sim.MaxSteps)
	case "output.dir":
		cfg.Output.Dir = value
	case "output.store":
		cfg.Output.Store = value == "true" || value == "1"
	case "output.metrics_file":
		cfg.Output.MetricsFile = value
	case "logging.level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// saveConfig writes the configuration to path.
func saveConfig(path string, cfg *config.EpigraphConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// valueOrDefault returns the value if non-empty, otherwise the default.
func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
