// Package config provides unified configuration loading for epigraph.
// It supports loading from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nvandessel/epigraph/internal/constants"
	"gopkg.in/yaml.v3"
)

// validate is the shared validator instance. Field names in its errors are
// the YAML keys so messages match what users write in config files.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// EpigraphConfig contains all epigraph configuration settings.
type EpigraphConfig struct {
	// Simulation contains the contact network and disease parameters.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Output controls where run results are written.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains settings for operational and step logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig holds the fixed inputs of one run.
type SimulationConfig struct {
	// Nodes is the population size.
	Nodes int `json:"nbnodes" yaml:"nbnodes" validate:"gte=0"`

	// EdgesPerNode controls the mean number of edges each joining node creates.
	EdgesPerNode float64 `json:"edges_per_node" yaml:"edges_per_node" validate:"gt=0"`

	// ProbUnbiased mixes uniform (1.0) and degree-biased (0.0) partner choice.
	ProbUnbiased float64 `json:"prob_unbiased" yaml:"prob_unbiased" validate:"gte=0,lte=1"`

	// InitSeeds is the number of initial infection draws.
	InitSeeds int `json:"init_seeds" yaml:"init_seeds" validate:"gte=0"`

	// Contagiousness is the per-contact, per-step transmission probability.
	Contagiousness float64 `json:"contagiousness" yaml:"contagiousness" validate:"gte=0,lte=1"`

	// ExtraRandomContagiousness is the per-step probability of one long-range infection.
	ExtraRandomContagiousness float64 `json:"extra_random_contagiousness" yaml:"extra_random_contagiousness" validate:"gte=0,lte=1"`

	// IncubationTime is the number of steps spent Exposed.
	IncubationTime int `json:"incubation_time" yaml:"incubation_time" validate:"gt=0"`

	// RecoveryTime is the number of steps from infection to recovery.
	RecoveryTime int `json:"recovery_time" yaml:"recovery_time" validate:"gtfield=IncubationTime"`

	// Seed makes the run reproducible. Nil means a fresh seed per run.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// MaxSteps stops a run after this many steps. 0 means no limit.
	MaxSteps int `json:"max_steps" yaml:"max_steps" validate:"gte=0"`
}

// OutputConfig configures where results go.
type OutputConfig struct {
	// Dir receives timeline.tsv, generations.tsv and summary.tsv. Empty means
	// the summary is printed and no files are written.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Store records each run in the project's SQLite run store.
	Store bool `json:"store" yaml:"store"`

	// MetricsFile receives a Prometheus textfile export of the run metrics.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
}

// LoggingConfig configures epigraph's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables step tracing to .epigraph/steps.jsonl.
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=info debug trace"`
}

// Default returns an EpigraphConfig with sensible defaults.
func Default() *EpigraphConfig {
	return &EpigraphConfig{
		Simulation: SimulationConfig{
			Nodes:                     constants.DefaultNodes,
			EdgesPerNode:              constants.DefaultEdgesPerNode,
			ProbUnbiased:              constants.DefaultProbUnbiased,
			InitSeeds:                 constants.DefaultInitSeeds,
			Contagiousness:            constants.DefaultContagiousness,
			ExtraRandomContagiousness: constants.DefaultExtraRandomContagiousness,
			IncubationTime:            constants.DefaultIncubationTime,
			RecoveryTime:              constants.DefaultRecoveryTime,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.epigraph/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.DirName, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.epigraph/config.yaml -> environment variables
func Load() (*EpigraphConfig, error) {
	return LoadWithPath("")
}

// LoadWithPath is Load with an explicit config file. An empty path falls back
// to ~/.epigraph/config.yaml when it exists.
func LoadWithPath(path string) (*EpigraphConfig, error) {
	config := Default()

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*EpigraphConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Output.Dir = expandEnvVars(config.Output.Dir)
	config.Output.MetricsFile = expandEnvVars(config.Output.MetricsFile)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *EpigraphConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError reports the first failing field by its YAML path.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		param := e.Param()

		switch e.Tag() {
		case "gt":
			return fmt.Errorf("%s must be greater than %s, got %v", field, param, e.Value())
		case "gte":
			return fmt.Errorf("%s must be at least %s, got %v", field, param, e.Value())
		case "lte":
			return fmt.Errorf("%s must not exceed %s, got %v", field, param, e.Value())
		case "gtfield":
			return fmt.Errorf("%s must exceed incubation_time, got %v", field, e.Value())
		case "oneof":
			return fmt.Errorf("invalid %s: %v (valid: %s, or empty for default)",
				field, e.Value(), strings.ReplaceAll(param, " ", ", "))
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}

// applyEnvOverrides applies environment variable overrides to the config.
// Unparseable numeric values are reported rather than silently ignored.
func applyEnvOverrides(config *EpigraphConfig) error {
	sim := &config.Simulation

	ints := map[string]*int{
		"EPIGRAPH_NBNODES":         &sim.Nodes,
		"EPIGRAPH_INIT_SEEDS":      &sim.InitSeeds,
		"EPIGRAPH_INCUBATION_TIME": &sim.IncubationTime,
		"EPIGRAPH_RECOVERY_TIME":   &sim.RecoveryTime,
		"EPIGRAPH_MAX_STEPS":       &sim.MaxSteps,
	}
	for name, dst := range ints {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s=%q: %w", name, v, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"EPIGRAPH_EDGES_PER_NODE":              &sim.EdgesPerNode,
		"EPIGRAPH_PROB_UNBIASED":               &sim.ProbUnbiased,
		"EPIGRAPH_CONTAGIOUSNESS":              &sim.Contagiousness,
		"EPIGRAPH_EXTRA_RANDOM_CONTAGIOUSNESS": &sim.ExtraRandomContagiousness,
	}
	for name, dst := range floats {
		if v := os.Getenv(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s=%q: %w", name, v, err)
			}
			*dst = f
		}
	}

	if v := os.Getenv("EPIGRAPH_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("EPIGRAPH_SEED=%q: %w", v, err)
		}
		sim.Seed = &seed
	}

	if v := os.Getenv("EPIGRAPH_OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}

	if v := os.Getenv("EPIGRAPH_STORE"); v != "" {
		config.Output.Store = v == "true" || v == "1"
	}

	if v := os.Getenv("EPIGRAPH_METRICS_FILE"); v != "" {
		config.Output.MetricsFile = v
	}

	if v := os.Getenv("EPIGRAPH_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
