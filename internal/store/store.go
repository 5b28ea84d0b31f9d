// Package store persists simulation results so runs can be listed and
// re-displayed later. Only results are stored, never the contact network.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/epigraph/internal/config"
	"github.com/nvandessel/epigraph/internal/epidemic"
	"github.com/nvandessel/epigraph/internal/stats"
)

// ErrRunNotFound is returned when no run matches an id.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousID is returned when an id prefix matches more than one run.
var ErrAmbiguousID = errors.New("ambiguous run id prefix")

// Run is the stored summary of one simulation run.
type Run struct {
	ID         string                  `json:"id"`
	CreatedAt  time.Time               `json:"created_at"`
	Seed       uint64                  `json:"seed"`
	Nodes      int                     `json:"nodes"`
	Edges      int                     `json:"edges"`
	Steps      int                     `json:"steps"`
	AttackRate float64                 `json:"attack_rate"`
	Truncated  bool                    `json:"truncated"`
	Config     config.SimulationConfig `json:"config"`
	Report     stats.Report            `json:"report"`
}

// RunStore defines the interface for recording and querying runs.
type RunStore interface {
	// SaveRun stores run with its timeline and generation counts. An empty
	// run.ID is filled with a new UUID and a zero CreatedAt with the current time.
	SaveRun(ctx context.Context, run *Run, timeline []epidemic.Snapshot, generations []int) error

	GetRun(ctx context.Context, id string) (*Run, error)

	// ResolveID expands a unique id prefix to the full run id.
	ResolveID(ctx context.Context, prefix string) (string, error)

	// ListRuns returns the newest runs first. limit <= 0 returns all runs.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	Timeline(ctx context.Context, id string) ([]epidemic.Snapshot, error)
	Generations(ctx context.Context, id string) ([]int, error)
	DeleteRun(ctx context.Context, id string) error

	Close() error
}
