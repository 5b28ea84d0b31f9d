package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvandessel/epigraph/internal/config"
	"github.com/nvandessel/epigraph/internal/epidemic"
	"github.com/nvandessel/epigraph/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteRunStore {
	t.Helper()
	s, err := NewSQLiteRunStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() *Run {
	seed := uint64(math.MaxUint64)
	cfg := config.Default().Simulation
	cfg.Seed = &seed
	return &Run{
		Seed:       seed,
		Nodes:      100,
		Edges:      290,
		Steps:      30,
		AttackRate: 0.01,
		Config:     cfg,
		Report: stats.Report{
			Nodes:           100,
			Steps:           30,
			FinalAttackRate: 0.01,
			PeakAttempted:   epidemic.StepPeak{Count: 3, Step: 9},
			GrowthRate:      stats.Window{Value: 0.2, From: 1, To: 21, Defined: true},
		},
	}
}

func sampleTimeline() []epidemic.Snapshot {
	return []epidemic.Snapshot{
		{Step: 0, Susceptible: 99, Exposed: 1},
		{Step: 1, Susceptible: 98, Exposed: 1, Infectious: 1},
		{Step: 2, Susceptible: 98, Infectious: 1, Recovered: 1},
	}
}

func TestNewSQLiteRunStore(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := NewSQLiteRunStore(tmpDir)
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	defer s.Close()

	dbPath := filepath.Join(tmpDir, ".epigraph", "runs.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("runs.db was not created")
	}
	if s.DBPath() != dbPath {
		t.Errorf("DBPath() = %q, want %q", s.DBPath(), dbPath)
	}
}

func TestSQLiteRunStore_SaveGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, s.SaveRun(ctx, run, sampleTimeline(), []int{1, 2}))

	assert.Len(t, run.ID, 36, "SaveRun should assign a UUID")
	assert.False(t, run.CreatedAt.IsZero(), "SaveRun should set CreatedAt")

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, uint64(math.MaxUint64), got.Seed)
	assert.Equal(t, 100, got.Nodes)
	assert.Equal(t, 290, got.Edges)
	assert.Equal(t, 30, got.Steps)
	assert.InDelta(t, 0.01, got.AttackRate, 1e-12)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	require.NotNil(t, got.Config.Seed)
	assert.Equal(t, uint64(math.MaxUint64), *got.Config.Seed)
	assert.Equal(t, run.Report, got.Report)
}

func TestSQLiteRunStore_TimelineAndGenerations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, s.SaveRun(ctx, run, sampleTimeline(), []int{1, 0, 4}))

	timeline, err := s.Timeline(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleTimeline(), timeline)

	gens, err := s.Generations(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 4}, gens)
}

func TestSQLiteRunStore_GetRunNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSQLiteRunStore_ListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		run := sampleRun()
		run.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		run.Nodes = 10 * (i + 1)
		require.NoError(t, s.SaveRun(ctx, run, nil, nil))
		ids = append(ids, run.ID)
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, ids[2], limited[0].ID)
}

func TestSQLiteRunStore_ListRunsEmpty(t *testing.T) {
	s := newTestStore(t)

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSQLiteRunStore_ResolveID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := sampleRun()
	a.ID = "abc-111"
	b := sampleRun()
	b.ID = "abd-222"
	require.NoError(t, s.SaveRun(ctx, a, nil, nil))
	require.NoError(t, s.SaveRun(ctx, b, nil, nil))

	tests := []struct {
		name    string
		prefix  string
		want    string
		wantErr error
	}{
		{"unique prefix", "abc", "abc-111", nil},
		{"full id", "abd-222", "abd-222", nil},
		{"ambiguous", "ab", "", ErrAmbiguousID},
		{"no match", "zzz", "", ErrRunNotFound},
		{"wildcard is literal", "a%", "", ErrRunNotFound},
		{"empty", "", "", ErrRunNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ResolveID(ctx, tt.prefix)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSQLiteRunStore_DeleteRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, s.SaveRun(ctx, run, sampleTimeline(), []int{1}))
	require.NoError(t, s.DeleteRun(ctx, run.ID))

	_, err := s.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)

	timeline, err := s.Timeline(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, timeline, "timeline rows should cascade")

	gens, err := s.Generations(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, gens, "generation rows should cascade")

	assert.ErrorIs(t, s.DeleteRun(ctx, run.ID), ErrRunNotFound)
}

func TestSQLiteRunStore_DuplicateIDRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := sampleRun()
	require.NoError(t, s.SaveRun(ctx, first, sampleTimeline(), nil))

	dup := sampleRun()
	dup.ID = first.ID
	assert.Error(t, s.SaveRun(ctx, dup, []epidemic.Snapshot{{Step: 99}}, nil))

	timeline, err := s.Timeline(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, timeline, 3)
}

func TestSQLiteRunStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()

	s1, err := NewSQLiteRunStore(tmpDir)
	require.NoError(t, err)
	run := sampleRun()
	require.NoError(t, s1.SaveRun(ctx, run, sampleTimeline(), []int{1}))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteRunStore(tmpDir)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Nodes, got.Nodes)
}
