package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/epigraph/internal/epidemic"
	_ "modernc.org/sqlite" // SQLite driver
)

// timeFormat is fixed width so created_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRunStore implements RunStore using SQLite for persistence.
type SQLiteRunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

var _ RunStore = (*SQLiteRunStore)(nil)

// NewSQLiteRunStore creates a new SQLiteRunStore rooted at projectRoot.
// It creates the database at .epigraph/runs.db.
func NewSQLiteRunStore(projectRoot string) (*SQLiteRunStore, error) {
	dir := LocalPath(projectRoot)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .epigraph directory: %w", err)
	}

	return OpenSQLiteRunStore(filepath.Join(dir, DBFile))
}

// OpenSQLiteRunStore opens the run store at an explicit database path.
func OpenSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath}, nil
}

// DBPath returns the database file path.
func (s *SQLiteRunStore) DBPath() string {
	return s.dbPath
}

// SaveRun stores a run, its timeline and its generation counts in one transaction.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, run *Run, timeline []epidemic.Snapshot, generations []int) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	reportJSON, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, seed, nodes, edges, steps, attack_rate, truncated, config, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(timeFormat),
		strconv.FormatUint(run.Seed, 10),
		run.Nodes,
		run.Edges,
		run.Steps,
		run.AttackRate,
		boolToInt(run.Truncated),
		string(configJSON),
		string(reportJSON),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stepStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO timeline (run_id, step, susceptible, exposed, infectious, recovered)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare timeline insert: %w", err)
	}
	defer stepStmt.Close()

	for _, snap := range timeline {
		if _, err := stepStmt.ExecContext(ctx, run.ID, snap.Step,
			snap.Susceptible, snap.Exposed, snap.Infectious, snap.Recovered); err != nil {
			return fmt.Errorf("failed to insert step %d: %w", snap.Step, err)
		}
	}

	genStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO generations (run_id, generation, count) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare generation insert: %w", err)
	}
	defer genStmt.Close()

	for g, count := range generations {
		if _, err := genStmt.ExecContext(ctx, run.ID, g, count); err != nil {
			return fmt.Errorf("failed to insert generation %d: %w", g, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, created_at, seed, nodes, edges, steps, attack_rate, truncated, config, report`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run                    Run
		createdAt, seed        string
		truncated              int
		configJSON, reportJSON string
	)
	if err := row.Scan(&run.ID, &createdAt, &seed, &run.Nodes, &run.Edges, &run.Steps,
		&run.AttackRate, &truncated, &configJSON, &reportJSON); err != nil {
		return nil, err
	}

	var err error
	if run.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("run %s: bad created_at %q: %w", run.ID, createdAt, err)
	}
	if run.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, fmt.Errorf("run %s: bad seed %q: %w", run.ID, seed, err)
	}
	run.Truncated = truncated != 0
	if err := json.Unmarshal([]byte(configJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("run %s: failed to unmarshal config: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(reportJSON), &run.Report); err != nil {
		return nil, fmt.Errorf("run %s: failed to unmarshal report: %w", run.ID, err)
	}
	return &run, nil
}

// GetRun retrieves a run by its full id.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ResolveID expands a unique id prefix to the full run id.
func (s *SQLiteRunStore) ResolveID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrRunNotFound)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escaped+"%")
	if err != nil {
		return "", fmt.Errorf("failed to resolve run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to resolve run id: %w", err)
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
	}
}

// ListRuns returns stored runs, newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Timeline returns the stored snapshots of a run in step order.
func (s *SQLiteRunStore) Timeline(ctx context.Context, id string) ([]epidemic.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT step, susceptible, exposed, infectious, recovered
		FROM timeline WHERE run_id = ? ORDER BY step`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	defer rows.Close()

	var timeline []epidemic.Snapshot
	for rows.Next() {
		var snap epidemic.Snapshot
		if err := rows.Scan(&snap.Step, &snap.Susceptible, &snap.Exposed, &snap.Infectious, &snap.Recovered); err != nil {
			return nil, fmt.Errorf("failed to scan timeline: %w", err)
		}
		timeline = append(timeline, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	return timeline, nil
}

// Generations returns the stored per-generation infection counts of a run.
func (s *SQLiteRunStore) Generations(ctx context.Context, id string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT count FROM generations WHERE run_id = ? ORDER BY generation`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	var counts []int
	for rows.Next() {
		var c int
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	return counts, nil
}

// DeleteRun removes a run. Its timeline and generations cascade via foreign keys.
func (s *SQLiteRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
