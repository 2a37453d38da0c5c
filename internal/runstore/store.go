package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound reports a run ID absent from the store.
var ErrRunNotFound = errors.New("runstore: run not found")

// Run is one bounded execution of the loop/IR worker pair.
type Run struct {
	ID             string
	Mode           string
	Outcome        string
	StartFrequency float64
	EndFrequency   float64
	StepsCompleted int
	MissedCount    int
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Missed is one frequency whose actuation failed or was skipped.
type Missed struct {
	RunID      string
	Frequency  float64
	Reason     string
	RecordedAt time.Time
}

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run database in dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// BeginRun records a new run and returns its ID.
func (s *Store) BeginRun(ctx context.Context, mode string, startFrequency float64) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, start_frequency, started_at) VALUES (?, ?, ?, ?)`,
		id, mode, startFrequency, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun records the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, id, outcome string, endFrequency float64, stepsCompleted int) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET outcome = ?, end_frequency = ?, steps_completed = ?, finished_at = ? WHERE id = ?`,
		outcome, endFrequency, stepsCompleted, now, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// RecordMissed stores one missed frequency for a run.
func (s *Store) RecordMissed(ctx context.Context, runID string, frequency float64, reason string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO missed_frequencies (run_id, frequency, reason, recorded_at) VALUES (?, ?, ?, ?)`,
		runID, frequency, reason, now,
	)
	if err != nil {
		return fmt.Errorf("record missed frequency: %w", err)
	}
	return nil
}

// LastRunMissed returns the missed frequencies of the most recently
// started run, sorted ascending. An empty store yields an empty slice.
func (s *Store) LastRunMissed(ctx context.Context) ([]float64, error) {
	var runID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find last run: %w", err)
	}
	return s.MissedForRun(ctx, runID)
}

// MissedForRun returns a run's missed frequencies, sorted ascending.
func (s *Store) MissedForRun(ctx context.Context, runID string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT frequency FROM missed_frequencies WHERE run_id = ? ORDER BY frequency ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query missed frequencies: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var freq float64
		if err := rows.Scan(&freq); err != nil {
			return nil, fmt.Errorf("scan missed frequency: %w", err)
		}
		out = append(out, freq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate missed frequencies: %w", err)
	}
	return out, nil
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.mode, COALESCE(r.outcome, ''), r.start_frequency,
		        COALESCE(r.end_frequency, 0), COALESCE(r.steps_completed, 0),
		        r.started_at, COALESCE(r.finished_at, ''),
		        (SELECT COUNT(DISTINCT m.frequency) FROM missed_frequencies m WHERE m.run_id = r.id)
		 FROM runs r ORDER BY r.started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var startedAt, finishedAt string
		if err := rows.Scan(
			&run.ID, &run.Mode, &run.Outcome, &run.StartFrequency,
			&run.EndFrequency, &run.StepsCompleted,
			&startedAt, &finishedAt, &run.MissedCount,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if finishedAt != "" {
			run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}
