package runstore

import (
	"context"
	"errors"
	"fmt"
)

// schemaVersion is bumped on schema changes; a mismatched database must
// be deleted, history is not worth a migration framework.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// version of stand.
var ErrSchemaMismatch = errors.New("runstore: schema version mismatch")

const schemaSQL = `
CREATE TABLE runs (
    id              TEXT PRIMARY KEY,
    mode            TEXT NOT NULL,
    outcome         TEXT,
    start_frequency REAL NOT NULL,
    end_frequency   REAL,
    steps_completed INTEGER,
    started_at      TEXT NOT NULL,
    finished_at     TEXT
);

CREATE TABLE missed_frequencies (
    run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    frequency   REAL NOT NULL,
    reason      TEXT NOT NULL,
    recorded_at TEXT NOT NULL
);

CREATE INDEX idx_missed_run ON missed_frequencies(run_id);

CREATE TABLE schema_version (
    version INTEGER NOT NULL
);
`

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to recreate)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
