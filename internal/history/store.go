// Package history keeps a small on-disk log of sync invocations so that
// `twsync status` can show what the daemon has been doing.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// MaxRuns is the number of rows kept in the sync_runs table.
const MaxRuns = 500

// Run describes one unison invocation.
type Run struct {
	ID        int64         `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Source    string        `json:"source"`
	Dest      string        `json:"dest"`
	DryRun    bool          `json:"dry_run"`
	Success   bool          `json:"success"`
	ExitCode  int           `json:"exit_code"`
	Duration  time.Duration `json:"-"`
	Error     string        `json:"error,omitempty"`
}

// MarshalJSON reports the duration in milliseconds.
func (r Run) MarshalJSON() ([]byte, error) {
	type plain Run
	return json.Marshal(struct {
		plain
		DurationMS int64 `json:"duration_ms"`
	}{plain(r), r.Duration.Milliseconds()})
}

// Recorder receives completed runs. The syncer depends on this rather
// than on Store so tests and dry runs can swap it out.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// Nop discards every run.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Run) error { return nil }

// Store persists runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; the daemon and `status` may touch the file at once.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sync_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TIMESTAMP NOT NULL,
		source TEXT NOT NULL,
		dest TEXT NOT NULL,
		dry_run INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL DEFAULT 0,
		exit_code INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts run and trims the table to MaxRuns rows.
func (s *Store) Record(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sync_runs (started_at, source, dest, dry_run, success, exit_code, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.StartedAt.UTC(), run.Source, run.Dest, run.DryRun, run.Success,
		run.ExitCode, run.Duration.Milliseconds(), run.Error)
	if err != nil {
		return fmt.Errorf("insert sync run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM sync_runs
		WHERE id NOT IN (
			SELECT id FROM sync_runs
			ORDER BY id DESC
			LIMIT ?
		)
	`, MaxRuns)
	if err != nil {
		return fmt.Errorf("trim sync runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, source, dest, dry_run, success, exit_code, duration_ms, error
		FROM sync_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ms int64
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Source, &r.Dest, &r.DryRun,
			&r.Success, &r.ExitCode, &ms, &r.Error); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Count returns the number of stored runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count sync runs: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
