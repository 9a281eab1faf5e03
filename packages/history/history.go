// Package history persists run summaries to a local SQLite database so
// past runs can be listed and compared.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/restcheck/restcheck/packages/core/runner"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	total      INTEGER NOT NULL,
	passed     INTEGER NOT NULL,
	failed     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_requests (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	source     TEXT NOT NULL,
	request_index INTEGER NOT NULL,
	name       TEXT,
	method     TEXT,
	url        TEXT,
	passed     INTEGER NOT NULL,
	status_code INTEGER,
	duration_ms INTEGER,
	error      TEXT
);
`

// RunRecord is one persisted run summary.
type RunRecord struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Total     int
	Passed    int
	Failed    int
}

// Store wraps the SQLite database holding run history.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists a run and its per-request outcomes.
func (s *Store) SaveRun(run *runner.RunResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration_ms, total, passed, failed) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, time.Now().UTC().Format(time.RFC3339), run.Duration.Milliseconds(),
		len(run.Results), run.Passed, run.Failed)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	for _, res := range run.Results {
		var statusCode, durationMs any
		if res.Executed != nil && res.Executed.Response != nil {
			statusCode = res.Executed.Response.StatusCode
			durationMs = res.Executed.Response.Duration.Milliseconds()
		}
		var errText any
		if res.Err != nil {
			errText = res.Err.Error()
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_requests (run_id, source, request_index, name, method, url, passed, status_code, duration_ms, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, res.Unit.Source, res.Unit.Index, res.Unit.Request.Name,
			res.Unit.Request.Method, res.Unit.Request.URL, res.Passed,
			statusCode, durationMs, errText)
		if err != nil {
			return fmt.Errorf("saving request result: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, total, passed, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedAt string
		var durationMs int64
		if err := rows.Scan(&rec.ID, &startedAt, &durationMs, &rec.Total, &rec.Passed, &rec.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, &rec)
	}
	return records, rows.Err()
}
