// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps an audit trail of harvest and publish runs in SQLite:
// one row per run and one event per book or record processed. The ledger is
// write-only from the pipelines' point of view; nothing is ever skipped
// because of what it contains.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"
)

// DefaultFile is the ledger location inside a data directory.
const DefaultFile = "ledger.db"

// Event statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Event is the outcome of one book or record in a run.
type Event struct {
	Item     string    `yaml:"item"`
	Step     string    `yaml:"step,omitempty"`
	Status   string    `yaml:"status"`
	RemoteID string    `yaml:"remote_id,omitempty"`
	Detail   string    `yaml:"detail,omitempty"`
	At       time.Time `yaml:"at"`
}

// Run summarizes one invocation of a pipeline.
type Run struct {
	ID         string     `yaml:"id"`
	Program    string     `yaml:"program"`
	StartedAt  time.Time  `yaml:"started_at"`
	FinishedAt *time.Time `yaml:"finished_at,omitempty"`
	Succeeded  int        `yaml:"succeeded"`
	Failed     int        `yaml:"failed"`
}

// Ledger is an open audit database.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	l := &Ledger{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			program TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			succeeded INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			item TEXT NOT NULL,
			step TEXT,
			status TEXT NOT NULL,
			remote_id TEXT,
			detail TEXT,
			at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StartRun records the start of a run and returns its id.
func (l *Ledger) StartRun(ctx context.Context, program string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, program, started_at) VALUES (?, ?, ?)`,
		id, program, formatTime(l.now()))
	if err != nil {
		return "", fmt.Errorf("starting run: %w", err)
	}
	return id, nil
}

// Record appends events to a run in one transaction. Events without a
// timestamp are stamped with the current time.
func (l *Ledger) Record(ctx context.Context, runID string, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (run_id, item, step, status, remote_id, detail, at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		at := e.At
		if at.IsZero() {
			at = l.now()
		}
		if _, err := stmt.ExecContext(ctx, runID, e.Item, e.Step, e.Status, e.RemoteID, e.Detail, formatTime(at)); err != nil {
			return fmt.Errorf("recording event for %s: %w", e.Item, err)
		}
	}
	return tx.Commit()
}

// Finish stamps the run's end time and stores its counters, computed from
// the recorded events.
func (l *Ledger) Finish(ctx context.Context, runID string) (Run, error) {
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET
			finished_at = ?,
			succeeded = (SELECT count(*) FROM events WHERE run_id = runs.id AND status = ?),
			failed = (SELECT count(*) FROM events WHERE run_id = runs.id AND status = ?)
		WHERE id = ?`,
		formatTime(l.now()), StatusOK, StatusFailed, runID)
	if err != nil {
		return Run{}, fmt.Errorf("finishing run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return l.Summary(ctx, runID)
}

// Summary returns a run and its counters.
func (l *Ledger) Summary(ctx context.Context, runID string) (Run, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, program, started_at, finished_at, succeeded, failed FROM runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// Runs returns the most recent runs, newest first.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, program, started_at, finished_at, succeeded, failed FROM runs
		ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Events returns a run's events in insertion order.
func (l *Ledger) Events(ctx context.Context, runID string) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT item, step, status, remote_id, detail, at FROM events WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var step, remoteID, detail sql.NullString
		var at string
		if err := rows.Scan(&e.Item, &step, &e.Status, &remoteID, &detail, &at); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Step, e.RemoteID, e.Detail = step.String, remoteID.String, detail.String
		if e.At, err = parseTime(at); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// runExport is the YAML document written by ExportYAML.
type runExport struct {
	Run    Run     `yaml:"run"`
	Events []Event `yaml:"events"`
}

// ExportYAML writes a run and its events as YAML.
func (l *Ledger) ExportYAML(ctx context.Context, w io.Writer, runID string) error {
	run, err := l.Summary(ctx, runID)
	if err != nil {
		return err
	}
	events, err := l.Events(ctx, runID)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runExport{Run: run, Events: events}); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	var started string
	var finished sql.NullString
	if err := s.Scan(&r.ID, &r.Program, &started, &finished, &r.Succeeded, &r.Failed); err != nil {
		return Run{}, err
	}
	var err error
	if r.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if finished.Valid {
		t, err := parseTime(finished.String)
		if err != nil {
			return Run{}, err
		}
		r.FinishedAt = &t
	}
	return r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
