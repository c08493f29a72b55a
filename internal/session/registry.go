// Package session implements the Session Registry (SPEC_FULL.md §6 [ADD]):
// a SQLite-backed index of active chat/agent sessions, independent of the
// in-memory AgentContext the actors hold, plus an optional scheduled sweep
// of idle sessions.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Kind distinguishes a chat session from a one-shot agent run.
type Kind string

const (
	KindChat  Kind = "chat"
	KindAgent Kind = "agent"
)

// Session is one row of the registry.
type Session struct {
	ID           string
	Kind         Kind
	WorkingDir   string
	Model        string
	CreatedAt    time.Time
	LastActiveAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	working_dir    TEXT NOT NULL,
	model          TEXT NOT NULL,
	created_at     DATETIME NOT NULL,
	last_active_at DATETIME NOT NULL
);`

// Registry wraps a *sql.DB, grounded on the teacher's internal/jobs store
// shape (database/sql, a fixed schema, prepared-statement-free simple
// queries) but backed by a single local SQLite file instead of
// Postgres/CockroachDB, since agentcore ships as one local binary.
type Registry struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the sessions table exists.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: create schema: %w", err)
	}
	return &Registry{db: db}, nil
}

// OpenWithDB wraps an already-open *sql.DB, used by tests with go-sqlmock.
func OpenWithDB(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// Close closes the underlying database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Create inserts a new session row.
func (r *Registry) Create(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, kind, working_dir, model, created_at, last_active_at) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.Kind), s.WorkingDir, s.Model, s.CreatedAt, s.LastActiveAt,
	)
	if err != nil {
		return fmt.Errorf("session: create %s: %w", s.ID, err)
	}
	return nil
}

// Touch updates a session's last_active_at to now.
func (r *Registry) Touch(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_active_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("session: touch %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session: touch %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// Get returns the session identified by id.
func (r *Registry) Get(ctx context.Context, id string) (Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, kind, working_dir, model, created_at, last_active_at FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// List returns every session, most recently active first.
func (r *Registry) List(ctx context.Context) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, working_dir, model, created_at, last_active_at FROM sessions ORDER BY last_active_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSessionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// IdleSince returns sessions whose last_active_at is strictly before
// cutoff, used by the scheduled compaction sweep.
func (r *Registry) IdleSince(ctx context.Context, cutoff time.Time) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, working_dir, model, created_at, last_active_at FROM sessions WHERE last_active_at < ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("session: idle since %s: %w", cutoff, err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSessionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a session row.
func (r *Registry) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	return scanSessionRows(row)
}

func scanSessionRows(row rowScanner) (Session, error) {
	var s Session
	var kind string
	if err := row.Scan(&s.ID, &kind, &s.WorkingDir, &s.Model, &s.CreatedAt, &s.LastActiveAt); err != nil {
		return Session{}, fmt.Errorf("session: scan: %w", err)
	}
	s.Kind = Kind(kind)
	return s, nil
}
