// Package syncstate records, per sync agent, the point in time up to which
// issues have been indexed.
package syncstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// State is the stored bookkeeping of one agent.
type State struct {
	Agent        string    `json:"agent"`
	LastSyncDate time.Time `json:"last_sync_date"`
	LastSyncID   string    `json:"last_sync_id,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store persists sync state in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the state database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sync state path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sync state dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sync state: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sync_state (
			agent TEXT PRIMARY KEY,
			last_sync_date TEXT NOT NULL,
			last_sync_id TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sync state: %w", err)
		}
	}
	return nil
}

// LastSync returns the last sync date of agent. ok is false when the agent
// has never completed a sync.
func (s *Store) LastSync(ctx context.Context, agent string) (time.Time, bool, error) {
	st, ok, err := s.Get(ctx, agent)
	if err != nil || !ok {
		return time.Time{}, ok, err
	}
	return st.LastSyncDate, true, nil
}

// Get returns the full state row of agent.
func (s *Store) Get(ctx context.Context, agent string) (State, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT agent, last_sync_date, last_sync_id, updated_at FROM sync_state WHERE agent = ?`, agent)
	st, err := scanState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	return st, true, nil
}

// List returns the state of every agent, ordered by name.
func (s *Store) List(ctx context.Context) ([]State, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT agent, last_sync_date, last_sync_id, updated_at FROM sync_state ORDER BY agent`)
	if err != nil {
		return nil, fmt.Errorf("list sync state: %w", err)
	}
	defer rows.Close()

	var out []State
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// SetLastSync stores at as the last sync date of agent.
func (s *Store) SetLastSync(ctx context.Context, agent string, at time.Time, syncID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (agent, last_sync_date, last_sync_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(agent) DO UPDATE SET
			last_sync_date = excluded.last_sync_date,
			last_sync_id = excluded.last_sync_id,
			updated_at = excluded.updated_at`,
		agent, formatTime(at), syncID, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("store last sync for %s: %w", agent, err)
	}
	return nil
}

// Reset forgets the last sync of agent, so the next run falls back to the
// default lookback.
func (s *Store) Reset(ctx context.Context, agent string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_state WHERE agent = ?`, agent); err != nil {
		return fmt.Errorf("reset sync state for %s: %w", agent, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanState(row scanner) (State, error) {
	var (
		st               State
		lastSync, update string
	)
	if err := row.Scan(&st.Agent, &lastSync, &st.LastSyncID, &update); err != nil {
		return State{}, err
	}
	var err error
	if st.LastSyncDate, err = time.Parse(time.RFC3339Nano, lastSync); err != nil {
		return State{}, fmt.Errorf("parse last_sync_date %q: %w", lastSync, err)
	}
	if st.UpdatedAt, err = time.Parse(time.RFC3339Nano, update); err != nil {
		return State{}, fmt.Errorf("parse updated_at %q: %w", update, err)
	}
	return st, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
