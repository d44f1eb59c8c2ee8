// Package store provides the SQLite run ledger. Reports themselves are never
// stored, only the lifecycle of each run.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RobinCoderZhao/newsagent/internal/newsagent/pipeline"
	"github.com/RobinCoderZhao/newsagent/pkg/storage"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Schema is the SQLite schema for the run ledger.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    period       TEXT NOT NULL,
    callback_url TEXT NOT NULL,
    state        TEXT NOT NULL,
    articles     INTEGER DEFAULT 0,
    error        TEXT,
    delivered    TEXT,
    created_at   TIMESTAMP NOT NULL,
    updated_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

// Run is one ledger row.
type Run struct {
	ID          string    `json:"id"`
	Period      string    `json:"period"`
	CallbackURL string    `json:"callbackUrl"`
	State       string    `json:"state"`
	Articles    int       `json:"articles"`
	Error       string    `json:"error,omitempty"`
	Delivered   string    `json:"delivered,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Store persists run state transitions.
type Store struct {
	db *storage.DB
}

// New opens the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.Config{Path: dbPath, WAL: true})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Track records a run transition. The started event inserts the row; later
// events update it.
func (s *Store) Track(ctx context.Context, ev pipeline.Event) error {
	at := ev.At.UTC()
	if ev.State == pipeline.StateStarted {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO runs (id, period, callback_url, state, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, ev.RunID, ev.Request.Period, ev.Request.CallbackURL, string(ev.State), at, at)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET state = ?, articles = ?, error = ?, delivered = ?, updated_at = ?
		WHERE id = ?
	`, string(ev.State), ev.Articles, ev.Err, ev.Delivered, at, ev.RunID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update run %s: %w", ev.RunID, ErrNotFound)
	}
	return nil
}

// GetRun returns the ledger row for id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, period, callback_url, state, articles, COALESCE(error, ''), COALESCE(delivered, ''), created_at, updated_at
		FROM runs WHERE id = ?
	`, id)

	var r Run
	if err := row.Scan(&r.ID, &r.Period, &r.CallbackURL, &r.State, &r.Articles, &r.Error, &r.Delivered, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &r, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period, callback_url, state, articles, COALESCE(error, ''), COALESCE(delivered, ''), created_at, updated_at
		FROM runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Period, &r.CallbackURL, &r.State, &r.Articles, &r.Error, &r.Delivered, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
