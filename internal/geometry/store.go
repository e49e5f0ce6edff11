// Package geometry remembers per-application window geometry and restores it
// when the application opens a new window.
package geometry

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

// ErrNotFound indicates that no geometry is stored for an application.
var ErrNotFound = errors.New("geometry not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS window_geometry (
	app_id     TEXT PRIMARY KEY,
	x          INTEGER NOT NULL,
	y          INTEGER NOT NULL,
	width      INTEGER NOT NULL,
	height     INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`

const upsertSQL = `
INSERT INTO window_geometry (app_id, x, y, width, height, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(app_id) DO UPDATE SET
	x = excluded.x,
	y = excluded.y,
	width = excluded.width,
	height = excluded.height,
	updated_at = excluded.updated_at`

// Entry is the saved frame of one application's window.
type Entry struct {
	AppID     string    `json:"app_id"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists entries in SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("geometry store: db path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("geometry store: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("geometry store: open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("geometry store: set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("geometry store: create schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// List returns all entries ordered by application ID.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT app_id, x, y, width, height, updated_at FROM window_geometry ORDER BY app_id`)
	if err != nil {
		return nil, fmt.Errorf("geometry store: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("geometry store: list: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("geometry store: list: %w", err)
	}
	return entries, nil
}

// Get returns the entry for appID or ErrNotFound.
func (s *Store) Get(ctx context.Context, appID string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT app_id, x, y, width, height, updated_at FROM window_geometry WHERE app_id = ?`, appID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, appID)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("geometry store: get %s: %w", appID, err)
	}
	return e, nil
}

// Put inserts or replaces a single entry.
func (s *Store) Put(ctx context.Context, e Entry) error {
	if err := validateEntry(e); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertSQL, entryArgs(e)...); err != nil {
		return fmt.Errorf("geometry store: put %s: %w", e.AppID, err)
	}
	return nil
}

// PutAll writes entries in one transaction.
func (s *Store) PutAll(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if err := validateEntry(e); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("geometry store: begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("geometry store: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, entryArgs(e)...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("geometry store: put %s: %w", e.AppID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("geometry store: commit: %w", err)
	}
	return nil
}

// Delete removes the entry for appID, returning ErrNotFound if there was none.
func (s *Store) Delete(ctx context.Context, appID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM window_geometry WHERE app_id = ?`, appID)
	if err != nil {
		return fmt.Errorf("geometry store: delete %s: %w", appID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("geometry store: delete %s: %w", appID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, appID)
	}
	return nil
}

// Clear removes every entry and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM window_geometry`)
	if err != nil {
		return 0, fmt.Errorf("geometry store: clear: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("geometry store: clear: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e       Entry
		updated int64
	)
	if err := row.Scan(&e.AppID, &e.X, &e.Y, &e.Width, &e.Height, &updated); err != nil {
		return Entry{}, err
	}
	e.UpdatedAt = time.UnixMilli(updated).UTC()
	return e, nil
}

func entryArgs(e Entry) []any {
	updated := e.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return []any{e.AppID, e.X, e.Y, e.Width, e.Height, updated.UnixMilli()}
}

func validateEntry(e Entry) error {
	if strings.TrimSpace(e.AppID) == "" {
		return fmt.Errorf("geometry store: app id cannot be empty")
	}
	if e.Width < 0 || e.Height < 0 {
		return fmt.Errorf("geometry store: %s: negative size %dx%d", e.AppID, e.Width, e.Height)
	}
	return nil
}
