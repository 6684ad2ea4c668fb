// Package remote provides the per-user record service backing cloud mode.
//
// The store holds one row per (user, kind): a single opaque JSON document
// plus an updated-at timestamp. Reads filter by user id and expect 0 or 1
// rows; zero rows is a distinguished non-error result. Writes are whole-
// document upserts with last-writer-wins semantics at the row level — the
// store's transactional guarantee makes each replace atomic, but there is
// no version check between concurrent writers.
//
// Two backends share the same schema:
//   - a local libSQL/SQLite file (embedded mode with WAL), used for
//     development and self-hosting
//   - a hosted libSQL database reached by URL (libsql://, wss://, https://)
package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Service wraps the record database connection.
type Service struct {
	conn   *sql.DB
	target string
	hosted bool
}

// Open connects to the record store.
//
// Targets beginning with libsql://, wss:// or https:// open a hosted
// libSQL database; anything else is treated as a local file path and
// opened in embedded mode with WAL for concurrent reads.
//
// The caller MUST call Close() when done.
func Open(target string) (*Service, error) {
	hosted := strings.HasPrefix(target, "libsql://") ||
		strings.HasPrefix(target, "wss://") ||
		strings.HasPrefix(target, "https://")

	var conn *sql.DB
	var err error

	if hosted {
		conn, err = sql.Open("libsql", target)
		if err != nil {
			return nil, fmt.Errorf("failed to open hosted database: %w", err)
		}
	} else {
		dir := filepath.Dir(target)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		conn, err = sql.Open("sqlite3", "file:"+target)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	svc := &Service{conn: conn, target: target, hosted: hosted}

	if !hosted {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	return svc, nil
}

// Close closes the database connection. For local databases a WAL
// checkpoint runs first so all changes land in the main file.
func (s *Service) Close() error {
	if s.conn == nil {
		return nil
	}
	if !s.hosted {
		if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
		}
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// InitSchema creates the records table if it doesn't exist. Idempotent.
func (s *Service) InitSchema() error {
	return s.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (s *Service) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		user_id    TEXT NOT NULL,
		kind       TEXT NOT NULL,
		data       TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, kind)
	);

	CREATE INDEX IF NOT EXISTS idx_records_user ON records(user_id);
	`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Fetch returns the stored document for (userID, kind).
//
// The second return value distinguishes "no row yet" (false, nil error)
// from genuine failures, which propagate as errors.
func (s *Service) Fetch(ctx context.Context, userID, kind string) ([]byte, bool, error) {
	if userID == "" {
		return nil, false, fmt.Errorf("not authenticated: user id is empty")
	}

	var data string
	err := s.conn.QueryRowContext(ctx,
		"SELECT data FROM records WHERE user_id = ? AND kind = ?",
		userID, kind,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch %s record: %w", kind, err)
	}
	return []byte(data), true, nil
}

// Save upserts the document for (userID, kind). Insert-or-replace keyed
// by user identity: on conflict the whole document is replaced.
func (s *Service) Save(ctx context.Context, userID, kind string, data []byte) error {
	if userID == "" {
		return fmt.Errorf("not authenticated: user id is empty")
	}

	query := `
	INSERT INTO records (user_id, kind, data, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id, kind) DO UPDATE SET
		data = excluded.data,
		updated_at = excluded.updated_at
	`
	_, err := s.conn.ExecContext(ctx, query,
		userID, kind, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save %s record: %w", kind, err)
	}
	return nil
}

// Delete removes the document for (userID, kind). Idempotent.
func (s *Service) Delete(ctx context.Context, userID, kind string) error {
	_, err := s.conn.ExecContext(ctx,
		"DELETE FROM records WHERE user_id = ? AND kind = ?", userID, kind)
	if err != nil {
		return fmt.Errorf("failed to delete %s record: %w", kind, err)
	}
	return nil
}

// UpdatedAt returns the updated-at timestamp for (userID, kind), or
// (zero, false) when no row exists.
func (s *Service) UpdatedAt(ctx context.Context, userID, kind string) (time.Time, bool, error) {
	var raw string
	err := s.conn.QueryRowContext(ctx,
		"SELECT updated_at FROM records WHERE user_id = ? AND kind = ?",
		userID, kind,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read updated_at: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return ts, true, nil
}

// RecordCount returns the number of records stored for a user.
func (s *Service) RecordCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Collection is a typed view over one (user, kind) record. It marshals
// the collection to JSON on save and back on fetch, giving the sync
// engine a Fetch/Save contract in terms of its own collection type.
type Collection[C any] struct {
	svc    *Service
	userID string
	kind   string
}

// NewCollection creates a typed record view for one entity kind.
func NewCollection[C any](svc *Service, userID, kind string) *Collection[C] {
	return &Collection[C]{svc: svc, userID: userID, kind: kind}
}

// Fetch loads the remote collection. ok=false means no row exists yet,
// which callers treat as an empty collection, not an error.
func (c *Collection[C]) Fetch(ctx context.Context) (C, bool, error) {
	var out C
	data, ok, err := c.svc.Fetch(ctx, c.userID, c.kind)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false, fmt.Errorf("failed to parse %s record: %w", c.kind, err)
	}
	return out, true, nil
}

// Save upserts the remote collection as one JSON document.
func (c *Collection[C]) Save(ctx context.Context, collection C) error {
	data, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("failed to marshal %s collection: %w", c.kind, err)
	}
	return c.svc.Save(ctx, c.userID, c.kind, data)
}
