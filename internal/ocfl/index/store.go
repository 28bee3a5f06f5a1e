// Package index provides an optional, best-effort SQLite-backed record of
// committed OCFL objects, adapted from the repository cache pattern: a
// single embedded schema, WAL mode for concurrent writers, and delete-and-
// recreate recovery if the on-disk schema doesn't match what this binary
// expects. It exists purely as an observability aid for integration tests
// and operators inspecting a completed migration run; the OCFL storage
// root itself, not this index, is authoritative.
package index

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store records one row per OCFL object commit.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at path, recreating it if the
// existing schema doesn't match (e.g. after an upgrade to this binary).
func Open(path string) (*Store, error) {
	store, err := openDB(path)
	if err != nil {
		if strings.Contains(err.Error(), "no such column") ||
			strings.Contains(err.Error(), "no such table") ||
			strings.Contains(err.Error(), "SQL logic error") {
			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("remove incompatible index: %w", removeErr)
			}
			os.Remove(path + "-wal")
			os.Remove(path + "-shm")
			return openDB(path)
		}
		return nil, err
	}
	return store, nil
}

func openDB(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	escaped := strings.ReplaceAll(path, " ", "%20")
	db, err := sql.Open("sqlite", "file:"+escaped+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize index schema: %w", err)
	}

	return &Store{db: db}, nil
}

// RecordCommit upserts the latest committed version for an object id.
func (s *Store) RecordCommit(id string, head int, root string) error {
	_, err := s.db.Exec(`
		INSERT INTO commits (object_id, head, root, committed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(object_id) DO UPDATE SET
			head = excluded.head,
			root = excluded.root,
			committed_at = excluded.committed_at
	`, id, head, root, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record commit for %s: %w", id, err)
	}
	return nil
}

// Head returns the last recorded version number for id, or 0 if the object
// has never been committed according to this index.
func (s *Store) Head(id string) (int, error) {
	var head int
	err := s.db.QueryRow(`SELECT head FROM commits WHERE object_id = ?`, id).Scan(&head)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query head for %s: %w", id, err)
	}
	return head, nil
}

// Count returns the number of distinct objects recorded as committed.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM commits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count commits: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
