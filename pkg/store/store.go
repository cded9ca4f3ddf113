// Package store provides the durable, versioned local database backing the
// video library: video records with embedded binaries, filesystem handle
// references, and playlists, in a single SQLite file.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// DBFileName is the database file created under the data directory.
	DBFileName = "playgate.db"

	// FileMode restricts the database file to the owner.
	FileMode = 0600
	// DirMode restricts the data directory to the owner.
	DirMode = 0700
)

// Errors
var (
	// ErrStorageUnavailable wraps any failure to open or prepare the
	// database. Fatal to all store operations.
	ErrStorageUnavailable = errors.New("store: local storage unavailable")

	// ErrVideoNotFound indicates no video record exists for the id.
	ErrVideoNotFound = errors.New("store: video not found")

	// ErrPlaylistNotFound indicates no playlist record exists for the id.
	ErrPlaylistNotFound = errors.New("store: playlist not found")
)

// Store is the system of record. It owns a single SQLite connection and is
// constructed once at process start and handed to collaborators; there is no
// ambient global instance.
type Store struct {
	path string
	db   *sql.DB
}

// Open establishes the database connection, creating the data directory and
// database file on first use and applying any pending schema migrations.
// Open is idempotent for a given directory: reopening an existing database
// only advances its schema.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	dbPath := filepath.Join(dir, DBFileName)
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	// Single-connection mode: operations within one transaction are
	// serialized by SQLite, and a lone connection avoids lock contention
	// for this single-user workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := os.Chmod(dbPath, FileMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return &Store{path: dir, db: db}, nil
}

// Close releases the database connection. The store must not be used after
// Close.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the data directory the store was opened on.
func (s *Store) Path() string {
	return s.path
}

// Clear wipes every record collection in one transaction. Used for a full
// factory reset.
func (s *Store) Clear() error {
	return s.clearTables("videos", "file_handles", "playlists")
}

// ClearLibrary wipes videos and playlists but keeps file handles, so a
// restored metadata-only library can still reach original files on disk.
func (s *Store) ClearLibrary() error {
	return s.clearTables("videos", "playlists")
}

func (s *Store) clearTables(tables ...string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("store: failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: failed to commit clear: %w", err)
	}
	return nil
}
