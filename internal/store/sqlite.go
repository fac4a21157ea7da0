package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (namespace, key)
);`

// SQLiteDB is a SQLite file holding one key/value namespace per profile.
type SQLiteDB struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
// Use ":memory:" for an in-memory database.
func OpenSQLite(path string) (*SQLiteDB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("creating state directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and
	// serializes writers on the file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}
	if _, err := db.Exec(kvSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &SQLiteDB{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the file the database was opened from.
func (s *SQLiteDB) Path() string {
	return s.path
}

// Namespace returns a Storage scoped to ns.
func (s *SQLiteDB) Namespace(ns string) *SQLiteStorage {
	return &SQLiteStorage{db: s.db, namespace: ns}
}

// SQLiteStorage is a Storage backed by one namespace of a SQLiteDB.
type SQLiteStorage struct {
	db        *sql.DB
	namespace string
}

// Get implements Storage.
func (s *SQLiteStorage) Get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %q: %w", key, err)
	}
	return v, true, nil
}

// Set implements Storage.
func (s *SQLiteStorage) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// Remove implements Storage.
func (s *SQLiteStorage) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE namespace = ? AND key = ?`, s.namespace, key); err != nil {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return nil
}
