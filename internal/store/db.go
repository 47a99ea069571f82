package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection to the quiver SQLite database. All writes go
// through this single handle, which serializes discovery inserts against
// execution logging.
type DB struct {
	*sql.DB
	Path string
}

// DefaultDBPath returns the default database path: ~/.local/share/quiver/quiver.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "quiver", "quiver.db"), nil
}

// Open opens (or creates) the SQLite database at the given path, configures
// pragmas, and runs migrations. A database that cannot be migrated is
// discarded and recreated empty, equivalent to a first run.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := open(path)
	if err == nil {
		return db, nil
	}

	log.Printf("store: unusable database at %s (%v), recreating", path, err)
	if rmErr := os.Remove(path); rmErr != nil {
		return nil, fmt.Errorf("remove unusable db: %w", rmErr)
	}
	return open(path)
}

// OpenMemory opens an in-memory SQLite database for testing.
func OpenMemory() (*DB, error) {
	return open(":memory:")
}

func open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db := &DB{DB: sqlDB, Path: path}
	if err := db.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}
