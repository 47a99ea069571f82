package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "actions: discovered programs and desktop entries",
		SQL: `
CREATE TABLE actions (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    searchname  TEXT NOT NULL,
    action_type TEXT NOT NULL CHECK (action_type IN ('program', 'desktop')),
    UNIQUE(name, action_type)
);

CREATE TABLE program_items (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    path TEXT NOT NULL,
    UNIQUE(path, name)
);

CREATE TABLE desktop_items (
    id           INTEGER PRIMARY KEY,
    name         TEXT NOT NULL,
    exec         TEXT NOT NULL,
    accepts_args BOOLEAN NOT NULL DEFAULT 0,
    UNIQUE(exec, name)
);

CREATE INDEX idx_actions_searchname ON actions(searchname);
`,
	},
	{
		Version:     2,
		Description: "action_executions: append-only execution ledger",
		SQL: `
CREATE TABLE action_executions (
    action_id           TEXT NOT NULL,
    execution_timestamp TEXT NOT NULL
);

CREATE INDEX idx_executions_action ON action_executions(action_id);
`,
	},
	{
		Version:     3,
		Description: "handlers: builtin handler enablement",
		SQL: `
CREATE TABLE handlers (
    id      TEXT PRIMARY KEY,
    enabled BOOLEAN NOT NULL DEFAULT 1
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_version table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_version (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	return version, err
}
