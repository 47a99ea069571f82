package store

import (
	"fmt"
	"strings"
	"unicode"
)

// ActionKind distinguishes the two persisted action kinds. Builtins, URLs and
// history entries are never stored in the actions table; they exist only as
// registered handler ids plus rows in the execution ledger.
type ActionKind string

const (
	KindProgram ActionKind = "program"
	KindDesktop ActionKind = "desktop"
)

// Action is a discovered, executable candidate. Identity is the (name, kind)
// pair; rows are immutable after insert.
type Action struct {
	ID          int64
	Name        string
	SearchName  string
	Kind        ActionKind
	Path        string // program kind
	Exec        string // desktop kind
	AcceptsArgs bool   // desktop kind
}

// searchName projects a display name onto its matchable form: lowercase with
// everything but letters, digits and whitespace removed, so punctuation never
// affects ranking.
func searchName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// insertAction inserts the shared actions row and returns its id. A second
// insert with the same (name, kind) is a no-op that returns the existing id.
func (db *DB) insertAction(name string, kind ActionKind) (int64, error) {
	_, err := db.Exec(
		"INSERT OR IGNORE INTO actions (name, searchname, action_type) VALUES (?, ?, ?)",
		name, searchName(name), string(kind),
	)
	if err != nil {
		return 0, fmt.Errorf("insert action: %w", err)
	}

	var id int64
	err = db.QueryRow(
		"SELECT id FROM actions WHERE name = ? AND action_type = ?",
		name, string(kind),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("lookup action id: %w", err)
	}
	return id, nil
}

// InsertProgram records a discovered executable. Idempotent.
func (db *DB) InsertProgram(name, path string) (int64, error) {
	id, err := db.insertAction(name, KindProgram)
	if err != nil {
		return 0, err
	}
	_, err = db.Exec(
		"INSERT OR IGNORE INTO program_items (id, name, path) VALUES (?, ?, ?)",
		id, name, path,
	)
	if err != nil {
		return 0, fmt.Errorf("insert program item: %w", err)
	}
	return id, nil
}

// InsertDesktop records a discovered desktop entry. Idempotent.
func (db *DB) InsertDesktop(name, exec string, acceptsArgs bool) (int64, error) {
	id, err := db.insertAction(name, KindDesktop)
	if err != nil {
		return 0, err
	}
	_, err = db.Exec(
		"INSERT OR IGNORE INTO desktop_items (id, name, exec, accepts_args) VALUES (?, ?, ?, ?)",
		id, name, exec, acceptsArgs,
	)
	if err != nil {
		return 0, fmt.Errorf("insert desktop item: %w", err)
	}
	return id, nil
}

// CountDiscovered returns the number of stored program and desktop actions.
// Zero means a system scan has never completed.
func (db *DB) CountDiscovered() (int, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM actions WHERE action_type IN ('program', 'desktop')",
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count discovered: %w", err)
	}
	return n, nil
}
