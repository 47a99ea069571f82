package store

import (
	"database/sql"
	"fmt"
)

// RegisterHandler inserts a handler row if one does not exist yet. New
// handlers default to enabled; an existing row keeps its current state.
func (db *DB) RegisterHandler(id string) error {
	_, err := db.Exec("INSERT OR IGNORE INTO handlers (id) VALUES (?)", id)
	if err != nil {
		return fmt.Errorf("register handler %s: %w", id, err)
	}
	return nil
}

// SetHandlerEnabled flips a handler on or off, creating the row if needed.
func (db *DB) SetHandlerEnabled(id string, enabled bool) error {
	if err := db.RegisterHandler(id); err != nil {
		return err
	}
	_, err := db.Exec("UPDATE handlers SET enabled = ? WHERE id = ?", enabled, id)
	if err != nil {
		return fmt.Errorf("set handler %s enabled: %w", id, err)
	}
	return nil
}

// HandlerEnabled reports whether a handler is enabled. Unregistered handlers
// report true, matching the enabled-by-default contract.
func (db *DB) HandlerEnabled(id string) (bool, error) {
	var enabled bool
	err := db.QueryRow("SELECT enabled FROM handlers WHERE id = ?", id).Scan(&enabled)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("handler enabled %s: %w", id, err)
	}
	return enabled, nil
}

// HandlerState is one row of the handlers table.
type HandlerState struct {
	ID      string
	Enabled bool
}

// Handlers returns all registered handlers in id order.
func (db *DB) Handlers() ([]HandlerState, error) {
	rows, err := db.Query("SELECT id, enabled FROM handlers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list handlers: %w", err)
	}
	defer rows.Close()

	var out []HandlerState
	for rows.Next() {
		var h HandlerState
		if err := rows.Scan(&h.ID, &h.Enabled); err != nil {
			return nil, fmt.Errorf("scan handler: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ActiveHandlers returns the ids of all enabled handlers.
func (db *DB) ActiveHandlers() ([]string, error) {
	rows, err := db.Query("SELECT id FROM handlers WHERE enabled = 1 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("active handlers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan handler id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
