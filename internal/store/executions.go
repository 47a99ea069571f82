package store

import (
	"fmt"
	"time"
)

// relevanceScale turns fractional scores into integers with stable ordering.
// The exact value is tunable; only relative order is load-bearing.
const relevanceScale = 1000.0

// LogExecution appends a row to the execution ledger. actionID is either the
// decimal id of a discovered action or a builtin handler id. The ledger is
// append-only and is the sole input to popularity scoring.
func (db *DB) LogExecution(actionID string) error {
	return db.logExecutionAt(actionID, time.Now().UTC())
}

func (db *DB) logExecutionAt(actionID string, ts time.Time) error {
	_, err := db.Exec(
		"INSERT INTO action_executions (action_id, execution_timestamp) VALUES (?, ?)",
		actionID, ts.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("log execution: %w", err)
	}
	return nil
}

// ExecutionCount returns the total number of recorded executions for an id.
func (db *DB) ExecutionCount(actionID string) (int, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM action_executions WHERE action_id = ?",
		actionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("execution count: %w", err)
	}
	return n, nil
}

// Relevance computes the current popularity score for a single id, plus its
// execution count. The score is a pure function of the ledger and the clock:
//
//	base       = 1 + sum over executions of 1/(1 + age_minutes/1440)
//	time_bonus = 0.5 * count(executions in the current hour of day)
//	score      = trunc(base * (1 + time_bonus) * 1000)
//
// It is never persisted, so it always reflects "now".
func (db *DB) Relevance(actionID string) (int, int, error) {
	var score float64
	var count int
	err := db.QueryRow(`
		WITH action_stats AS (
			SELECT
				1.0 + COALESCE(SUM(
					1.0 / (1.0 + (
						(julianday('now') - julianday(execution_timestamp)) * 24.0 * 60.0
					) / 1440.0)
				), 0) AS base_score,
				COUNT(*) AS execution_count,
				COALESCE((
					SELECT 0.5 * COUNT(*)
					FROM action_executions ae2
					WHERE ae2.action_id = ?1
					AND strftime('%H', ae2.execution_timestamp) = strftime('%H', 'now')
				), 0) AS time_bonus
			FROM action_executions
			WHERE action_id = ?1
		)
		SELECT base_score * (1.0 + time_bonus), execution_count FROM action_stats`,
		actionID,
	).Scan(&score, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("relevance for %s: %w", actionID, err)
	}
	return int(score * relevanceScale), count, nil
}
