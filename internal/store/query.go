package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

const (
	// maxResults is the fixed result window handed to the presentation layer.
	maxResults = 10
	// directMatchMin: below this many direct matches the fuzzy tier kicks in.
	directMatchMin = 5
	// fuzzyCandidates caps how many rows the fuzzy tier scores in Go.
	fuzzyCandidates = 100
	// similarityThreshold discards fuzzy candidates with near-zero overlap.
	similarityThreshold = 0.1
	// fuzzyWeight converts trigram similarity into a relevance multiplier.
	fuzzyWeight = 30.0
)

// baseScoreSQL is the decayed popularity score shared by every query tier:
// each execution contributes 1/(1 + age_minutes/1440), floored at 1.0 so
// match-quality tiers order correctly for actions with no history yet.
const baseScoreSQL = `
	1.0 + (
		SELECT COALESCE(SUM(
			1.0 / (1.0 + (
				(julianday('now') - julianday(ae.execution_timestamp)) * 24.0 * 60.0
			) / 1440.0)
		), 0)
		FROM action_executions ae
		WHERE ae.action_id = CAST(a.id AS TEXT)
	)`

// hourBonusSQL boosts actions habitually used at the current hour of day.
const hourBonusSQL = `
	1.0 + COALESCE((
		SELECT 0.5 * COUNT(*)
		FROM action_executions ae2
		WHERE ae2.action_id = CAST(a.id AS TEXT)
		AND strftime('%H', ae2.execution_timestamp) = strftime('%H', 'now')
	), 0)`

// kindMultiplierSQL nudges desktop applications above bare binaries.
const kindMultiplierSQL = `
	CASE WHEN a.action_type = 'desktop' THEN 1.1 ELSE 1.0 END`

const execCountSQL = `
	(SELECT COUNT(*) FROM action_executions aec WHERE aec.action_id = CAST(a.id AS TEXT))`

const actionColumnsSQL = `
	a.id,
	a.name,
	a.searchname,
	a.action_type,
	p.path,
	d.exec,
	COALESCE(d.accepts_args, 0),
	` + execCountSQL

const actionFromSQL = `
FROM actions a
LEFT JOIN program_items p ON (a.action_type = 'program' AND p.id = a.id)
LEFT JOIN desktop_items d ON (a.action_type = 'desktop' AND d.id = a.id)`

// ScoredAction is an Action with its query-time relevance attached.
type ScoredAction struct {
	Action
	Relevance      int
	ExecutionCount int
}

// QueryActions ranks stored actions against a free-text filter.
//
// Non-empty filters run a direct-match tier (exact/prefix/substring against
// searchname) and, when that yields fewer than five results, a trigram fuzzy
// fallback tier over the most popular candidates. An empty filter skips
// matching entirely and returns the most popular actions right now.
func (db *DB) QueryActions(filter string) ([]ScoredAction, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return db.popularActions()
	}

	tokens := strings.Fields(filter)

	results, err := db.directMatches(filter, tokens)
	if err != nil {
		return nil, err
	}

	if len(results) < directMatchMin {
		fuzzy, err := db.fuzzyMatches(filter, tokens)
		if err != nil {
			return nil, err
		}
		seen := make(map[int64]bool, len(results))
		for _, r := range results {
			seen[r.ID] = true
		}
		for _, f := range fuzzy {
			if !seen[f.ID] {
				results = append(results, f)
			}
		}
	}

	sortScored(results)
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// popularActions returns the top actions by base score alone.
func (db *DB) popularActions() ([]ScoredAction, error) {
	rows, err := db.Query(`
		SELECT ` + actionColumnsSQL + `,
			(` + baseScoreSQL + `) AS rank_score
		` + actionFromSQL + `
		ORDER BY rank_score DESC, a.name ASC
		LIMIT ` + fmt.Sprint(maxResults))
	if err != nil {
		return nil, fmt.Errorf("query popular actions: %w", err)
	}
	defer rows.Close()

	var out []ScoredAction
	for rows.Next() {
		var sa ScoredAction
		var score float64
		if err := scanScored(rows, &sa, &score); err != nil {
			return nil, err
		}
		sa.Relevance = int(score * relevanceScale)
		out = append(out, sa)
	}
	return out, rows.Err()
}

// directMatches runs the substring-filtered tier. Match quality comes from a
// SQL CASE (100 exact, 50 prefix, 10 substring, 1 otherwise); the token score
// refinement happens here in Go against the returned searchname.
func (db *DB) directMatches(filter string, tokens []string) ([]ScoredAction, error) {
	rows, err := db.Query(`
		SELECT `+actionColumnsSQL+`,
			(`+baseScoreSQL+`) * (`+hourBonusSQL+`) * (`+kindMultiplierSQL+`) AS base_score,
			CASE
				WHEN a.searchname = ?1 THEN 100.0
				WHEN a.searchname LIKE ?1 || '%' THEN 50.0
				WHEN a.searchname LIKE '%' || ?1 || '%' THEN 10.0
				ELSE 1.0
			END AS match_quality
		`+actionFromSQL+`
		WHERE a.searchname LIKE '%' || ?1 || '%' OR a.name LIKE '%' || ?1 || '%'
		ORDER BY match_quality DESC, base_score DESC
		LIMIT `+fmt.Sprint(maxResults), filter)
	if err != nil {
		return nil, fmt.Errorf("query direct matches: %w", err)
	}
	defer rows.Close()

	var out []ScoredAction
	for rows.Next() {
		var sa ScoredAction
		var base, quality float64
		if err := scanScored(rows, &sa, &base, &quality); err != nil {
			return nil, err
		}
		sa.Relevance = int(base * quality * (1.0 + tokenScore(tokens, sa.SearchName)) * relevanceScale)
		out = append(out, sa)
	}
	return out, rows.Err()
}

// fuzzyMatches scores the most popular candidates by trigram similarity.
// Candidates at or below the similarity threshold are discarded.
func (db *DB) fuzzyMatches(filter string, tokens []string) ([]ScoredAction, error) {
	rows, err := db.Query(`
		SELECT ` + actionColumnsSQL + `,
			(` + baseScoreSQL + `) AS base_score
		` + actionFromSQL + `
		ORDER BY base_score DESC
		LIMIT ` + fmt.Sprint(fuzzyCandidates))
	if err != nil {
		return nil, fmt.Errorf("query fuzzy candidates: %w", err)
	}
	defer rows.Close()

	filterTrigrams := trigrams(filter)

	var out []ScoredAction
	for rows.Next() {
		var sa ScoredAction
		var base float64
		if err := scanScored(rows, &sa, &base); err != nil {
			return nil, err
		}

		similarity := trigramSimilarity(filterTrigrams, trigrams(sa.SearchName))
		if similarity <= similarityThreshold {
			continue
		}
		sa.Relevance = int(base * (1.0 + tokenScore(tokens, sa.SearchName) + similarity*fuzzyWeight) * relevanceScale)
		out = append(out, sa)
	}
	return out, rows.Err()
}

// scanScored reads the shared action columns plus any trailing score columns.
func scanScored(rows *sql.Rows, sa *ScoredAction, extra ...*float64) error {
	var path, exec sql.NullString
	dest := []any{
		&sa.ID, &sa.Name, &sa.SearchName, &sa.Kind,
		&path, &exec, &sa.AcceptsArgs, &sa.ExecutionCount,
	}
	for _, e := range extra {
		dest = append(dest, e)
	}
	if err := rows.Scan(dest...); err != nil {
		return fmt.Errorf("scan action: %w", err)
	}
	sa.Path = path.String
	sa.Exec = exec.String
	return nil
}

// sortScored orders by relevance descending, name ascending on ties.
func sortScored(actions []ScoredAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].Relevance != actions[j].Relevance {
			return actions[i].Relevance > actions[j].Relevance
		}
		return actions[i].Name < actions[j].Name
	})
}
