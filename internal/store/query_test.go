package store

import (
	"fmt"
	"strconv"
	"testing"
	"time"
)

func seedStore(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustInsertProgram(t *testing.T, db *DB, name, path string) int64 {
	t.Helper()
	id, err := db.InsertProgram(name, path)
	if err != nil {
		t.Fatalf("InsertProgram(%s): %v", name, err)
	}
	return id
}

func execTimes(t *testing.T, db *DB, id int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := db.logExecutionAt(strconv.FormatInt(id, 10), time.Now().UTC().Add(-time.Minute)); err != nil {
			t.Fatalf("logExecutionAt: %v", err)
		}
	}
}

func TestQueryActionsEmptyFilterPopularity(t *testing.T) {
	db := seedStore(t)

	a := mustInsertProgram(t, db, "alpha", "/usr/bin/alpha")
	b := mustInsertProgram(t, db, "beta", "/usr/bin/beta")
	c := mustInsertProgram(t, db, "gamma", "/usr/bin/gamma")

	execTimes(t, db, b, 5)
	execTimes(t, db, c, 2)
	_ = a

	results, err := db.QueryActions("")
	if err != nil {
		t.Fatalf("QueryActions: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Name != "beta" || results[1].Name != "gamma" || results[2].Name != "alpha" {
		t.Errorf("popularity order = %s, %s, %s; want beta, gamma, alpha",
			results[0].Name, results[1].Name, results[2].Name)
	}
	for i := 0; i+1 < len(results); i++ {
		if results[i].Relevance < results[i+1].Relevance {
			t.Errorf("relevance not descending at %d: %d < %d", i, results[i].Relevance, results[i+1].Relevance)
		}
	}
}

func TestQueryActionsEmptyFilterTiebreak(t *testing.T) {
	db := seedStore(t)

	mustInsertProgram(t, db, "zsh", "/usr/bin/zsh")
	mustInsertProgram(t, db, "awk", "/usr/bin/awk")

	results, err := db.QueryActions("")
	if err != nil {
		t.Fatalf("QueryActions: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// Equal base scores break deterministically by name
	if results[0].Name != "awk" || results[1].Name != "zsh" {
		t.Errorf("tiebreak order = %s, %s; want awk, zsh", results[0].Name, results[1].Name)
	}
}

func TestQueryActionsMatchQualityTiers(t *testing.T) {
	db := seedStore(t)

	// All with identical (empty) execution history, so only match quality differs.
	mustInsertProgram(t, db, "vim", "/usr/bin/vim")          // exact for "vim"
	mustInsertProgram(t, db, "vimdiff", "/usr/bin/vimdiff")  // prefix
	mustInsertProgram(t, db, "gvim-gtk", "/usr/bin/gvim")    // substring

	results, err := db.QueryActions("vim")
	if err != nil {
		t.Fatalf("QueryActions: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Name != "vim" {
		t.Errorf("exact match should rank first, got %s", results[0].Name)
	}
	if results[1].Name != "vimdiff" {
		t.Errorf("prefix match should rank second, got %s", results[1].Name)
	}
	if results[2].Name != "gvim-gtk" {
		t.Errorf("substring match should rank third, got %s", results[2].Name)
	}
	if results[0].Relevance <= results[1].Relevance || results[1].Relevance <= results[2].Relevance {
		t.Errorf("relevance tiers not strictly ordered: %d, %d, %d",
			results[0].Relevance, results[1].Relevance, results[2].Relevance)
	}
}

func TestQueryActionsBaseScoreBreaksQualityTies(t *testing.T) {
	db := seedStore(t)

	// Both prefix matches for "fi"; "firefox" executed more.
	firefox := mustInsertProgram(t, db, "firefox", "/usr/bin/firefox")
	mustInsertProgram(t, db, "file-roller", "/usr/bin/file-roller")

	execTimes(t, db, firefox, 4)

	results, err := db.QueryActions("fi")
	if err != nil {
		t.Fatalf("QueryActions: %v", err)
	}
	if len(results) < 2 {
		t.Fatalf("got %d results, want at least 2", len(results))
	}
	if results[0].Name != "firefox" {
		t.Errorf("higher base score should win within a tier, got %s first", results[0].Name)
	}
	if results[0].ExecutionCount != 4 {
		t.Errorf("ExecutionCount = %d, want 4", results[0].ExecutionCount)
	}
}

func TestQueryActionsDesktopMultiplier(t *testing.T) {
	db := seedStore(t)

	// Equivalent prefix matches with no history; only the kind differs.
	mustInsertProgram(t, db, "inkscape bin", "/usr/bin/inkscape")
	if _, err := db.InsertDesktop("inkscape app", "inkscape", false); err != nil {
		t.Fatalf("InsertDesktop: %v", err)
	}

	results, err := db.QueryActions("inkscape")
	if err != nil {
		t.Fatalf("QueryActions: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Kind != KindDesktop {
		t.Errorf("desktop multiplier should rank the desktop entry first, got %s", results[0].Kind)
	}
}

func TestQueryActionsFuzzyFallback(t *testing.T) {
	db := seedStore(t)

	mustInsertProgram(t, db, "GIMP Image Editor", "/usr/bin/gimp")
	mustInsertProgram(t, db, "unrelated", "/usr/bin/unrelated")

	// "gimp editor photo" is not a substring of "gimp image editor", so the
	// direct tier misses entirely and the trigram tier must recover it.
	results, err := db.QueryActions("gimp editor photo")
	if err != nil {
		t.Fatalf("QueryActions: %v", err)
	}

	found := false
	for _, r := range results {
		if r.Name == "GIMP Image Editor" {
			found = true
		}
		if r.Name == "unrelated" {
			t.Error("dissimilar candidate should be discarded by the similarity threshold")
		}
	}
	if !found {
		t.Error("fuzzy tier should surface GIMP Image Editor")
	}
}

func TestQueryActionsFuzzySkipsDirectDuplicates(t *testing.T) {
	db := seedStore(t)

	mustInsertProgram(t, db, "gimp", "/usr/bin/gimp")

	results, err := db.QueryActions("gimp")
	if err != nil {
		t.Fatalf("QueryActions: %v", err)
	}
	seen := map[int64]int{}
	for _, r := range results {
		seen[r.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("action %d appears %d times, want 1", id, n)
		}
	}
}

func TestQueryActionsResultWindow(t *testing.T) {
	db := seedStore(t)

	for i := 0; i < 15; i++ {
		mustInsertProgram(t, db, fmt.Sprintf("tool-%02d", i), fmt.Sprintf("/usr/bin/tool-%02d", i))
	}

	results, err := db.QueryActions("tool")
	if err != nil {
		t.Fatalf("QueryActions: %v", err)
	}
	if len(results) > maxResults {
		t.Errorf("got %d results, want at most %d", len(results), maxResults)
	}

	results, err = db.QueryActions("")
	if err != nil {
		t.Fatalf("QueryActions empty: %v", err)
	}
	if len(results) > maxResults {
		t.Errorf("empty query: got %d results, want at most %d", len(results), maxResults)
	}
}

func TestQueryActionsPunctuationInsensitive(t *testing.T) {
	db := seedStore(t)

	mustInsertProgram(t, db, "g++-12", "/usr/bin/g++-12")

	results, err := db.QueryActions("g12")
	if err != nil {
		t.Fatalf("QueryActions: %v", err)
	}
	if len(results) == 0 || results[0].Name != "g++-12" {
		t.Errorf("searchname projection should ignore punctuation, got %v", results)
	}
}
