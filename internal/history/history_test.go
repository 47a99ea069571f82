package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// seedChromium writes a minimal Chromium-style History database.
func seedChromium(t *testing.T, path string, rows [][4]any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE urls (
		id INTEGER PRIMARY KEY,
		url TEXT,
		title TEXT,
		visit_count INTEGER,
		last_visit_time INTEGER
	)`); err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if _, err := db.Exec(
			"INSERT INTO urls (title, url, visit_count, last_visit_time) VALUES (?, ?, ?, ?)",
			r[0], r[1], r[2], r[3]); err != nil {
			t.Fatal(err)
		}
	}
}

// seedFirefox writes a minimal places.sqlite under a Firefox profile dir.
func seedFirefox(t *testing.T, path string, rows [][4]any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE moz_places (id INTEGER PRIMARY KEY, url TEXT, title TEXT, visit_count INTEGER)`,
		`CREATE TABLE moz_historyvisits (id INTEGER PRIMARY KEY, place_id INTEGER, visit_date INTEGER)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatal(err)
		}
	}
	for i, r := range rows {
		if _, err := db.Exec(
			"INSERT INTO moz_places (id, title, url, visit_count) VALUES (?, ?, ?, ?)",
			i+1, r[0], r[1], r[2]); err != nil {
			t.Fatal(err)
		}
		if _, err := db.Exec(
			"INSERT INTO moz_historyvisits (place_id, visit_date) VALUES (?, ?)",
			i+1, r[3]); err != nil {
			t.Fatal(err)
		}
	}
}

// chromiumMicros converts a Unix-epoch microsecond timestamp to Chromium's
// 1601-epoch representation.
func chromiumMicros(unixMicros int64) int64 {
	return unixMicros + chromiumEpochOffsetMicros
}

func TestEntriesReadsChromiumAndNormalizesTimestamps(t *testing.T) {
	home := t.TempDir()
	seedChromium(t, filepath.Join(home, ".config/chromium/Default/History"), [][4]any{
		{"Go Documentation", "https://go.dev/doc/", 10, chromiumMicros(2_000_000)},
		{"Example", "https://example.com/", 3, chromiumMicros(1_000_000)},
	})

	c := NewCollectorAt(home)
	got := c.Entries("go.dev")
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1: %+v", len(got), got)
	}
	e := got[0]
	if e.Title != "Go Documentation" || e.VisitCount != 10 {
		t.Errorf("entry = %+v", e)
	}
	if e.LastVisit != 2_000_000 {
		t.Errorf("LastVisit = %d, want normalized Unix micros 2000000", e.LastVisit)
	}
}

func TestEntriesReadsFirefoxProfiles(t *testing.T) {
	home := t.TempDir()
	seedFirefox(t, filepath.Join(home, ".mozilla/firefox/abcd1234.default/places.sqlite"), [][4]any{
		{"Hacker News", "https://news.ycombinator.com/", 42, int64(5_000_000)},
	})

	c := NewCollectorAt(home)
	got := c.Entries("ycombinator")
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1: %+v", len(got), got)
	}
	if got[0].VisitCount != 42 || got[0].LastVisit != 5_000_000 {
		t.Errorf("entry = %+v", got[0])
	}
}

func TestEntriesDedupesAcrossBrowsers(t *testing.T) {
	home := t.TempDir()
	// Same URL in both browsers; the Chromium visit is more recent after
	// epoch normalization and must win.
	seedChromium(t, filepath.Join(home, ".config/chromium/Default/History"), [][4]any{
		{"Shared (chromium)", "https://shared.example/", 7, chromiumMicros(9_000_000)},
	})
	seedFirefox(t, filepath.Join(home, ".mozilla/firefox/zz.default/places.sqlite"), [][4]any{
		{"Shared (firefox)", "https://shared.example/", 2, int64(4_000_000)},
	})

	c := NewCollectorAt(home)
	got := c.Entries("shared")
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1 after dedup: %+v", len(got), got)
	}
	if got[0].Title != "Shared (chromium)" {
		t.Errorf("kept %q, want the most recently visited copy", got[0].Title)
	}
}

func TestEntriesFiltersNoise(t *testing.T) {
	home := t.TempDir()
	seedChromium(t, filepath.Join(home, ".config/chromium/Default/History"), [][4]any{
		{"settings", "chrome://settings/", 50, chromiumMicros(1_000_000)},
		{"golang tutorial - Google Search", "https://www.google.com/search?q=golang", 9, chromiumMicros(2_000_000)},
		{"Real Page", "https://real.example/page", 1, chromiumMicros(3_000_000)},
	})

	c := NewCollectorAt(home)
	got := c.Entries("")
	if len(got) != 1 || got[0].URL != "https://real.example/page" {
		t.Fatalf("got %+v, want only the real page", got)
	}
}

func TestEntriesCachesEmptyQuery(t *testing.T) {
	home := t.TempDir()
	dbPath := filepath.Join(home, ".config/chromium/Default/History")
	seedChromium(t, dbPath, [][4]any{
		{"First", "https://first.example/", 1, chromiumMicros(1_000_000)},
	})

	now := time.Now()
	c := NewCollectorAt(home)
	c.now = func() time.Time { return now }

	if got := c.Entries(""); len(got) != 1 {
		t.Fatalf("initial fetch: got %d entries", len(got))
	}

	// New rows are invisible until the snapshot expires.
	seedChromium(t, filepath.Join(home, ".config/vivaldi/Default/History"), [][4]any{
		{"Second", "https://second.example/", 1, chromiumMicros(2_000_000)},
	})
	if got := c.Entries(""); len(got) != 1 {
		t.Fatalf("within TTL: got %d entries, want cached 1", len(got))
	}

	now = now.Add(defaultCacheTTL + time.Second)
	if got := c.Entries(""); len(got) != 2 {
		t.Fatalf("after TTL: got %d entries, want 2", len(got))
	}

	// Non-empty queries always read live.
	if got := c.Entries("second"); len(got) != 1 || got[0].Title != "Second" {
		t.Fatalf("live query: got %+v", got)
	}
}

func TestEntriesPerDatabaseLimit(t *testing.T) {
	home := t.TempDir()
	rows := make([][4]any, 8)
	for i := range rows {
		rows[i] = [4]any{
			"Page", "https://site.example/" + string(rune('a'+i)),
			1, chromiumMicros(int64(i+1) * 1_000_000),
		}
	}
	seedChromium(t, filepath.Join(home, ".config/chromium/Default/History"), rows)

	c := NewCollectorAt(home)
	if got := c.Entries("site.example"); len(got) != perDatabaseLimit {
		t.Fatalf("got %d entries, want %d", len(got), perDatabaseLimit)
	}
}

func TestEntriesMissingHome(t *testing.T) {
	c := NewCollectorAt(filepath.Join(t.TempDir(), "nope"))
	if got := c.Entries("anything"); len(got) != 0 {
		t.Fatalf("got %+v, want none", got)
	}
}
