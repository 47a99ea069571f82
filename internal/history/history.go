// Package history reads visited-page records out of locally installed
// browsers' history databases. Each browser's live database may be locked by
// the running browser, so every read goes through a throwaway copy.
package history

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Chromium stores timestamps as microseconds since 1601-01-01; this offset
// converts them to microseconds since the Unix epoch.
const chromiumEpochOffsetMicros = 11644473600 * 1_000_000

// cacheTTL bounds how long the popular-pages snapshot (empty query) is
// served without rereading browser databases.
const defaultCacheTTL = 5 * time.Minute

// perDatabaseLimit caps the rows taken from any single history database.
const perDatabaseLimit = 5

// Entry is one visited page.
type Entry struct {
	Title      string
	URL        string
	VisitCount int64
	LastVisit  int64 // microseconds since the Unix epoch
}

type engine int

const (
	engineFirefox engine = iota
	engineChromium
)

// source locates one browser's history database relative to the home
// directory. Firefox paths point at the profile parent directory and are
// resolved by scanning for places.sqlite.
type source struct {
	browser string
	engine  engine
	path    string
}

var sources = []source{
	// Firefox keeps per-profile databases under a randomized directory name.
	{"firefox", engineFirefox, ".mozilla/firefox"},
	{"firefox", engineFirefox, "snap/firefox/common/.mozilla/firefox"},
	{"firefox", engineFirefox, ".var/app/org.mozilla.firefox/.mozilla/firefox"},

	{"chrome", engineChromium, ".config/google-chrome/Default/History"},
	{"chrome", engineChromium, ".config/google-chrome/Profile 1/History"},
	{"chrome", engineChromium, ".var/app/com.google.Chrome/config/google-chrome/Default/History"},

	{"chromium", engineChromium, ".config/chromium/Default/History"},
	{"chromium", engineChromium, "snap/chromium/common/chromium/Default/History"},
	{"chromium", engineChromium, ".var/app/org.chromium.Chromium/config/chromium/Default/History"},

	{"brave", engineChromium, ".config/BraveSoftware/Brave-Browser/Default/History"},
	{"brave", engineChromium, ".config/BraveSoftware/Brave-Browser/Profile 1/History"},
	{"brave", engineChromium, "snap/brave/current/.config/BraveSoftware/Brave-Browser/Default/History"},
	{"brave", engineChromium, ".var/app/com.brave.Browser/config/BraveSoftware/Brave-Browser/Default/History"},

	{"opera", engineChromium, ".config/opera/History"},
	{"opera", engineChromium, "snap/opera/current/.config/opera/History"},
	{"opera", engineChromium, ".var/app/com.opera.Opera/config/opera/History"},

	{"opera-developer", engineChromium, ".config/opera-developer/History"},

	{"vivaldi", engineChromium, ".config/vivaldi/Default/History"},
	{"vivaldi", engineChromium, "snap/vivaldi/current/.config/vivaldi/Default/History"},
	{"vivaldi", engineChromium, ".var/app/com.vivaldi.Vivaldi/config/vivaldi/Default/History"},
}

// Noise filtered out of every history query: internal pages, data URIs and
// search-result pages that would duplicate the web search handlers.
const firefoxQuery = `
	SELECT COALESCE(p.title, ''), p.url,
	       COALESCE(MAX(p.visit_count), 0),
	       COALESCE(MAX(v.visit_date), 0)
	FROM moz_places p
	JOIN moz_historyvisits v ON v.place_id = p.id
	WHERE p.url NOT LIKE 'data:%' AND p.url NOT LIKE 'about:%'
	  AND p.url NOT LIKE 'chrome:%' AND p.url NOT LIKE 'file:%'
	  AND p.url NOT LIKE 'view-source:%' AND p.url NOT LIKE 'edge:%'
	  AND p.url NOT LIKE 'brave:%' AND p.url NOT LIKE 'devtools:%'
	  AND p.url NOT LIKE 'blob:%'
	  AND LENGTH(p.url) < 1000
	  AND COALESCE(p.title, '') NOT LIKE '% - Google Search'
	  AND COALESCE(p.title, '') NOT LIKE '% - Brave Search'
	  AND COALESCE(p.title, '') NOT LIKE '% - DuckDuckGo'
	  AND COALESCE(p.title, '') NOT LIKE 'localhost:%'
	  AND (?1 = '' OR p.url LIKE '%' || ?1 || '%' OR COALESCE(p.title, '') LIKE '%' || ?1 || '%')
	GROUP BY p.url
	ORDER BY MAX(v.visit_date) DESC
	LIMIT ?2`

const chromiumQuery = `
	SELECT COALESCE(title, ''), url,
	       COALESCE(visit_count, 0),
	       COALESCE(last_visit_time, 0)
	FROM urls
	WHERE url NOT LIKE 'data:%' AND url NOT LIKE 'about:%'
	  AND url NOT LIKE 'chrome:%' AND url NOT LIKE 'file:%'
	  AND url NOT LIKE 'view-source:%' AND url NOT LIKE 'edge:%'
	  AND url NOT LIKE 'brave:%' AND url NOT LIKE 'devtools:%'
	  AND url NOT LIKE 'blob:%'
	  AND LENGTH(url) < 1000
	  AND COALESCE(title, '') NOT LIKE '% - Google Search'
	  AND COALESCE(title, '') NOT LIKE '% - Brave Search'
	  AND COALESCE(title, '') NOT LIKE '% - DuckDuckGo'
	  AND COALESCE(title, '') NOT LIKE 'localhost:%'
	  AND (?1 = '' OR url LIKE '%' || ?1 || '%' OR COALESCE(title, '') LIKE '%' || ?1 || '%')
	GROUP BY url
	ORDER BY last_visit_time DESC
	LIMIT ?2`

// Collector aggregates history from every browser found under a home
// directory. The zero value is not usable; call NewCollector.
type Collector struct {
	homeDir string
	ttl     time.Duration
	now     func() time.Time

	mu        sync.Mutex
	cached    []Entry
	fetchedAt time.Time
}

// NewCollector builds a collector reading browser databases under the
// current user's home directory.
func NewCollector() *Collector {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("history: cannot resolve home directory: %v", err)
	}
	return NewCollectorAt(home)
}

// NewCollectorAt builds a collector rooted at an explicit home directory.
func NewCollectorAt(homeDir string) *Collector {
	return &Collector{
		homeDir: homeDir,
		ttl:     defaultCacheTTL,
		now:     time.Now,
	}
}

// Entries returns matching history entries across all browsers, most
// recently visited first, deduplicated by URL. An empty query returns the
// recent-pages snapshot, which is cached briefly because it is requested on
// every keystroke-free search.
func (c *Collector) Entries(query string) []Entry {
	query = strings.ToLower(strings.TrimSpace(query))
	if query != "" {
		return c.collect(query)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.cached
	}
	c.cached = c.collect("")
	c.fetchedAt = c.now()
	return c.cached
}

func (c *Collector) collect(query string) []Entry {
	if c.homeDir == "" {
		return nil
	}

	var all []Entry
	for _, src := range sources {
		for _, dbPath := range c.databasePaths(src) {
			entries, err := readDatabase(dbPath, src.engine, query)
			if err != nil {
				log.Printf("history: %s at %s: %v", src.browser, dbPath, err)
				continue
			}
			all = append(all, entries...)
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].LastVisit > all[j].LastVisit })

	seen := make(map[string]bool, len(all))
	deduped := all[:0]
	for _, e := range all {
		if seen[e.URL] {
			continue
		}
		seen[e.URL] = true
		deduped = append(deduped, e)
	}
	return deduped
}

// databasePaths resolves a source to concrete database files that exist.
func (c *Collector) databasePaths(src source) []string {
	root := filepath.Join(c.homeDir, src.path)
	if src.engine == engineChromium {
		if _, err := os.Stat(root); err != nil {
			return nil
		}
		return []string{root}
	}

	// Firefox: scan profile directories for places.sqlite.
	profiles, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var paths []string
	for _, p := range profiles {
		if !p.IsDir() {
			continue
		}
		db := filepath.Join(root, p.Name(), "places.sqlite")
		if _, err := os.Stat(db); err == nil {
			paths = append(paths, db)
		}
	}
	return paths
}

// readDatabase copies the database aside, queries the copy read-only and
// removes it. The copy avoids SQLite lock contention with a running browser.
func readDatabase(path string, eng engine, query string) ([]Entry, error) {
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("quiver-history-%s.sqlite", uuid.NewString()))
	if err := copyFile(path, tmp); err != nil {
		return nil, fmt.Errorf("copying database: %w", err)
	}
	defer os.Remove(tmp)

	db, err := sql.Open("sqlite", "file:"+tmp+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening copy: %w", err)
	}
	defer db.Close()

	q := chromiumQuery
	if eng == engineFirefox {
		q = firefoxQuery
	}
	rows, err := db.Query(q, query, perDatabaseLimit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Title, &e.URL, &e.VisitCount, &e.LastVisit); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if eng == engineChromium {
			e.LastVisit -= chromiumEpochOffsetMicros
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
