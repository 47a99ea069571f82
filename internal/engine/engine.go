// Package engine combines stored actions, builtin handlers and browser
// history into one ranked result list, and executes whichever result the
// user picks.
package engine

import (
	"fmt"
	"net/url"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/lazyarrow/quiver/internal/discover"
	"github.com/lazyarrow/quiver/internal/history"
	"github.com/lazyarrow/quiver/internal/store"
)

// maxResults is the fixed window handed back to callers.
const maxResults = 10

// historyRelevanceScale mirrors the store's integer relevance scale so
// history results interleave sensibly with stored actions.
const historyRelevanceScale = 10

// Result is one ranked candidate. IDs are stable across a search/execute
// round trip: store rows use their decimal row id, builtins use their
// handler id, and history entries prefix their URL.
type Result struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Detail         string `json:"detail,omitempty"`
	Kind           Kind   `json:"kind"`
	Relevance      int    `json:"relevance"`
	ExecutionCount int    `json:"execution_count"`
	Fallback       bool   `json:"fallback"`

	// execution payload, never serialized
	path        string
	execLine    string
	acceptsArgs bool
	targetURL   string
	searchURL   string
}

// Engine answers searches and executes results.
type Engine struct {
	db      *store.DB
	history *history.Collector

	// process-spawning seams, replaced in tests
	openURL func(target string) error
	spawn   func(name string, args ...string) error

	listExecutables    func() []discover.Executable
	listDesktopEntries func() []discover.DesktopEntry

	mu       sync.Mutex
	scanning bool
	scanDone chan struct{}
}

// New builds an engine over an open store and registers every builtin
// handler so it shows up in handler listings. A nil collector disables
// browser history results entirely.
func New(db *store.DB, hist *history.Collector) (*Engine, error) {
	for _, id := range builtinHandlers {
		if err := db.RegisterHandler(id); err != nil {
			return nil, fmt.Errorf("registering handler %s: %w", id, err)
		}
	}
	return &Engine{
		db:                 db,
		history:            hist,
		openURL:            openWithDefaultBrowser,
		spawn:              spawnDetached,
		listExecutables:    discover.Executables,
		listDesktopEntries: discover.DesktopEntries,
	}, nil
}

// Search ranks everything that accepts the query: stored actions, builtin
// handlers and browser history. Results are relevance-ordered with fallback
// entries (web searches) pinned after all genuine matches; at most ten are
// returned. An empty query returns the currently most popular stored
// actions only.
func (e *Engine) Search(query string) ([]Result, error) {
	query = strings.TrimSpace(query)

	stored, err := e.db.QueryActions(query)
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}

	results := make([]Result, 0, len(stored)+8)
	for _, sa := range stored {
		results = append(results, storedResult(sa))
	}

	if query == "" {
		return truncate(results), nil
	}

	enabled, err := e.enabledHandlers()
	if err != nil {
		return nil, err
	}

	if enabled[HandlerURLOpen] && isOpenableURL(query) {
		r, err := e.builtinResult(HandlerURLOpen, "Open "+query, KindURL)
		if err != nil {
			return nil, err
		}
		r.targetURL = query
		results = append(results, r)
	}

	if e.history != nil && enabled[HandlerHistory] {
		for _, h := range e.history.Entries(query) {
			results = append(results, historyResult(h))
		}
	}

	var fallbacks []Result
	for _, se := range webSearchEngines {
		if !enabled[se.id] {
			continue
		}
		r, err := e.builtinResult(se.id, fmt.Sprintf("Search %s for %q", se.name, query), KindWebSearch)
		if err != nil {
			return nil, err
		}
		r.Fallback = true
		r.searchURL = se.urlFormat
		fallbacks = append(fallbacks, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Name < results[j].Name
	})
	results = append(results, fallbacks...)
	return truncate(results), nil
}

// Execute resolves a result id against the current search results for the
// same query and runs it. Executions are recorded in the ledger only after
// the launch succeeds; history entries are recorded under the history
// handler id rather than per URL.
func (e *Engine) Execute(id, query string, args []string) error {
	results, err := e.Search(query)
	if err != nil {
		return err
	}

	var target *Result
	for i := range results {
		if results[i].ID == id {
			target = &results[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no active result %q for query %q", id, query)
	}

	switch target.Kind {
	case KindProgram:
		err = e.spawn(target.path, args...)
	case KindDesktop:
		fields := strings.Fields(target.execLine)
		if len(fields) == 0 {
			return fmt.Errorf("desktop action %q has an empty exec line", target.Name)
		}
		extra := fields[1:]
		if target.acceptsArgs {
			extra = append(extra, args...)
		}
		err = e.spawn(fields[0], extra...)
	case KindURL:
		err = e.openURL(target.targetURL)
	case KindWebSearch:
		err = e.openURL(fmt.Sprintf(target.searchURL, url.QueryEscape(query)))
	case KindHistory:
		err = e.openURL(target.targetURL)
	default:
		return fmt.Errorf("unknown result kind %q", target.Kind)
	}
	if err != nil {
		return fmt.Errorf("executing %s: %w", target.Name, err)
	}

	ledgerID := target.ID
	if target.Kind == KindHistory {
		ledgerID = HandlerHistory
	}
	if err := e.db.LogExecution(ledgerID); err != nil {
		return fmt.Errorf("recording execution: %w", err)
	}
	return nil
}

// Handlers lists every registered handler with its enabled state.
func (e *Engine) Handlers() ([]store.HandlerState, error) {
	return e.db.Handlers()
}

// SetHandlerEnabled toggles a builtin handler. Unknown ids are rejected so a
// typo cannot create a phantom row.
func (e *Engine) SetHandlerEnabled(id string, enabled bool) error {
	known := false
	for _, h := range builtinHandlers {
		if h == id {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown handler %q", id)
	}
	return e.db.SetHandlerEnabled(id, enabled)
}

func (e *Engine) enabledHandlers() (map[string]bool, error) {
	states, err := e.db.Handlers()
	if err != nil {
		return nil, fmt.Errorf("loading handler states: %w", err)
	}
	enabled := make(map[string]bool, len(states))
	for _, s := range states {
		enabled[s.ID] = s.Enabled
	}
	return enabled, nil
}

func (e *Engine) builtinResult(id, name string, kind Kind) (Result, error) {
	relevance, count, err := e.db.Relevance(id)
	if err != nil {
		return Result{}, fmt.Errorf("scoring %s: %w", id, err)
	}
	return Result{
		ID:             id,
		Name:           name,
		Kind:           kind,
		Relevance:      relevance,
		ExecutionCount: count,
	}, nil
}

func storedResult(sa store.ScoredAction) Result {
	r := Result{
		ID:             strconv.FormatInt(sa.ID, 10),
		Name:           sa.Name,
		Relevance:      sa.Relevance,
		ExecutionCount: sa.ExecutionCount,
	}
	switch sa.Kind {
	case store.KindDesktop:
		r.Kind = KindDesktop
		r.Detail = sa.Exec
		r.execLine = sa.Exec
		r.acceptsArgs = sa.AcceptsArgs
	default:
		r.Kind = KindProgram
		r.Detail = sa.Path
		r.path = sa.Path
	}
	return r
}

// historyResult scores a visited page by visit count, capped so a single
// obsessively revisited page cannot drown out direct matches forever.
func historyResult(h history.Entry) Result {
	visits := h.VisitCount
	if visits > 100 {
		visits = 100
	}
	name := h.Title
	if name == "" {
		name = h.URL
	}
	return Result{
		ID:        "history:" + h.URL,
		Name:      name,
		Detail:    h.URL,
		Kind:      KindHistory,
		Relevance: int(50+visits) * historyRelevanceScale,
		targetURL: h.URL,
	}
}

func truncate(results []Result) []Result {
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func spawnDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child in the background so it never lingers as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}

func openWithDefaultBrowser(target string) error {
	return spawnDetached("xdg-open", target)
}
