package engine

import "net/url"

// Kind classifies a search result and drives execution dispatch. Program and
// desktop results come out of the action store; the rest are produced by
// builtin handlers.
type Kind string

const (
	KindProgram   Kind = "program"
	KindDesktop   Kind = "desktop"
	KindURL       Kind = "url"
	KindWebSearch Kind = "web-search"
	KindHistory   Kind = "history"
)

// Builtin handler ids. These are registered in the handlers table on engine
// construction and referenced by the execution ledger.
const (
	HandlerURLOpen    = "url-open"
	HandlerGoogle     = "google-search"
	HandlerDuckDuckGo = "duckduckgo-search"
	HandlerPerplexity = "perplexity-search"
	HandlerYandex     = "yandex-search"
	HandlerHistory    = "browser-history"
)

// builtinHandlers is the full registration set, in presentation order.
var builtinHandlers = []string{
	HandlerURLOpen,
	HandlerGoogle,
	HandlerDuckDuckGo,
	HandlerPerplexity,
	HandlerYandex,
	HandlerHistory,
}

// webSearchEngine is one search provider. Its results are fallbacks: they
// accept any non-empty query, so they rank after everything that actually
// matched.
type webSearchEngine struct {
	id        string
	name      string
	urlFormat string // fmt verb receives the escaped query
}

var webSearchEngines = []webSearchEngine{
	{HandlerGoogle, "Google", "https://www.google.com/search?q=%s"},
	{HandlerDuckDuckGo, "DuckDuckGo", "https://duckduckgo.com/?q=%s"},
	{HandlerPerplexity, "Perplexity", "https://www.perplexity.ai/?q=%s"},
	{HandlerYandex, "Yandex", "https://yandex.com/search/?text=%s"},
}

// isOpenableURL reports whether the query parses as a URL with both a scheme
// and a host, e.g. "https://go.dev". Bare words never qualify.
func isOpenableURL(query string) bool {
	u, err := url.Parse(query)
	return err == nil && u.Scheme != "" && u.Host != ""
}
