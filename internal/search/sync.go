package search

import (
	"net/url"
	"time"

	"github.com/tbourn/go-invoice-backend/internal/utils"
)

// URL query parameter names shared between the search box (writer) and the
// listing view (reader).
const (
	ParamQuery = "query"
	ParamPage  = "page"
)

// DefaultWait is the debounce window applied to keystrokes before the URL
// is rewritten.
const DefaultWait = 300 * time.Millisecond

// Navigator performs a client-side URL replacement: same document, updated
// address, no new history entry and no reload.
type Navigator interface {
	Replace(url string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(url string)

// Replace calls f(url).
func (f NavigatorFunc) Replace(url string) { f(url) }

// TermFromValues extracts the search term the synchronizer previously wrote,
// or "" when absent. The listing handler uses this to filter results.
func TermFromValues(params url.Values) string {
	return params.Get(ParamQuery)
}

// PageFromValues extracts the 1-based page number, defaulting to 1 for
// missing or malformed values.
func PageFromValues(params url.Values) int {
	page := utils.AtoiDefault(params.Get(ParamPage), 1)
	if page < 1 {
		page = 1
	}
	return page
}

// RewriteQuery returns the URL for pathname with the query parameters
// updated for a new search term: page is reset to 1, and the query
// parameter is set to term when non-empty or removed entirely when blank.
// All other parameters are preserved.
func RewriteQuery(pathname string, params url.Values, term string) string {
	next := url.Values{}
	for k, vs := range params {
		next[k] = append([]string(nil), vs...)
	}
	next.Set(ParamPage, "1")
	if term != "" {
		next.Set(ParamQuery, term)
	} else {
		next.Del(ParamQuery)
	}
	return pathname + "?" + next.Encode()
}

// Synchronizer keeps the URL query string in sync with a text input. Each
// input change is debounced; when the window elapses, the current URL is
// rewritten via RewriteQuery and handed to the Navigator as a replace.
type Synchronizer struct {
	pathname string
	params   url.Values
	nav      Navigator
	deb      *Debouncer
}

// NewSynchronizer builds a Synchronizer for the view at pathname whose
// current query parameters are params. wait <= 0 selects DefaultWait.
func NewSynchronizer(pathname string, params url.Values, nav Navigator, wait time.Duration) *Synchronizer {
	if wait <= 0 {
		wait = DefaultWait
	}
	s := &Synchronizer{
		pathname: pathname,
		params:   params,
		nav:      nav,
	}
	s.deb = NewDebouncer(wait, s.apply)
	return s
}

// HandleInput records a new value of the text input. The URL rewrite runs
// only after the debounce window elapses with no further input.
func (s *Synchronizer) HandleInput(term string) {
	s.deb.Call(term)
}

// Close disposes the synchronizer. Any pending rewrite is cancelled and no
// navigation fires afterwards.
func (s *Synchronizer) Close() {
	s.deb.Stop()
}

// apply is the debounced effect: rewrite the query string and replace the
// current URL.
func (s *Synchronizer) apply(term string) {
	s.nav.Replace(RewriteQuery(s.pathname, s.params, term))
}

// Box is the search input component: a placeholder for the empty field and
// a value seeded from the current URL so bookmarked and shared links render
// with the search term filled in. Input changes flow through the embedded
// Synchronizer.
type Box struct {
	Placeholder string
	Value       string

	*Synchronizer
}

// NewBox constructs a search box over the view at pathname with the given
// current query parameters. The initial Value comes from the query
// parameter when present.
func NewBox(placeholder, pathname string, params url.Values, nav Navigator) *Box {
	return &Box{
		Placeholder:  placeholder,
		Value:        TermFromValues(params),
		Synchronizer: NewSynchronizer(pathname, params, nav, DefaultWait),
	}
}
