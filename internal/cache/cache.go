// Package cache provides a small, concurrency-safe, in-memory cache for
// rendered view payloads, keyed by URL path. It backs the invoice listing
// view: successful mutations invalidate the listing path so the next read
// recomputes it from the database.
//
// The cache is deliberately minimal:
//   - No logging in the library (callers decide how/what to log)
//   - No TTL or eviction policy beyond explicit invalidation; the entry set
//     is bounded by the number of distinct query-string variants of a path
//   - Invalidation is fire-and-forget and returns nothing
//
// The behavior mirrors what a framework-level "revalidate path" hook offers:
// mark everything rendered under a path stale in one call.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Entry is a cached rendering of a view: the serialized body plus the ETag
// under which it was served.
type Entry struct {
	Body     []byte
	ETag     string
	StoredAt time.Time
}

// Store is a path-keyed cache of rendered payloads. Keys are full request
// paths including the query string (e.g. "/dashboard/invoices?page=2");
// Invalidate operates on the bare path and drops every variant under it.
//
// The zero value is not usable; construct with New.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty Store ready for use.
func New() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Get returns the cached entry for key and whether it exists.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// Put stores a rendered payload under key. The body is copied so callers may
// reuse their buffer.
func (s *Store) Put(key string, body []byte, etag string) {
	b := make([]byte, len(body))
	copy(b, body)
	s.mu.Lock()
	s.entries[key] = Entry{Body: b, ETag: etag, StoredAt: time.Now().UTC()}
	s.mu.Unlock()
}

// Invalidate drops every cached entry rendered under path: the exact key and
// any key of the form path?query. It is fire-and-forget; invalidating a path
// with no cached entries is a no-op.
func (s *Store) Invalidate(path string) {
	prefix := path + "?"
	s.mu.Lock()
	for k := range s.entries {
		if k == path || strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	s.mu.Unlock()
}

// Len reports the number of cached entries. Intended for tests and metrics.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
