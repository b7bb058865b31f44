// Package search implements the dashboard search box behavior: a debounce
// primitive that collapses keystroke bursts into one call, and a query
// synchronizer that mirrors the debounced search term into the URL query
// string. The package has no HTTP or storage dependencies; the listing
// handler reads the same query-state this package writes.
package search

import (
	"sync"
	"time"
)

// Debouncer wraps a single-argument callback so that repeated invocations
// within a sliding wait window collapse into one execution with the most
// recent argument. A call made before the window elapses cancels the pending
// execution and reschedules it; when the window finally elapses with no
// further calls, the callback fires exactly once.
//
// Debouncer is safe for concurrent use. After Stop, no further executions
// occur, including any already scheduled.
type Debouncer struct {
	mu      sync.Mutex
	wait    time.Duration
	fn      func(string)
	timer   *time.Timer
	stopped bool
}

// NewDebouncer returns a Debouncer that invokes fn with the latest argument
// after wait elapses without further calls. A non-positive wait is coerced
// to 1ns so the callback still runs asynchronously.
func NewDebouncer(wait time.Duration, fn func(string)) *Debouncer {
	if wait <= 0 {
		wait = time.Nanosecond
	}
	return &Debouncer{wait: wait, fn: fn}
}

// Call schedules fn(arg) after the wait window, replacing any pending
// scheduled execution and its argument.
func (d *Debouncer) Call(arg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		d.fn(arg)
	})
}

// Stop cancels any pending execution and prevents future ones. It is the
// teardown hook for the owning component; calling Stop more than once is
// fine. Stop does not wait for an in-flight callback to return.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
