// Package activity tracks which sources the user has acknowledged.
// A source with no recorded state counts as viewed: nothing is dirty
// before it has ever changed.
package activity

import "sync"

// Tracker maps source identifiers to a viewed flag. It carries no
// subscription bookkeeping; attaching change listeners is the concern
// of whoever consumes registry addition events.
type Tracker struct {
	mu     sync.Mutex
	viewed map[string]bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{viewed: make(map[string]bool)}
}

// MarkViewed records that the user has acknowledged source.
func (t *Tracker) MarkViewed(source string) {
	t.mu.Lock()
	t.viewed[source] = true
	t.mu.Unlock()
}

// MarkDirty records unacknowledged activity on source.
func (t *Tracker) MarkDirty(source string) {
	t.mu.Lock()
	t.viewed[source] = false
	t.mu.Unlock()
}

// Viewed reports whether source is acknowledged. Unknown sources are
// viewed by default.
func (t *Tracker) Viewed(source string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.viewed[source]
	return !ok || v
}
