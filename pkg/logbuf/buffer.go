// Package logbuf provides bounded per-source log storage: a Buffer holds
// the most recent entries for one source, and a Registry maps source
// identifiers to buffers.
package logbuf

import (
	"sync"

	"github.com/pharos-sh/pharos/pkg/core"
	"github.com/pharos-sh/pharos/pkg/event"
)

// Change describes a buffer mutation.
type Change struct {
	Source  string
	Len     int
	Evicted bool
	Cleared bool
}

// Buffer is a bounded, ordered store of log entries for one source.
// Length never exceeds capacity; the oldest entries are evicted first.
type Buffer struct {
	mu      sync.Mutex
	source  string
	entries []core.Entry
	cap     int

	changed event.Feed[Change]
}

// NewBuffer creates an empty buffer. Capacity must be positive; values
// ≤ 0 fall back to 1 so a zero-value misuse cannot grow unbounded.
func NewBuffer(source string, capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{source: source, cap: capacity}
}

// Source returns the owning source identifier.
func (b *Buffer) Source() string { return b.source }

// OnChange registers a listener for buffer mutations.
func (b *Buffer) OnChange(fn func(Change)) (unsubscribe func()) {
	return b.changed.Subscribe(fn)
}

// Append adds an entry at the tail, evicting from the head when the
// buffer is full. It always succeeds.
func (b *Buffer) Append(e core.Entry) {
	b.mu.Lock()
	b.entries = append(b.entries, e)
	evicted := false
	if len(b.entries) > b.cap {
		n := len(b.entries) - b.cap
		b.entries = append(b.entries[:0], b.entries[n:]...)
		evicted = true
	}
	ch := Change{Source: b.source, Len: len(b.entries), Evicted: evicted}
	b.mu.Unlock()

	b.changed.Publish(ch)
}

// Clear removes all entries.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.entries = b.entries[:0]
	ch := Change{Source: b.source, Cleared: true}
	b.mu.Unlock()

	b.changed.Publish(ch)
}

// SetCapacity updates the bound. Values ≤ 0 are rejected: the previous
// capacity is retained and no event is raised. Shrinking below the
// current length evicts from the head immediately.
func (b *Buffer) SetCapacity(n int) {
	if n <= 0 {
		return
	}

	b.mu.Lock()
	b.cap = n
	if len(b.entries) <= n {
		b.mu.Unlock()
		return
	}
	b.entries = append(b.entries[:0], b.entries[len(b.entries)-n:]...)
	ch := Change{Source: b.source, Len: len(b.entries), Evicted: true}
	b.mu.Unlock()

	b.changed.Publish(ch)
}

// Len returns the current entry count.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Capacity returns the current bound.
func (b *Buffer) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cap
}

// Entries returns a copy of the retained entries in arrival order.
func (b *Buffer) Entries() []core.Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 {
		return nil
	}
	dup := make([]core.Entry, len(b.entries))
	copy(dup, b.entries)
	return dup
}
