package logbuf

import (
	"iter"
	"sync"

	"github.com/pharos-sh/pharos/pkg/event"
)

// Registry owns the mapping from source identifier to Buffer. Buffers
// are created lazily on first access and live for the registry's
// lifetime; there is no removal, sources accumulate.
type Registry struct {
	mu     sync.Mutex
	bufs   map[string]*Buffer
	defCap int

	added event.Feed[string]
}

// NewRegistry creates a registry whose new buffers get the given
// default capacity. Values ≤ 0 fall back to 1.
func NewRegistry(defaultCapacity int) *Registry {
	if defaultCapacity <= 0 {
		defaultCapacity = 1
	}
	return &Registry{
		bufs:   make(map[string]*Buffer),
		defCap: defaultCapacity,
	}
}

// OnAdded registers a listener invoked exactly once per distinct
// source, the first time its buffer is created.
func (r *Registry) OnAdded(fn func(source string)) (unsubscribe func()) {
	return r.added.Subscribe(fn)
}

// Buffer returns the buffer for source, creating it with the current
// default capacity if absent. Repeated calls return the same instance.
func (r *Registry) Buffer(source string) *Buffer {
	r.mu.Lock()
	b, ok := r.bufs[source]
	if !ok {
		b = NewBuffer(source, r.defCap)
		r.bufs[source] = b
	}
	r.mu.Unlock()

	if !ok {
		r.added.Publish(source)
	}
	return b
}

// Has reports whether a buffer exists for source without creating one.
func (r *Registry) Has(source string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bufs[source]
	return ok
}

// Sources returns a restartable sequence over all known source
// identifiers. Order is not significant.
func (r *Registry) Sources() iter.Seq[string] {
	return func(yield func(string) bool) {
		r.mu.Lock()
		ids := make([]string, 0, len(r.bufs))
		for id := range r.bufs {
			ids = append(ids, id)
		}
		r.mu.Unlock()

		for _, id := range ids {
			if !yield(id) {
				return
			}
		}
	}
}

// Len returns the number of known sources.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bufs)
}

// DefaultCapacity returns the capacity applied to newly created buffers.
func (r *Registry) DefaultCapacity() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defCap
}

// SetDefaultCapacity updates the capacity for buffers created from now
// on. Values ≤ 0 are rejected and the previous value retained.
func (r *Registry) SetDefaultCapacity(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	r.defCap = n
	r.mu.Unlock()
}
