// Package event provides a small synchronous observer feed. Publish
// invokes every subscriber on the publishing goroutine, in subscription
// order, so event delivery keeps the FIFO ordering of the emitting
// caller.
package event

import "sync"

// Feed fans values out to subscribers. The zero value is ready to use.
type Feed[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
	keys []int
}

// Subscribe registers fn and returns a handle that removes it.
// Subscribers must not block and must not re-enter the structures that
// publish into the feed.
func (f *Feed[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subs == nil {
		f.subs = make(map[int]func(T))
	}
	id := f.next
	f.next++
	f.subs[id] = fn
	f.keys = append(f.keys, id)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
		for i, k := range f.keys {
			if k == id {
				f.keys = append(f.keys[:i], f.keys[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers v to all current subscribers, synchronously.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	fns := make([]func(T), 0, len(f.keys))
	for _, k := range f.keys {
		if fn, ok := f.subs[k]; ok {
			fns = append(fns, fn)
		}
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the current subscriber count.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
