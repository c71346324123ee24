package notify

import (
	"sync"
	"testing"
	"time"
)

func TestDebouncerSinglePendingTask(t *testing.T) {
	var mu sync.Mutex
	var d debouncer
	fired := 0

	run := func(gen uint64) {
		mu.Lock()
		defer mu.Unlock()
		if d.current(gen) {
			fired++
		}
	}

	mu.Lock()
	d.schedule(20*time.Millisecond, run)
	d.schedule(20*time.Millisecond, run) // restarts, first must never fire
	d.schedule(20*time.Millisecond, run)
	mu.Unlock()

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
}

func TestDebouncerCancel(t *testing.T) {
	var mu sync.Mutex
	var d debouncer
	fired := false

	mu.Lock()
	d.schedule(20*time.Millisecond, func(gen uint64) {
		mu.Lock()
		defer mu.Unlock()
		if d.current(gen) {
			fired = true
		}
	})
	d.cancel()
	mu.Unlock()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired {
		t.Error("cancelled task must not fire")
	}
}

func TestDebouncerStaleGenerationRejected(t *testing.T) {
	var d debouncer
	d.schedule(time.Hour, func(uint64) {})
	stale := d.gen
	d.cancel()

	if d.current(stale) {
		t.Error("generation must be invalid after cancel")
	}
}
