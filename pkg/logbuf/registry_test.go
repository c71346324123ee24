package logbuf

import (
	"testing"
)

func TestRegistryReferenceStability(t *testing.T) {
	r := NewRegistry(10)
	a := r.Buffer("file:a")
	b := r.Buffer("file:a")
	if a != b {
		t.Error("repeated lookups must return the same buffer instance")
	}
}

func TestRegistryAddedFiresOncePerSource(t *testing.T) {
	r := NewRegistry(10)
	var added []string
	r.OnAdded(func(s string) { added = append(added, s) })

	r.Buffer("file:a")
	r.Buffer("file:a")
	r.Buffer("file:b")

	if len(added) != 2 {
		t.Fatalf("expected 2 added events, got %d (%v)", len(added), added)
	}
	if added[0] != "file:a" || added[1] != "file:b" {
		t.Errorf("added = %v", added)
	}
}

func TestRegistrySourcesRestartable(t *testing.T) {
	r := NewRegistry(10)
	r.Buffer("file:a")
	r.Buffer("file:b")

	seq := r.Sources()
	first := make(map[string]bool)
	for s := range seq {
		first[s] = true
	}
	second := 0
	for range seq {
		second++
	}

	if len(first) != 2 || !first["file:a"] || !first["file:b"] {
		t.Errorf("first pass = %v", first)
	}
	if second != 2 {
		t.Errorf("second pass yielded %d sources, want 2", second)
	}
}

func TestRegistrySourcesEarlyStop(t *testing.T) {
	r := NewRegistry(10)
	r.Buffer("file:a")
	r.Buffer("file:b")
	r.Buffer("file:c")

	n := 0
	for range r.Sources() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("early break yielded %d, want 1", n)
	}
}

func TestRegistryDefaultCapacityAppliesToNewBuffers(t *testing.T) {
	r := NewRegistry(5)
	if got := r.Buffer("file:a").Capacity(); got != 5 {
		t.Errorf("capacity = %d, want 5", got)
	}

	r.SetDefaultCapacity(7)
	if got := r.Buffer("file:b").Capacity(); got != 7 {
		t.Errorf("capacity = %d, want 7", got)
	}
	// Existing buffers keep their bound until told otherwise.
	if got := r.Buffer("file:a").Capacity(); got != 5 {
		t.Errorf("existing capacity = %d, want 5", got)
	}
}

func TestRegistrySetDefaultCapacityRejectsNonPositive(t *testing.T) {
	r := NewRegistry(5)
	r.SetDefaultCapacity(0)
	r.SetDefaultCapacity(-3)
	if got := r.DefaultCapacity(); got != 5 {
		t.Errorf("default capacity = %d, want 5", got)
	}
}

func TestRegistryHasDoesNotCreate(t *testing.T) {
	r := NewRegistry(5)
	if r.Has("file:a") {
		t.Error("Has must not create")
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}
