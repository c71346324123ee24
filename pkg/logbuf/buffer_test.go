package logbuf

import (
	"fmt"
	"testing"

	"github.com/pharos-sh/pharos/pkg/core"
)

func entry(line string) core.Entry {
	return core.NewEntry("file:test", core.KindStream, line)
}

func lines(b *Buffer) []string {
	var out []string
	for _, e := range b.Entries() {
		out = append(out, e.Line)
	}
	return out
}

func TestBufferRetainsMostRecent(t *testing.T) {
	b := NewBuffer("file:doc", 5)
	for i := 1; i <= 7; i++ {
		b.Append(entry(fmt.Sprintf("%d", i)))
	}

	got := lines(b)
	want := []string{"3", "4", "5", "6", "7"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if b.Len() != 5 {
		t.Errorf("Len = %d, want 5", b.Len())
	}
}

func TestBufferLenNeverExceedsCapacity(t *testing.T) {
	for _, capacity := range []int{1, 3, 10} {
		b := NewBuffer("file:x", capacity)
		for i := 0; i < capacity*3; i++ {
			b.Append(entry("line"))
			if b.Len() > capacity {
				t.Fatalf("cap %d: Len %d exceeds capacity", capacity, b.Len())
			}
		}
	}
}

func TestBufferAppendEvents(t *testing.T) {
	b := NewBuffer("file:x", 2)
	var changes []Change
	b.OnChange(func(c Change) { changes = append(changes, c) })

	b.Append(entry("a"))
	b.Append(entry("b"))
	b.Append(entry("c")) // evicts "a"

	if len(changes) != 3 {
		t.Fatalf("expected 3 change events, got %d", len(changes))
	}
	if changes[0].Evicted || changes[1].Evicted {
		t.Error("no eviction expected before the buffer is full")
	}
	if !changes[2].Evicted {
		t.Error("third append should evict")
	}
	if changes[2].Len != 2 {
		t.Errorf("Len in event = %d, want 2", changes[2].Len)
	}
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer("file:x", 3)
	b.Append(entry("a"))

	var got Change
	b.OnChange(func(c Change) { got = c })
	b.Clear()

	if b.Len() != 0 {
		t.Errorf("Len = %d, want 0", b.Len())
	}
	if !got.Cleared {
		t.Error("expected Cleared flag on change event")
	}
}

func TestSetCapacityRejectsNonPositive(t *testing.T) {
	b := NewBuffer("file:x", 3)
	b.Append(entry("a"))
	b.Append(entry("b"))

	fired := 0
	b.OnChange(func(Change) { fired++ })

	b.SetCapacity(0)
	b.SetCapacity(-5)

	if b.Capacity() != 3 {
		t.Errorf("Capacity = %d, want 3", b.Capacity())
	}
	if b.Len() != 2 {
		t.Errorf("Len = %d, want 2", b.Len())
	}
	if fired != 0 {
		t.Errorf("expected no events, got %d", fired)
	}
}

func TestSetCapacityShrinkEvicts(t *testing.T) {
	b := NewBuffer("file:x", 5)
	for i := 1; i <= 5; i++ {
		b.Append(entry(fmt.Sprintf("%d", i)))
	}

	var got Change
	b.OnChange(func(c Change) { got = c })
	b.SetCapacity(2)

	want := []string{"4", "5"}
	gotLines := lines(b)
	if len(gotLines) != 2 || gotLines[0] != want[0] || gotLines[1] != want[1] {
		t.Errorf("entries = %v, want %v", gotLines, want)
	}
	if !got.Evicted {
		t.Error("expected Evicted flag")
	}
}

func TestSetCapacityGrowNoEvent(t *testing.T) {
	b := NewBuffer("file:x", 2)
	b.Append(entry("a"))

	fired := 0
	b.OnChange(func(Change) { fired++ })
	b.SetCapacity(10)

	if b.Capacity() != 10 {
		t.Errorf("Capacity = %d, want 10", b.Capacity())
	}
	if fired != 0 {
		t.Errorf("growing should not raise events, got %d", fired)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	b := NewBuffer("file:x", 3)
	b.Append(entry("a"))

	got := b.Entries()
	got[0].Line = "mutated"

	if b.Entries()[0].Line != "a" {
		t.Error("Entries must return a copy")
	}
}
