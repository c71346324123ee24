package execstream

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/pharos-sh/pharos/pkg/core"
)

func collect(t *testing.T, ch <-chan core.Entry) []core.Entry {
	t.Helper()
	var out []core.Entry
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-deadline:
			t.Fatal("timeout collecting entries")
		}
	}
}

func newProvider() *Provider {
	return New(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func TestStdoutBecomesStreamEntries(t *testing.T) {
	p := newProvider()
	defer p.Close()

	ch, err := p.Subscribe(context.Background(), "exec:hello", "echo hello", "")
	if err != nil {
		t.Fatal(err)
	}

	entries := collect(t, ch)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Kind != core.KindStream || entries[0].Line != "hello" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestStderrBecomesErrorEntries(t *testing.T) {
	p := newProvider()
	defer p.Close()

	ch, err := p.Subscribe(context.Background(), "exec:err", "echo oops 1>&2", "")
	if err != nil {
		t.Fatal(err)
	}

	entries := collect(t, ch)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Kind != core.KindError || entries[0].Line != "oops" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestFailedExitReportsErrorEntry(t *testing.T) {
	p := newProvider()
	defer p.Close()

	ch, err := p.Subscribe(context.Background(), "exec:fail", "exit 3", "")
	if err != nil {
		t.Fatal(err)
	}

	entries := collect(t, ch)
	if len(entries) != 1 || entries[0].Kind != core.KindError {
		t.Fatalf("entries = %+v, want one error entry", entries)
	}
}

func TestSubscribeIsIdempotentPerSource(t *testing.T) {
	p := newProvider()
	defer p.Close()

	a, err := p.Subscribe(context.Background(), "exec:same", "sleep 5", "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Subscribe(context.Background(), "exec:same", "sleep 5", "")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("same source must reuse the existing subscription")
	}
	p.Unsubscribe("exec:same")
}
