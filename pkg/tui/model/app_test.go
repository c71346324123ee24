package model

import (
	"path/filepath"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pharos-sh/pharos/pkg/core"
)

func newTestApp(t *testing.T) App {
	t.Helper()
	a := New(filepath.Join(t.TempDir(), "pharosd.sock"))
	a.prefsPath = filepath.Join(t.TempDir(), "prefs.toml")
	a.width = 80
	a.height = 24
	return a
}

func update(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, _ := a.Update(msg)
	return m.(App)
}

func key(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEntryRoutingBuffersAndMarksDirty(t *testing.T) {
	a := newTestApp(t)

	a = update(t, a, entryMsg(core.NewEntry("file:api", core.KindStream, "hello")))

	if !a.registry.Has("file:api") {
		t.Fatal("entry did not create a buffer")
	}
	if got := a.registry.Buffer("file:api").Len(); got != 1 {
		t.Errorf("buffer len = %d, want 1", got)
	}
	if a.tracker.Viewed("file:api") {
		t.Error("unacknowledged activity must mark the source dirty")
	}
	if len(a.sources) != 1 || a.sources[0] != "file:api" {
		t.Errorf("sources = %v", a.sources)
	}
}

func TestOpenSelectedAcknowledgesSource(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, entryMsg(core.NewEntry("file:api", core.KindStream, "hello")))

	a = update(t, a, key("enter"))

	if got := a.model.Active(); got != "file:api" {
		t.Fatalf("active = %q, want file:api", got)
	}
	if a.activePane != PaneLogs {
		t.Error("log pane should be focused")
	}
	if !a.tracker.Viewed("file:api") {
		t.Error("opening the log pane must acknowledge the source")
	}
	if a.model.Highlighting() {
		t.Error("highlighting must be suppressed while the pane is open")
	}
}

func TestCloseRestoresHighlighting(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, entryMsg(core.NewEntry("file:api", core.KindStream, "hello")))
	a = update(t, a, key("enter"))

	a = update(t, a, key("h"))

	if a.activePane != PaneSources {
		t.Error("source pane should be focused")
	}
	if !a.model.Highlighting() {
		t.Error("closing the pane must restore highlighting")
	}
}

func TestSwitchWhileOpenFollowsSelection(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, entryMsg(core.NewEntry("file:a", core.KindStream, "x")))
	a = update(t, a, entryMsg(core.NewEntry("file:b", core.KindStream, "y")))
	a = update(t, a, key("enter")) // opens file:a

	a = update(t, a, key("j")) // moves to and opens file:b

	if got := a.model.Active(); got != "file:b" {
		t.Errorf("active = %q, want file:b", got)
	}
	if !a.tracker.Viewed("file:b") {
		t.Error("switching while open must acknowledge the new source")
	}
}

func TestConfigMsgAppliesCapacity(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, configMsg{Capacity: 2, Highlighting: true})

	for i := 0; i < 5; i++ {
		a = update(t, a, entryMsg(core.NewEntry("file:api", core.KindStream, "x")))
	}

	if got := a.registry.Buffer("file:api").Len(); got != 2 {
		t.Errorf("buffer len = %d, want 2", got)
	}
}

func TestFetchedConfigDoesNotRearmEventWait(t *testing.T) {
	a := newTestApp(t)

	// Only one reader may drain the event channel; the GetConfig
	// response did not come from it and must not add a second.
	_, cmd := a.Update(configFetchedMsg{Capacity: 2, Highlighting: true})
	if cmd != nil {
		t.Error("config response must not re-arm the event wait")
	}

	if _, cmd = a.Update(configMsg{Capacity: 2, Highlighting: true}); cmd == nil {
		t.Error("config push must re-arm the event wait")
	}
}

func TestTailReplacesLiveBufferedEntries(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, entryMsg(core.NewEntry("file:api", core.KindStream, "live")))

	replay := []core.Entry{
		core.NewEntry("file:api", core.KindStream, "old"),
		core.NewEntry("file:api", core.KindStream, "live"),
	}
	a = update(t, a, tailMsg{source: "file:api", entries: replay})

	entries := a.registry.Buffer("file:api").Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (live line duplicated by replay?)", len(entries))
	}
	if entries[0].Line != "old" || entries[1].Line != "live" {
		t.Errorf("order = %q,%q, want old,live", entries[0].Line, entries[1].Line)
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	got := truncate("wörld wïde lögs", 8)
	if !utf8.ValidString(got) {
		t.Errorf("truncate split a rune: %q", got)
	}
	if w := lipgloss.Width(got); w > 8 {
		t.Errorf("width = %d, want at most 8", w)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q, want unchanged", got)
	}
}

func TestFilterNarrowsSources(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, entryMsg(core.NewEntry("file:api", core.KindStream, "x")))
	a = update(t, a, entryMsg(core.NewEntry("journal:nginx", core.KindStream, "y")))

	a.filter.SetValue("journal")

	got := a.filteredSources()
	if len(got) != 1 || got[0] != "journal:nginx" {
		t.Errorf("filtered = %v, want [journal:nginx]", got)
	}
}

func TestClearEmptiesActiveBuffer(t *testing.T) {
	a := newTestApp(t)
	a = update(t, a, entryMsg(core.NewEntry("file:api", core.KindStream, "x")))
	a = update(t, a, key("enter"))

	a = update(t, a, key("c"))

	if got := a.registry.Buffer("file:api").Len(); got != 0 {
		t.Errorf("buffer len = %d, want 0", got)
	}
}
