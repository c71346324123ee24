package model

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pharos-sh/pharos/pkg/activity"
	"github.com/pharos-sh/pharos/pkg/config"
	"github.com/pharos-sh/pharos/pkg/core"
	"github.com/pharos-sh/pharos/pkg/logbuf"
	"github.com/pharos-sh/pharos/pkg/notify"
	"github.com/pharos-sh/pharos/pkg/prefs"
	"github.com/pharos-sh/pharos/pkg/transport/uds"
)

// Pane identifies which TUI pane is focused. The log pane doubles as
// the display surface: while it is focused the active source counts as
// being looked at.
type Pane int

const (
	PaneSources Pane = iota
	PaneLogs
)

// Mode identifies the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
)

// flashPulse is how long the flash cue stays lit on screen.
const flashPulse = 450 * time.Millisecond

// App is the root Bubble Tea model. It mirrors the daemon's buffers
// into a local registry and derives the attention indicator from it.
type App struct {
	// Connection
	client     *uds.Client
	socketPath string
	connected  bool

	// Client-side log state
	registry *logbuf.Registry
	tracker  *activity.Tracker
	model    *notify.Model
	sync     *config.Sync

	// Event bridge: client pushes and model transitions arrive here
	// and are drained one at a time by waitEvent.
	events chan tea.Msg

	// Sources
	sources     []string
	selectedIdx int
	backfilled  map[string]bool
	restored    bool // saved active source applied once

	// UI
	activePane Pane
	mode       Mode
	filter     textinput.Model
	pulse      bool
	width      int
	height     int

	prefsPath string
	statusMsg string
}

// New creates a new TUI app model.
func New(socketPath string) App {
	fi := textinput.New()
	fi.Placeholder = "filter..."
	fi.CharLimit = 64

	registry := logbuf.NewRegistry(config.DefaultCapacity)
	tracker := activity.NewTracker()
	model := notify.New(registry, tracker, config.DefaultCapacity, true)
	model.Attach()

	return App{
		socketPath: socketPath,
		registry:   registry,
		tracker:    tracker,
		model:      model,
		sync:       &config.Sync{Registry: registry, Model: model},
		events:     make(chan tea.Msg, 256),
		backfilled: make(map[string]bool),
		activePane: PaneSources,
		mode:       ModeNormal,
		filter:     fi,
	}
}

// Init connects to the daemon and starts draining the event bridge.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		connectCmd(a.socketPath),
		waitEvent(a.events),
		tea.SetWindowTitle("Pharos"),
	)
}

// connectedMsg indicates successful daemon connection.
type connectedMsg struct{ client *uds.Client }

// entryMsg carries one log entry pushed by the daemon.
type entryMsg core.Entry

// sourceAddedMsg announces a source the daemon saw for the first time.
type sourceAddedMsg string

// sourcesMsg carries the daemon's source listing.
type sourcesMsg []uds.SourceInfo

// configMsg carries a daemon configuration push from the event channel.
type configMsg uds.ConfigPayload

// configFetchedMsg carries the GetConfig response. Distinct from
// configMsg so response handling never re-arms the event wait: only
// one reader may drain the event channel at a time, or pushed entries
// can be delivered out of arrival order.
type configFetchedMsg uds.ConfigPayload

// stateMsg carries a highlight state transition.
type stateMsg notify.State

// tailMsg carries replayed entries for one source.
type tailMsg struct {
	source  string
	entries []core.Entry
}

// pulseEndMsg ends the on-screen flash cue.
type pulseEndMsg struct{}

// errorMsg carries an error to display.
type errorMsg struct{ err error }

func connectCmd(socketPath string) tea.Cmd {
	return func() tea.Msg {
		client, err := uds.Dial(socketPath)
		if err != nil {
			return errorMsg{err}
		}
		return connectedMsg{client}
	}
}

func waitEvent(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func fetchSourcesCmd(client *uds.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		resp, err := client.Request(ctx, uds.MethodListSources, nil)
		if err != nil {
			return errorMsg{err}
		}
		var infos []uds.SourceInfo
		if err := resp.UnmarshalData(&infos); err != nil {
			return errorMsg{err}
		}
		return sourcesMsg(infos)
	}
}

func fetchConfigCmd(client *uds.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		resp, err := client.Request(ctx, uds.MethodGetConfig, nil)
		if err != nil {
			return errorMsg{err}
		}
		var payload uds.ConfigPayload
		if err := resp.UnmarshalData(&payload); err != nil {
			return errorMsg{err}
		}
		return configFetchedMsg(payload)
	}
}

func tailCmd(client *uds.Client, source string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		resp, err := client.Request(ctx, uds.MethodTail, uds.TailRequest{Source: source})
		if err != nil {
			return errorMsg{err}
		}
		var payload uds.TailResponse
		if err := resp.UnmarshalData(&payload); err != nil {
			return errorMsg{err}
		}
		return tailMsg{source: source, entries: payload.Entries}
	}
}

func pulseCmd() tea.Cmd {
	return tea.Tick(flashPulse, func(time.Time) tea.Msg {
		return pulseEndMsg{}
	})
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case connectedMsg:
		a.client = msg.client
		a.connected = true
		a.statusMsg = "connected"

		// Both handlers run off the Update loop; they hand their
		// payloads to the event channel and never touch the model
		// directly. A full channel drops the message rather than
		// blocking the client's read goroutine.
		events := a.events
		a.client.OnEvent(func(m uds.Message) {
			pushed, ok := translateEvent(m)
			if !ok {
				return
			}
			select {
			case events <- pushed:
			default:
			}
		})
		a.model.OnChange(func(s notify.State) {
			select {
			case events <- stateMsg(s):
			default:
			}
		})

		return a, tea.Batch(fetchConfigCmd(a.client), fetchSourcesCmd(a.client))

	case entryMsg:
		a.registry.Buffer(msg.Source).Append(core.Entry(msg))
		a.refreshSources()
		return a, waitEvent(a.events)

	case sourceAddedMsg:
		a.registry.Buffer(string(msg))
		a.refreshSources()
		return a, waitEvent(a.events)

	case configMsg:
		a.sync.Apply(msg.Capacity, msg.Highlighting)
		return a, waitEvent(a.events)

	case configFetchedMsg:
		a.sync.Apply(msg.Capacity, msg.Highlighting)
		return a, nil

	case stateMsg:
		if notify.State(msg) == notify.StateFlash {
			a.pulse = true
			return a, tea.Batch(waitEvent(a.events), pulseCmd())
		}
		a.pulse = false
		return a, waitEvent(a.events)

	case pulseEndMsg:
		a.pulse = false
		return a, nil

	case sourcesMsg:
		for _, info := range msg {
			a.registry.Buffer(info.ID)
		}
		a.refreshSources()
		return a, a.restoreActive()

	case tailMsg:
		// The replay is the daemon's full buffered history for the
		// source, including anything already streamed live since
		// connect; it replaces, never extends, the local buffer.
		buf := a.registry.Buffer(msg.source)
		buf.Clear()
		for _, e := range msg.entries {
			buf.Append(e)
		}
		a.backfilled[msg.source] = true
		if msg.source == a.model.Active() && a.activePane == PaneLogs {
			// Replay is history the user is already looking at.
			a.tracker.MarkViewed(msg.source)
		}
		return a, nil

	case errorMsg:
		a.statusMsg = "error: " + msg.err.Error()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

// translateEvent maps a server push onto a TUI message.
func translateEvent(m uds.Message) (tea.Msg, bool) {
	switch m.Method {
	case uds.EventLogEntry:
		var e core.Entry
		if err := m.UnmarshalData(&e); err != nil {
			return nil, false
		}
		return entryMsg(e), true
	case uds.EventSourceAdded:
		var info uds.SourceInfo
		if err := m.UnmarshalData(&info); err != nil {
			return nil, false
		}
		return sourceAddedMsg(info.ID), true
	case uds.EventConfigChanged:
		var payload uds.ConfigPayload
		if err := m.UnmarshalData(&payload); err != nil {
			return nil, false
		}
		return configMsg(payload), true
	}
	return nil, false
}

func (a *App) refreshSources() {
	sources := make([]string, 0, a.registry.Len())
	for source := range a.registry.Sources() {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	a.sources = sources
	if a.selectedIdx >= len(a.sources) {
		a.selectedIdx = max(0, len(a.sources)-1)
	}
}

// restoreActive re-selects the source saved in preferences, once.
func (a *App) restoreActive() tea.Cmd {
	if a.restored {
		return nil
	}
	a.restored = true

	saved := prefs.Load(a.prefsPath).ActiveSource
	if saved == "" || !a.registry.Has(saved) {
		return nil
	}
	for i, s := range a.filteredSources() {
		if s == saved {
			a.selectedIdx = i
			break
		}
	}
	a.model.SetActive(saved)
	return nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.mode == ModeFilter {
		switch msg.String() {
		case "esc":
			a.mode = ModeNormal
			a.filter.SetValue("")
			a.filter.Blur()
			a.refreshSources()
			return a, nil
		case "enter":
			a.mode = ModeNormal
			a.filter.Blur()
			return a, nil
		default:
			var cmd tea.Cmd
			a.filter, cmd = a.filter.Update(msg)
			if a.selectedIdx >= len(a.filteredSources()) {
				a.selectedIdx = max(0, len(a.filteredSources())-1)
			}
			return a, cmd
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		a.savePrefs()
		return a, tea.Quit

	case "j", "down":
		if a.selectedIdx < len(a.filteredSources())-1 {
			a.selectedIdx++
			if a.activePane == PaneLogs {
				return a.openSelected()
			}
		}
	case "k", "up":
		if a.selectedIdx > 0 {
			a.selectedIdx--
			if a.activePane == PaneLogs {
				return a.openSelected()
			}
		}

	case "enter", "l":
		return a.openSelected()

	case "tab":
		if a.activePane == PaneLogs {
			a.activePane = PaneSources
			a.model.SurfaceClosed()
			return a, nil
		}
		return a.openSelected()

	case "esc", "h":
		if a.activePane == PaneLogs {
			a.activePane = PaneSources
			a.model.SurfaceClosed()
		}

	case "/":
		a.mode = ModeFilter
		a.filter.Focus()
		return a, textinput.Blink

	case "c":
		if active := a.model.Active(); active != "" && a.registry.Has(active) {
			a.registry.Buffer(active).Clear()
			a.statusMsg = "cleared " + active
		}
	}

	return a, nil
}

// openSelected makes the selection the active source and opens the log
// pane over it. Opening acknowledges the source and suppresses
// highlighting while the user is looking.
func (a App) openSelected() (tea.Model, tea.Cmd) {
	sources := a.filteredSources()
	if len(sources) == 0 || a.selectedIdx >= len(sources) {
		return a, nil
	}
	source := sources[a.selectedIdx]

	a.model.SetActive(source)
	a.activePane = PaneLogs
	a.model.SurfaceOpened()
	a.savePrefs()

	if a.client != nil && !a.backfilled[source] {
		return a, tailCmd(a.client, source)
	}
	return a, nil
}

func (a App) savePrefs() {
	if active := a.model.Active(); active != "" {
		// Best effort; prefs must never get in the user's way.
		_ = prefs.Save(a.prefsPath, prefs.Prefs{ActiveSource: active})
	}
}

func (a App) filteredSources() []string {
	q := strings.ToLower(a.filter.Value())
	if q == "" {
		return a.sources
	}
	var filtered []string
	for _, s := range a.sources {
		if strings.Contains(strings.ToLower(s), q) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
