// Package notify drives the attention indicator. It watches buffer
// activity through the registry, tracks acknowledgment per source, and
// produces a three-state highlight signal: idle, a transient flash, or
// a steady highlight that persists until the source is viewed.
package notify

import (
	"sync"
	"time"

	"github.com/pharos-sh/pharos/pkg/activity"
	"github.com/pharos-sh/pharos/pkg/event"
	"github.com/pharos-sh/pharos/pkg/logbuf"
)

// State is the indicator highlight state.
type State int

const (
	// StateIdle shows no attention cue.
	StateIdle State = iota
	// StateFlash is a transient pulse; the rendering layer clears it.
	StateFlash
	// StateSteady is a persistent cue until the source is acknowledged.
	StateSteady
)

func (s State) String() string {
	switch s {
	case StateFlash:
		return "flash"
	case StateSteady:
		return "steady"
	default:
		return "idle"
	}
}

// QuietPeriod is the delay used to coalesce rapid activity into a
// single flash at the end of a burst.
const QuietPeriod = 100 * time.Millisecond

type trigger int

const (
	trigActivity trigger = iota
	trigSwitch
	trigConfig
)

// Model evaluates buffer and acknowledgment state into a highlight
// state. All fields are guarded by mu because the debounce timer fires
// on a runtime goroutine; every mutation runs serialized.
type Model struct {
	mu      sync.Mutex
	reg     *logbuf.Registry
	tracker *activity.Tracker

	active       string // "" = no active source
	highlighting bool   // effective value
	configuredHL bool   // configured value, restored on surface close
	surfaceOpen  bool
	capacity     int
	state        State

	deb debouncer

	// attached records buffers that already have a change listener.
	// Kept separate from the tracker's viewed flags so acknowledging a
	// source can never suppress listener attachment.
	attached map[string]struct{}
	cancels  []func()

	changed event.Feed[State]
}

// New creates a model over the given registry and tracker. Call Attach
// to start consuming registry events.
func New(reg *logbuf.Registry, tracker *activity.Tracker, capacity int, highlighting bool) *Model {
	if capacity <= 0 {
		capacity = 1
	}
	return &Model{
		reg:          reg,
		tracker:      tracker,
		capacity:     capacity,
		highlighting: highlighting,
		configuredHL: highlighting,
		attached:     make(map[string]struct{}),
	}
}

// Attach subscribes to registry additions and to every buffer already
// known, exactly once per source.
func (m *Model) Attach() {
	cancel := m.reg.OnAdded(func(source string) {
		m.attachBuffer(source)
	})

	m.mu.Lock()
	m.cancels = append(m.cancels, cancel)
	m.mu.Unlock()

	for source := range m.reg.Sources() {
		m.attachBuffer(source)
	}
}

// Close detaches all listeners and cancels any pending flash.
func (m *Model) Close() {
	m.mu.Lock()
	cancels := m.cancels
	m.cancels = nil
	m.deb.cancel()
	m.mu.Unlock()

	for _, c := range cancels {
		c()
	}
}

func (m *Model) attachBuffer(source string) {
	m.mu.Lock()
	if _, ok := m.attached[source]; ok {
		m.mu.Unlock()
		return
	}
	m.attached[source] = struct{}{}
	m.mu.Unlock()

	cancel := m.reg.Buffer(source).OnChange(func(c logbuf.Change) {
		m.bufferChanged(c)
	})

	m.mu.Lock()
	m.cancels = append(m.cancels, cancel)
	m.mu.Unlock()
}

// OnChange registers a listener for highlight state transitions.
func (m *Model) OnChange(fn func(State)) (unsubscribe func()) {
	return m.changed.Subscribe(fn)
}

// State returns the current highlight state.
func (m *Model) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Active returns the active source, or "" when none is set.
func (m *Model) Active() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// LogCount returns min(active buffer length, capacity), or 0 when no
// source is active or its buffer does not exist.
func (m *Model) LogCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logCountLocked()
}

// SetActive switches the active source ("" clears it) and re-evaluates.
func (m *Model) SetActive(source string) {
	m.mu.Lock()
	m.active = source
	st, changed := m.reevaluate(trigSwitch)
	m.mu.Unlock()

	if changed {
		m.changed.Publish(st)
	}
}

// SetCapacity mirrors the configured buffer capacity. Values ≤ 0 are
// rejected without mutating state.
func (m *Model) SetCapacity(n int) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	m.capacity = n
	st, changed := m.reevaluate(trigConfig)
	m.mu.Unlock()

	if changed {
		m.changed.Publish(st)
	}
}

// SetHighlighting updates the configured highlighting flag. While a
// display surface is open the effective value stays suppressed; the new
// configuration takes effect on surface close.
func (m *Model) SetHighlighting(on bool) {
	m.mu.Lock()
	m.configuredHL = on
	var st State
	changed := false
	if !m.surfaceOpen {
		m.highlighting = on
		st, changed = m.reevaluate(trigConfig)
	}
	m.mu.Unlock()

	if changed {
		m.changed.Publish(st)
	}
}

// Highlighting returns the effective highlighting flag.
func (m *Model) Highlighting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.highlighting
}

// SurfaceOpened tells the model the log display surface is visible. The
// active source is acknowledged and highlighting is suppressed while
// the user is already looking. Safe to call again after an active
// source switch while the surface stays open.
func (m *Model) SurfaceOpened() {
	m.mu.Lock()
	m.surfaceOpen = true
	if m.active != "" {
		m.tracker.MarkViewed(m.active)
	}
	m.highlighting = false
	st, changed := m.reevaluate(trigConfig)
	m.mu.Unlock()

	if changed {
		m.changed.Publish(st)
	}
}

// SurfaceClosed restores the configured highlighting value.
func (m *Model) SurfaceClosed() {
	m.mu.Lock()
	m.surfaceOpen = false
	m.highlighting = m.configuredHL
	st, changed := m.reevaluate(trigConfig)
	m.mu.Unlock()

	if changed {
		m.changed.Publish(st)
	}
}

func (m *Model) bufferChanged(c logbuf.Change) {
	m.mu.Lock()
	m.tracker.MarkDirty(c.Source)

	if c.Source != m.active {
		// Only the active source's activity drives the indicator; the
		// dirty flag above is enough for a future switch.
		m.mu.Unlock()
		return
	}

	st, changed := m.reevaluate(trigActivity)
	m.mu.Unlock()

	if changed {
		m.changed.Publish(st)
	}
}

// logCountLocked requires m.mu held.
func (m *Model) logCountLocked() int {
	if m.active == "" || !m.reg.Has(m.active) {
		return 0
	}
	n := m.reg.Buffer(m.active).Len()
	if n > m.capacity {
		return m.capacity
	}
	return n
}

// reevaluate runs the highlight algorithm. Requires m.mu held; returns
// the state and whether it changed so the caller can publish outside
// the lock.
func (m *Model) reevaluate(trig trigger) (State, bool) {
	prev := m.state
	count := m.logCountLocked()

	switch {
	case !m.highlighting || count == 0:
		m.deb.cancel()
		m.state = StateIdle

	case trig == trigSwitch:
		m.deb.cancel()
		if m.tracker.Viewed(m.active) {
			m.state = StateIdle
		} else {
			m.state = StateSteady
		}

	case trig == trigActivity:
		if m.deb.timer != nil || m.state == StateFlash || m.state == StateSteady {
			// Coalesce the burst: clear now, restart the quiet period,
			// flash once after it. A pending task counts as being
			// inside a burst even though the state already reads idle.
			m.state = StateIdle
			m.deb.schedule(QuietPeriod, m.flashAfterQuiet)
		} else {
			m.state = StateFlash
		}
	}

	return m.state, m.state != prev
}

func (m *Model) flashAfterQuiet(gen uint64) {
	m.mu.Lock()
	if !m.deb.current(gen) {
		m.mu.Unlock()
		return
	}
	m.deb.timer = nil
	if !m.highlighting || m.logCountLocked() == 0 {
		m.mu.Unlock()
		return
	}
	prev := m.state
	m.state = StateFlash
	m.mu.Unlock()

	if prev != StateFlash {
		m.changed.Publish(StateFlash)
	}
}
