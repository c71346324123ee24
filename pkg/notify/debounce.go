package notify

import "time"

// debouncer holds the single pending flash task. At most one timer is
// live at a time: schedule always cancels the previous one, and a
// timer that already fired checks its generation before acting. Guarded
// by the owning Model's mutex.
type debouncer struct {
	timer *time.Timer
	gen   uint64
}

// schedule cancels any pending task and arms a new one. fn receives the
// generation it was armed with and must verify it with current before
// acting.
func (d *debouncer) schedule(delay time.Duration, fn func(gen uint64)) {
	d.cancel()
	g := d.gen
	d.timer = time.AfterFunc(delay, func() { fn(g) })
}

// cancel stops the pending task, if any, and invalidates generations
// already handed out.
func (d *debouncer) cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// current reports whether gen is still the armed generation.
func (d *debouncer) current(gen uint64) bool {
	return d.timer != nil && d.gen == gen
}
