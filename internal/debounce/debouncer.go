package debounce

import (
	"sync"
	"time"
)

// Debouncer delays a callback until no newer Trigger arrived within the window.
// A zero window runs the callback inline on the triggering goroutine.
type Debouncer struct {
	window  time.Duration
	tracker *Tracker

	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64
	closed bool
}

// New returns a Debouncer. tracker may be nil.
func New(window time.Duration, tracker *Tracker) *Debouncer {
	if window < 0 {
		window = 0
	}
	if tracker == nil {
		tracker = &Tracker{}
	}
	return &Debouncer{window: window, tracker: tracker}
}

// Trigger schedules fn, cancelling any callback still waiting for its window.
// It reports whether a pending callback was superseded.
func (d *Debouncer) Trigger(fn func()) (superseded bool) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.seq++
	seq := d.seq
	if d.timer != nil {
		superseded = true
		if d.timer.Stop() {
			d.tracker.Done()
		}
		d.timer = nil
	}

	if d.window == 0 {
		d.tracker.Add(1)
		d.mu.Unlock()
		defer d.tracker.Done()
		fn()
		return superseded
	}

	d.tracker.Add(1)
	d.timer = time.AfterFunc(d.window, func() {
		defer d.tracker.Done()

		d.mu.Lock()
		stale := seq != d.seq || d.closed
		if !stale {
			d.timer = nil
		}
		d.mu.Unlock()

		if !stale {
			fn()
		}
	})
	d.mu.Unlock()
	return superseded
}

// Cancel drops the callback still waiting for its window. Later triggers run
// as usual. It reports whether a callback was dropped.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Stop cancels the pending callback and rejects further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.cancelLocked()
}

func (d *Debouncer) cancelLocked() bool {
	// A timer that already fired sees the new seq and skips fn.
	d.seq++
	if d.timer == nil {
		return false
	}
	if d.timer.Stop() {
		d.tracker.Done()
	}
	d.timer = nil
	return true
}
