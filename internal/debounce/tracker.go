package debounce

import (
	"context"
	"sync"
)

// Tracker counts outstanding work items (pending timers, in-flight effects).
type Tracker struct {
	mu      sync.Mutex
	pending int
	waiters []chan struct{}
}

// Add adjusts the pending count by delta. Waiters are released when it reaches zero.
func (t *Tracker) Add(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending += delta
	if t.pending < 0 {
		t.pending = 0
	}
	if t.pending == 0 {
		for _, w := range t.waiters {
			close(w)
		}
		t.waiters = nil
	}
}

// Done is Add(-1).
func (t *Tracker) Done() {
	t.Add(-1)
}

// Pending returns the current count.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Wait blocks until the pending count is zero or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	t.mu.Lock()
	if t.pending == 0 {
		t.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	t.waiters = append(t.waiters, ch)
	t.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
