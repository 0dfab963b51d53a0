package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher delivers session events to a sink on its own goroutine, in the
// order they were queued. Every queued event is stamped with the next Sequence.
//
// A verify.completed event still waiting in the queue is replaced by a newer one
// for the same session and token revision, so a burst of key edits leaves one
// verification outcome per token. A nil *Dispatcher is valid and drops
// everything silently.
type Dispatcher struct {
	cfg  Config
	sink Sink

	mu     sync.Mutex
	queue  []Event
	seq    uint64
	closed bool
	// space is closed and replaced whenever the worker takes an event.
	space chan struct{}

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	delivered atomic.Uint64
	dropped   atomic.Uint64
	coalesced atomic.Uint64
}

// NewDispatcher starts the delivery goroutine. It returns nil when cfg is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:   cfg,
		sink:  sink,
		queue: make([]Event, 0, cfg.BufferSize),
		space: make(chan struct{}),
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for {
		event, ok := d.next()
		if !ok {
			return
		}
		d.sink.Emit(context.Background(), event)
		d.delivered.Add(1)
	}
}

// next blocks until an event is queued. It reports false once the dispatcher is
// closed and the queue is empty.
func (d *Dispatcher) next() (Event, bool) {
	for {
		d.mu.Lock()
		if len(d.queue) > 0 {
			event := d.queue[0]
			d.queue[0] = Event{}
			d.queue = d.queue[1:]
			close(d.space)
			d.space = make(chan struct{})
			d.mu.Unlock()
			return event, true
		}
		closed := d.closed
		d.mu.Unlock()

		if closed {
			return Event{}, false
		}
		<-d.wake
	}
}

// Emit queues event. With DropIfFull a full queue counts a drop instead of
// blocking; otherwise Emit waits for room until ctx is done.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return
		}
		if d.coalesceLocked(event) || len(d.queue) < d.cfg.BufferSize {
			d.seq++
			event.Sequence = d.seq
			d.queue = append(d.queue, event)
			d.mu.Unlock()
			d.notify()
			return
		}
		if d.cfg.DropIfFull {
			d.mu.Unlock()
			d.dropped.Add(1)
			return
		}
		space := d.space
		d.mu.Unlock()

		select {
		case <-space:
		case <-ctx.Done():
			d.dropped.Add(1)
			return
		case <-d.stop:
			return
		}
	}
}

// coalesceLocked removes a queued verification of the same token that event
// supersedes. It reports whether a slot was freed.
func (d *Dispatcher) coalesceLocked(event Event) bool {
	if event.EventType != TypeVerifyCompleted {
		return false
	}
	for i := len(d.queue) - 1; i >= 0; i-- {
		q := d.queue[i]
		if q.EventType != TypeVerifyCompleted || q.SessionID != event.SessionID || q.TokenRevision != event.TokenRevision {
			continue
		}
		d.queue = append(d.queue[:i], d.queue[i+1:]...)
		d.coalesced.Add(1)
		return true
	}
	return false
}

func (d *Dispatcher) notify() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Close rejects further events, delivers what is queued and stops the worker.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		close(d.stop)
		d.notify()
		<-d.done
	})
}

// Dropped returns the number of events lost to backpressure.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Delivered returns the number of events handed to the sink.
func (d *Dispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}

// Coalesced returns the number of queued verifications replaced by a newer one.
func (d *Dispatcher) Coalesced() uint64 {
	if d == nil {
		return 0
	}
	return d.coalesced.Load()
}
