package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event types emitted by a Session.
const (
	TypeTokenReplaced     = "token.replaced"
	TypeTokenResigned     = "token.resigned"
	TypeKeysChanged       = "keys.changed"
	TypeAlgorithmSwitched = "algorithm.switched"
	TypeEditingStarted    = "editing.started"
	TypeEditingEnded      = "editing.ended"
	TypeSignFailed        = "sign.failed"
	TypeVerifyCompleted   = "verify.completed"
)

// Event records one observable session transition.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	// Sequence is assigned by the Dispatcher in delivery order.
	Sequence      uint64            `json:"sequence"`
	EventType     string            `json:"event_type"`
	SessionID     string            `json:"session_id,omitempty"`
	Algorithm     string            `json:"algorithm,omitempty"`
	TokenRevision uint64            `json:"token_revision"`
	Success       bool              `json:"success"`
	Error         string            `json:"error,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event)

func (f SinkFunc) Emit(ctx context.Context, event Event) {
	if f != nil {
		f(ctx, event)
	}
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONLinesSink writes one JSON object per line.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	if w == nil {
		return &JSONLinesSink{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLinesSink{enc: enc}
}

func (s *JSONLinesSink) Emit(_ context.Context, event Event) {
	if s == nil || s.enc == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(event)
}
