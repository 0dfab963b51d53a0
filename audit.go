package jwtlab

import (
	"io"

	internalaudit "github.com/MrEthical07/jwtlab/internal/audit"
)

// AuditEvent records one session transition. It never carries key material or the
// token signature.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the async dispatcher.
type AuditSink = internalaudit.Sink

// AuditSinkFunc adapts a function to AuditSink.
type AuditSinkFunc = internalaudit.SinkFunc

// NoOpSink discards audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = internalaudit.ChannelSink

// JSONLinesSink writes one JSON object per event.
type JSONLinesSink = internalaudit.JSONLinesSink

const (
	AuditTokenReplaced     = internalaudit.TypeTokenReplaced
	AuditTokenResigned     = internalaudit.TypeTokenResigned
	AuditKeysChanged       = internalaudit.TypeKeysChanged
	AuditAlgorithmSwitched = internalaudit.TypeAlgorithmSwitched
	AuditEditingStarted    = internalaudit.TypeEditingStarted
	AuditEditingEnded      = internalaudit.TypeEditingEnded
	AuditSignFailed        = internalaudit.TypeSignFailed
	AuditVerifyCompleted   = internalaudit.TypeVerifyCompleted
)

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONLinesSink returns a sink writing JSON lines to w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return internalaudit.NewJSONLinesSink(w)
}
