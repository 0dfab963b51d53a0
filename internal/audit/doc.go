// Package audit implements async delivery of session audit events.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON lines, func, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured record of a session transition.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; that belongs to the Session.
//
// # What this package must NOT do
//
//   - Carry key material or token signatures in events.
//   - Import jwtlab or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
