// Package flows contains the pure transition function behind a jwtlab Session.
//
// [Apply] takes the full prior [State] and one [Event] and returns the full next
// state, the asynchronous work to run ([VerifyEffect], [SignEffect]) and a set of
// [Signal] flags describing what happened. Effect results re-enter as
// [VerifyCompleted] and [SignCompleted] events tagged with the generation they were
// issued against; results from superseded generations are dropped.
//
// # Ordering
//
// Claims editing wins over key changes. While editing, a key change re-signs the
// current buffers through the claims channel; a claims edit supersedes key and
// algorithm signing still in flight. A key change re-signs only when the key
// signature differs from the one recorded after the last successful sign.
//
// # Architecture boundaries
//
// Apply never blocks, never performs I/O and never runs cryptography itself. The
// Session owns locking, debouncing, effect execution, metrics and audit.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import jwtlab (to avoid import cycles).
//   - Mutate maps reachable from the State it was given.
package flows
