// Package internal groups the building blocks behind jwtlab.Session. It holds no
// code of its own.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - debounce: per-channel trailing debouncers and the pending-work tracker
//   - flows: the pure transition function for session events
//   - metrics: lock-free counters and latency histograms
//
// # What this package must NOT do
//
//   - Export types that appear in the public jwtlab API except through aliases.
//   - Be imported by any package outside the jwtlab module.
package internal
