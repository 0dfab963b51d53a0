// Package debounce implements per-channel trailing-edge debouncing and a pending-work
// tracker used to wait for a session to become idle.
//
// # What this package must NOT do
//
//   - Run a superseded callback.
//   - Hold its lock while invoking a callback.
package debounce
