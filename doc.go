// Package jwtlab provides an interactive JWT processing engine: decode a compact
// token, verify it, edit its claims and re-sign it with an algorithm-specific key,
// keeping token, keys and decoded view consistent without re-signing loops.
//
// A [Session] is built through [Builder]:
//
//	s, err := jwtlab.New().WithDebounceWindow(200 * time.Millisecond).Build()
//	if err != nil { ... }
//	defer s.Close()
//
//	_ = s.SetToken(pasted)
//	_ = s.SetSecret("your-256-bit-secret")
//	_ = s.Settle(ctx)
//	snap := s.Snapshot() // snap.Signature is valid, invalid or unverified
//
// # Architecture boundaries
//
// jwtlab is the public surface. Token encoding lives in token/, algorithms, keys,
// verification and signing in jwt/, claim helpers in claims/ and demo data in
// preset/. The transition function lives in internal/flows and is pure; Session
// serializes it, debounces inputs per channel and runs cryptography off the lock.
//
// # What this package must NOT do
//
//   - Persist keys or tokens, or make network calls.
//   - Log, audit or export key material or token signatures.
//   - Return decode, verify or sign failures as errors; they are session state.
package jwtlab
