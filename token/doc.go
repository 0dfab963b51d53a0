// Package token implements the compact JWS serialization used by JWTs: splitting a
// token into its header, payload and signature segments, and encoding claims objects
// back into segments.
//
// # Architecture boundaries
//
// The codec is pure. It holds no state, performs no I/O and never verifies or produces
// signatures; cryptography lives in the jwt package.
//
// # What this package must NOT do
//
//   - Panic on any input. Every failure is a [*DecodeError].
//   - Interpret claims beyond "is a JSON object".
package token
