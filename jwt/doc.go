// Package jwt resolves signing algorithms to key material and wraps
// github.com/golang-jwt/jwt/v5 for verification and signing of compact tokens.
//
// # Components
//
//   - [Algorithm] and [Slot]: the supported JWS algorithms and the key slot each needs.
//   - [KeyMaterial]: secret or PEM key pair supplied by the caller.
//   - [Verifier]: tri-state signature verification confined to the token's own alg.
//   - [Signer]: produces compact tokens from verbatim header and payload objects.
//
// # What this package must NOT do
//
//   - Panic or return raw primitive errors past Verify/Sign; failures become results.
//   - Inject, drop or rewrite claims or header fields while signing.
//   - Accept a verification algorithm other than the one the token declares.
package jwt
