// Package claims holds pure helpers over JWT payload objects: filling in the
// registered claims, expiry derivation and human-readable claim metadata.
package claims
