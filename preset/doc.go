// Package preset provides the immutable demo configurations offered by the tool: one
// preset per supported algorithm, each with sample claims and demo key material.
//
// The demo keys are public knowledge. They exist so every algorithm can be signed and
// verified out of the box and must never protect anything real.
package preset
