package jwtlab

import "errors"

var (
	// ErrSessionClosed is returned by Session methods called after Close.
	ErrSessionClosed = errors.New("session closed")
	// ErrUnknownPreset is returned by LoadPreset for names outside the preset table.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrBuilderUsed is returned when Build is called twice on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrUnsupportedAlgorithm is returned by SwitchAlgorithm for names outside HS/RS/PS/ES.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
)
