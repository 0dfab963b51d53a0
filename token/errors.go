package token

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedToken reports a token that is not three period-separated segments.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidBase64 reports a header or payload segment that is not base64url.
	ErrInvalidBase64 = errors.New("invalid base64url segment")
	// ErrInvalidJSON reports a header or payload segment that is not a JSON object.
	ErrInvalidJSON = errors.New("invalid json segment")
)

// Kind classifies decode failures.
type Kind uint8

const (
	KindMalformed Kind = iota + 1
	KindInvalidBase64
	KindInvalidJSON
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "MalformedToken"
	case KindInvalidBase64:
		return "InvalidBase64"
	case KindInvalidJSON:
		return "InvalidJson"
	default:
		return "Unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidBase64:
		return ErrInvalidBase64
	case KindInvalidJSON:
		return ErrInvalidJSON
	default:
		return ErrMalformedToken
	}
}

// DecodeError is returned by [Decode]. Segment names the part that failed
// ("header", "payload") and is empty for structural failures.
type DecodeError struct {
	Kind    Kind
	Segment string
	Err     error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Kind.sentinel().Error()
	if e.Segment != "" {
		msg = e.Segment + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is matches the sentinel for the error kind.
func (e *DecodeError) Is(target error) bool {
	return e != nil && target == e.Kind.sentinel()
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
