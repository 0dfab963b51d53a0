package jwt

import "errors"

var (
	// ErrUnsupportedAlgorithm is returned for algorithms outside the HS/RS/PS/ES set.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrMissingKeyMaterial reports that the key slot needed for an operation is empty.
	// It is a neutral state, not a cryptographic failure.
	ErrMissingKeyMaterial = errors.New("missing key material")
	// ErrKeyAlgorithmMismatch reports key material of the wrong kind for the algorithm family.
	ErrKeyAlgorithmMismatch = errors.New("key material does not match algorithm family")
	// ErrInvalidKey reports PEM input that cannot be imported for the algorithm.
	ErrInvalidKey = errors.New("invalid key")
	// ErrSigningFailed wraps every failure of the signing primitive.
	ErrSigningFailed = errors.New("signing failed")
)

// SignError carries the algorithm and underlying cause of a signing failure.
type SignError struct {
	Algorithm string
	Err       error
}

func (e *SignError) Error() string {
	if e == nil {
		return "<nil>"
	}
	cause := "unknown error"
	if e.Err != nil {
		cause = e.Err.Error()
	}
	if e.Algorithm == "" {
		return "signing failed: " + cause
	}
	return "signing " + e.Algorithm + " failed: " + cause
}

func (e *SignError) Is(target error) bool {
	return target == ErrSigningFailed
}

func (e *SignError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
