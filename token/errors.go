package token

import "errors"

var (
	// ErrInvalid is the single outcome of any failed verification. Callers must not
	// try to tell a bad signature apart from a malformed credential.
	ErrInvalid = errors.New("invalid credential")

	// ErrInvalidSubject is returned by Issue when the subject identifier is blank.
	ErrInvalidSubject = errors.New("subject identifier is required")

	// ErrInvalidTTL is returned by Issue when the lifetime is shorter than one second.
	ErrInvalidTTL = errors.New("credential lifetime must be at least one second")
)
