package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session service
var (
	// Authentication errors. Every cause of a rejected credential collapses into
	// ErrInvalidCredential so callers cannot learn why a token failed.
	ErrInvalidCredential = errors.New("invalid or expired token")
	ErrInvalidLogin      = errors.New("invalid email or password")
	ErrForbidden         = errors.New("forbidden")

	// Availability errors: the persistence collaborator could not answer.
	ErrUnavailable = errors.New("service temporarily unavailable")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
