package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a reference to a chat, message or user that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSender reports a user acting on a chat they do not participate in.
	ErrInvalidSender = errors.New("sender is not a participant")
	// ErrInvalidCredentials reports a failed identity lookup.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrDuplicateIdentity reports registration with an email already in use.
	ErrDuplicateIdentity = errors.New("email already registered")
	// ErrValidation is the kind matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotAuthenticated reports a session operation with no signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFoundf wraps ErrNotFound with a description of the missing entity.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}
