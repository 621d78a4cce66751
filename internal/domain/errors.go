package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by services and repositories. Controllers map them to
// HTTP status codes with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrEventNotFound    = fmt.Errorf("event %w", ErrNotFound)
	ErrMemberNotFound   = fmt.Errorf("member %w", ErrNotFound)
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyCheckedIn = errors.New("already checked in")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnavailable      = errors.New("service unavailable")
)

// ErrInvalidCredential is the parent of every check-in and login credential
// failure. Callers can tell the specific cause apart with errors.Is, but users
// only ever see one generic message.
var ErrInvalidCredential = errors.New("invalid or expired credential")

var (
	ErrTokenMalformed  = fmt.Errorf("%w: malformed token", ErrInvalidCredential)
	ErrTokenSignature  = fmt.Errorf("%w: signature mismatch", ErrInvalidCredential)
	ErrTokenExpired    = fmt.Errorf("%w: token expired", ErrInvalidCredential)
	ErrTokenWrongEvent = fmt.Errorf("%w: token issued for another event", ErrInvalidCredential)
)

// ValidationError carries a message that is safe to show to the client.
// It matches ErrInvalidInput under errors.Is.
type ValidationError struct {
	Message string
}

// NewValidationError returns a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }
