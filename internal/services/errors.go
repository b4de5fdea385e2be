package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrCabinNotFound     = errors.New("cabin not found")
	ErrGuestNotFound     = errors.New("guest not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrNotAuthorized     = errors.New("not authorized to access this booking")
	ErrBookingLocked     = errors.New("booking can no longer be changed")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrInvalidImage      = errors.New("only .jpg, .jpeg, .png and .webp images up to 50MB are supported")
)

// ValidationError collects per-field messages. Field keys are the snake_case
// names used in forms and JSON bodies.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Has reports whether field already has a message.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// First returns the first message for field, or "".
func (e *ValidationError) First(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// OrNil returns e when it holds at least one message.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
