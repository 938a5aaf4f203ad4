package services

import (
	"errors"
	"fmt"
)

// Error kinds the booking workflow reports. Callers branch on these with
// errors.Is / errors.As to render a specific message; anything else is a
// persistence failure and retriable.
var (
	ErrDuplicateMembership = errors.New("student has already joined this group session")
	ErrCapacityExceeded    = errors.New("group session is full")
	ErrNotApprovable       = errors.New("target is not in an approvable state")
	ErrNotFound            = errors.New("record not found")
)

// ValidationError reports a missing or invalid required field. It always names
// the field so the caller never has to render a bare "invalid request".
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalidField(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
