package port

import (
	"errors"
	"fmt"
)

// ErrNotLocked is returned by an UNLOCK on a draft that holds no lock
var ErrNotLocked = errors.New("request is not in locked state")

// ErrNotFound is returned when a draft does not exist
var ErrNotFound = errors.New("claim not found")

// InputError rejects a whole submission before any work is done
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Message)
}

// NewInputError creates an InputError
func NewInputError(field, format string, args ...interface{}) *InputError {
	return &InputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// LockConflictError is returned when a draft is locked by another user
type LockConflictError struct {
	DraftID string
	Holder  string
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("request %s is locked by %s", e.DraftID, e.Holder)
}

// ForbiddenError is returned when the actor may not act on the active task
type ForbiddenError struct {
	Actor  string
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("user %s is not allowed: %s", e.Actor, e.Reason)
}
