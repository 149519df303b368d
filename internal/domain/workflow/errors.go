package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when the claim is not in a position to take the action
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a configured status code is not a known state
	ErrInvalidState = errors.New("invalid state")

	// ErrConfigGap marks a missing process, task or transition definition.
	// It indicates a deployment defect and is never defaulted.
	ErrConfigGap = errors.New("workflow configuration gap")

	// ErrProcessNotFound is returned when no process definition exists for a claim type
	ErrProcessNotFound = fmt.Errorf("%w: process definition not found", ErrConfigGap)

	// ErrTaskNotFound is returned when no task definition exists at a sequence
	ErrTaskNotFound = fmt.Errorf("%w: task definition not found", ErrConfigGap)

	// ErrRuleNotFound is returned when no task action rule matches a key
	ErrRuleNotFound = fmt.Errorf("%w: transition rule not found", ErrConfigGap)
)
