package workflow

import "strings"

// Action is a closed set of actions an actor can take on a claim.
// ActionUnknown is the zero value and is never routable.
type Action int

const (
	ActionUnknown Action = iota
	ActionSave
	ActionSubmit
	ActionCheck
	ActionReject
	ActionRetract
	ActionWithdraw
	ActionApprove
)

var actionNames = map[Action]string{
	ActionSave:     "SAVE",
	ActionSubmit:   "SUBMIT",
	ActionCheck:    "CHECK",
	ActionReject:   "REJECT",
	ActionRetract:  "RETRACT",
	ActionWithdraw: "WITHDRAW",
	ActionApprove:  "APPROVE",
}

// ParseAction maps a transport code to an Action. Unrecognised codes yield ActionUnknown.
func ParseAction(code string) Action {
	code = strings.ToUpper(strings.TrimSpace(code))
	for a, name := range actionNames {
		if name == code {
			return a
		}
	}
	return ActionUnknown
}

// String returns the transport code of the action
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsForward returns true for actions that move the claim to the next configured task
func (a Action) IsForward() bool {
	return a == ActionSubmit || a == ActionCheck || a == ActionApprove
}

// RequiresItems returns true for actions that must carry at least one line item
func (a Action) RequiresItems() bool {
	return a == ActionSubmit || a == ActionCheck || a == ActionReject
}

// EditsItems returns true for actions whose payload replaces the stored line items
func (a Action) EditsItems() bool {
	return a == ActionSave || a == ActionSubmit || a == ActionCheck
}

// Reserved task sequences addressed by the non-forward actions. Rules keyed on
// these targets decide which rejected, retracted or withdrawn variant applies.
const (
	SequenceInitial   = 0
	SequenceRejected  = 900
	SequenceRetracted = 910
	SequenceWithdrawn = 920
)

// TargetSequence returns the task sequence an action moves to from a task
// whose configured successor is next.
func (a Action) TargetSequence(next int) (int, bool) {
	switch a {
	case ActionSubmit, ActionCheck, ActionApprove:
		return next, true
	case ActionReject:
		return SequenceRejected, true
	case ActionRetract:
		return SequenceRetracted, true
	case ActionWithdraw:
		return SequenceWithdrawn, true
	default:
		return 0, false
	}
}
