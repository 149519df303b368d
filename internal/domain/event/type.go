package event

// Type identifies the type of domain event
type Type string

const (
	TypeClaimSubmitted Type = "claim.submitted"
	TypeTaskAssigned   Type = "task.assigned"
	TypeClaimCompleted Type = "claim.completed"
	TypeClaimRetracted Type = "claim.retracted"
	TypeClaimPurged    Type = "claim.purged"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeClaimSubmitted,
		TypeTaskAssigned,
		TypeClaimCompleted,
		TypeClaimRetracted,
		TypeClaimPurged:
		return true
	default:
		return false
	}
}
