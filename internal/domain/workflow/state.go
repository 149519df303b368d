package workflow

// State is a request status code. Codes are stored on the claim header and
// referenced by the task action rules in the configuration tables.
type State string

const (
	StateDraft                      State = "DRAFT"
	StatePendingClaimAssistant      State = "PENDING_CA"
	StatePendingVerifier            State = "PENDING_VERIFIER"
	StatePendingAdditionalApprover1 State = "PENDING_A1"
	StatePendingAdditionalApprover2 State = "PENDING_A2"
	StatePendingApprover            State = "PENDING_APPROVER"
	StateClaimantSubmitted          State = "CLAIMANT_SUBMITTED"
	StateClaimAssistantSubmitted    State = "CA_SUBMITTED"
	StateApproved                   State = "APPROVED"
	StateRejectedClaimant           State = "REJECTED_CLAIMANT"
	StateRejectedClaimAssistant     State = "REJECTED_CA"
	StateRetractedClaimant          State = "RETRACTED_CLAIMANT"
	StateRetractedClaimAssistant    State = "RETRACTED_CA"
	StateWithdrawnAdmin             State = "WITHDRAWN_ADMIN"
	StateWithdrawnECP               State = "WITHDRAWN_ECP"
	StateWithdrawnSystem            State = "WITHDRAWN_SYSTEM"
)

var validStates = map[State]bool{
	StateDraft:                      true,
	StatePendingClaimAssistant:      true,
	StatePendingVerifier:            true,
	StatePendingAdditionalApprover1: true,
	StatePendingAdditionalApprover2: true,
	StatePendingApprover:            true,
	StateClaimantSubmitted:          true,
	StateClaimAssistantSubmitted:    true,
	StateApproved:                   true,
	StateRejectedClaimant:           true,
	StateRejectedClaimAssistant:     true,
	StateRetractedClaimant:          true,
	StateRetractedClaimAssistant:    true,
	StateWithdrawnAdmin:             true,
	StateWithdrawnECP:               true,
	StateWithdrawnSystem:            true,
}

var terminalStates = map[State]bool{
	StateApproved:               true,
	StateRejectedClaimant:       true,
	StateRejectedClaimAssistant: true,
	StateWithdrawnAdmin:         true,
	StateWithdrawnECP:           true,
	StateWithdrawnSystem:        true,
}

var retractedStates = map[State]bool{
	StateRetractedClaimant:       true,
	StateRetractedClaimAssistant: true,
}

// IsTerminal returns true if no further action can be taken on the claim
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsRetracted returns true for the claimant and claim assistant retraction states
func (s State) IsRetracted() bool {
	return retractedStates[s]
}

// IsActive reports whether a claim in this state still counts as a live claim
// for duplicate detection. Rejected, retracted and withdrawn claims do not.
func (s State) IsActive() bool {
	if s.IsRetracted() {
		return false
	}
	return s == StateApproved || !s.IsTerminal()
}

// ClosesProcess returns true when reaching this state ends the running process
// instance without opening another task.
func (s State) ClosesProcess() bool {
	return s.IsTerminal() || s.IsRetracted()
}

// AcceptsSubmit returns true when a SUBMIT starts a fresh process from this state
func (s State) AcceptsSubmit() bool {
	return s == "" || s == StateDraft || s.IsRetracted()
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known request status
func (s State) IsValid() bool {
	return validStates[s]
}

// InactiveStates lists the states excluded from active-claim queries
func InactiveStates() []State {
	out := make([]State, 0, len(terminalStates)+len(retractedStates))
	for _, s := range []State{
		StateRejectedClaimant, StateRejectedClaimAssistant,
		StateRetractedClaimant, StateRetractedClaimAssistant,
		StateWithdrawnAdmin, StateWithdrawnECP, StateWithdrawnSystem,
	} {
		out = append(out, s)
	}
	return out
}
