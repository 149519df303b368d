package entity

import "strings"

// Claim request types
const (
	ClaimRequestTypePeriod = "PERIOD"
	ClaimRequestTypeDaily  = "DAILY"
)

// Claim types. The claim type doubles as the process code.
const (
	ClaimTypeTeachingAssistance = "TA"
	ClaimTypeCompensation       = "CMP"
	ClaimTypeOvertime           = "OT"
	ClaimTypeHonorarium         = "HON"
)

// Process instance status
const (
	ProcessStatusInProgress = "IN_PROGRESS"
	ProcessStatusComplete   = "COMPLETE"
)

// Task instance status
const (
	TaskStatusActive   = "ACTIVE"
	TaskStatusComplete = "COMPLETE"
)

// AssigneeAll marks a task any member of the assigned group may act on
const AssigneeAll = "ALL"

// Lock intents
const (
	LockIntentLock   = "LOCK"
	LockIntentUnlock = "UNLOCK"
)

// LockMarker is the is_locked value of a held lock; blank means released
const LockMarker = "Y"

// Participant roles nominated on a submission
const (
	ParticipantVerifier            = "VERIFIER"
	ParticipantAdditionalApprover1 = "ADDITIONAL_APPROVER_1"
	ParticipantAdditionalApprover2 = "ADDITIONAL_APPROVER_2"
)

// RateType is the closed set of item rate types. RateTypeUnknown is the zero value.
type RateType int

const (
	RateTypeUnknown RateType = iota
	RateTypeHourly
	RateTypeMonthly
	RateTypeDaily
	RateTypeLumpSum
)

var rateTypeCodes = map[RateType]string{
	RateTypeHourly:  "HOURLY",
	RateTypeMonthly: "MONTHLY",
	RateTypeDaily:   "DAILY",
	RateTypeLumpSum: "LUMPSUM",
}

// ParseRateType maps a stored or transport code to a RateType
func ParseRateType(code string) RateType {
	code = strings.ToUpper(strings.TrimSpace(code))
	for rt, c := range rateTypeCodes {
		if c == code {
			return rt
		}
	}
	return RateTypeUnknown
}

// String returns the rate type code, empty for RateTypeUnknown
func (r RateType) String() string {
	return rateTypeCodes[r]
}

// RequiresTime returns true for rate types that need a start and end time
func (r RateType) RequiresTime() bool {
	return r == RateTypeHourly
}

// Comparable reports whether two items of these rate types are checked against
// each other for overlap: same type, or the hourly/monthly alias pair. Two
// items without a rate type count as the same type.
func (r RateType) Comparable(other RateType) bool {
	if r == other {
		return true
	}
	return (r == RateTypeHourly && other == RateTypeMonthly) || (r == RateTypeMonthly && other == RateTypeHourly)
}

// MarshalText implements encoding.TextMarshaler
func (r RateType) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown codes decode to RateTypeUnknown.
func (r *RateType) UnmarshalText(b []byte) error {
	*r = ParseRateType(string(b))
	return nil
}
