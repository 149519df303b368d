package workflow

import "strings"

// Role is the acting role of a submission. RoleUnknown is the zero value and
// marks an unroutable request; it never falls back to another role.
type Role int

const (
	RoleUnknown Role = iota
	RoleClaimant
	RoleClaimAssistant
	RoleVerifier
	RoleApprover
	RoleAdditionalApprover1
	RoleAdditionalApprover2
	RoleReportingManager
)

var roleCodes = map[Role]string{
	RoleClaimant:            "ESS",
	RoleClaimAssistant:      "CA",
	RoleVerifier:            "VERIFIER",
	RoleApprover:            "APPROVER",
	RoleAdditionalApprover1: "A1",
	RoleAdditionalApprover2: "A2",
	RoleReportingManager:    "REPORTING_MANAGER",
}

// Group is a role group: the owner of a task or the originator of a claim.
type Group string

const (
	GroupClaimant            Group = "CLAIMANT"
	GroupClaimAssistant      Group = "CLAIM_ASSISTANT"
	GroupVerifier            Group = "VERIFIER"
	GroupApprover            Group = "APPROVER"
	GroupAdditionalApprover1 Group = "ADDITIONAL_APPROVER_1"
	GroupAdditionalApprover2 Group = "ADDITIONAL_APPROVER_2"
	GroupReportingManager    Group = "REPORTING_MANAGER"
)

var roleGroups = map[Role]Group{
	RoleClaimant:            GroupClaimant,
	RoleClaimAssistant:      GroupClaimAssistant,
	RoleVerifier:            GroupVerifier,
	RoleApprover:            GroupApprover,
	RoleAdditionalApprover1: GroupAdditionalApprover1,
	RoleAdditionalApprover2: GroupAdditionalApprover2,
	RoleReportingManager:    GroupReportingManager,
}

// ParseRole maps a transport role code to a Role
func ParseRole(code string) Role {
	code = strings.ToUpper(strings.TrimSpace(code))
	for r, c := range roleCodes {
		if c == code {
			return r
		}
	}
	return RoleUnknown
}

// String returns the transport code of the role
func (r Role) String() string {
	if c, ok := roleCodes[r]; ok {
		return c
	}
	return "UNKNOWN"
}

// Group returns the role group of the role, empty for RoleUnknown
func (r Role) Group() Group {
	return roleGroups[r]
}

// CanOriginate returns true for roles allowed to create a new claim
func (r Role) CanOriginate() bool {
	return r == RoleClaimant || r == RoleClaimAssistant
}

// LocksAsGroup returns true when a lock taken by one member of the group is
// recorded for every member of the group.
func (g Group) LocksAsGroup() bool {
	return g == GroupClaimAssistant || g == GroupApprover
}

// String returns the group code
func (g Group) String() string {
	return string(g)
}
