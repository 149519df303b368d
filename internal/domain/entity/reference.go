package entity

import "time"

// StaffRecord is the directory entry for a staff member
type StaffRecord struct {
	StaffID            string `json:"staff_id"`
	UserID             string `json:"user_id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	IsActive           bool   `json:"is_active"`
	ReportingManagerID string `json:"reporting_manager_id,omitempty"`
}

// ApproverMatrixEntry grants a staff member a role group for an org unit and process
type ApproverMatrixEntry struct {
	StaffUserID string    `json:"staff_user_id"`
	ULUCode     string    `json:"ulu_code"`
	FDLUCode    string    `json:"fdlu_code"`
	ProcessCode string    `json:"process_code"`
	RoleGroup   string    `json:"role_group"`
	ValidFrom   time.Time `json:"valid_from"`
	ValidTo     time.Time `json:"valid_to"`
}

// MatrixScope selects approver matrix entries
type MatrixScope struct {
	ULUCode     string
	FDLUCode    string
	ProcessCode string
	RoleGroup   string
	AsOf        time.Time
}

// EligibilityQuery asks whether a staff member may claim against an org unit
// for a date range
type EligibilityQuery struct {
	StaffID   string
	ULUCode   string
	FDLUCode  string
	ClaimType string
	From      time.Time
	To        time.Time
}
