package entity

import "github.com/shopspring/decimal"

// ClaimSubmission is one claim of an inbound batch
type ClaimSubmission struct {
	DraftID             string           `json:"DRAFT_ID,omitempty"`
	RequestID           string           `json:"REQUEST_ID,omitempty"`
	Action              string           `json:"ACTION"`
	Role                string           `json:"ROLE"`
	RequestStatus       string           `json:"REQUEST_STATUS"`
	ClaimType           string           `json:"CLAIM_TYPE"`
	ClaimRequestType    string           `json:"CLAIM_REQUEST_TYPE"`
	StaffID             string           `json:"STAFF_ID"`
	ULU                 string           `json:"ULU"`
	FDLU                string           `json:"FDLU"`
	ClaimMonth          string           `json:"CLAIM_MONTH"`
	Items               []SubmissionItem `json:"ITEMS"`
	Verifier            []string         `json:"VERIFIER,omitempty"`
	AdditionalApprover1 []string         `json:"ADDITIONAL_APPROVER_1,omitempty"`
	AdditionalApprover2 []string         `json:"ADDITIONAL_APPROVER_2,omitempty"`
}

// SubmissionItem is an inbound line item. Dates are YYYY-MM-DD and times HH:MM.
type SubmissionItem struct {
	ItemID         string          `json:"ITEM_ID,omitempty"`
	ClaimStartDate string          `json:"CLAIM_START_DATE"`
	ClaimEndDate   string          `json:"CLAIM_END_DATE"`
	StartTime      string          `json:"START_TIME"`
	EndTime        string          `json:"END_TIME"`
	RateType       string          `json:"RATE_TYPE"`
	HoursUnit      decimal.Decimal `json:"HOURS_UNIT"`
	Amount         decimal.Decimal `json:"AMOUNT"`
	WBS            string          `json:"WBS"`
	Remarks        string          `json:"REMARKS,omitempty"`
	IsDeleted      bool            `json:"IS_DELETED,omitempty"`
}

// Nominations returns the nominated participants keyed by participant role
func (s *ClaimSubmission) Nominations() map[string][]string {
	out := make(map[string][]string)
	if len(s.Verifier) > 0 {
		out[ParticipantVerifier] = s.Verifier
	}
	if len(s.AdditionalApprover1) > 0 {
		out[ParticipantAdditionalApprover1] = s.AdditionalApprover1
	}
	if len(s.AdditionalApprover2) > 0 {
		out[ParticipantAdditionalApprover2] = s.AdditionalApprover2
	}
	return out
}
