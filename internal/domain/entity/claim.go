package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

// ClaimRequest is the claim header
type ClaimRequest struct {
	DraftID          string         `json:"draft_id"`
	RequestID        string         `json:"request_id,omitempty"`
	ClaimType        string         `json:"claim_type"`
	ClaimRequestType string         `json:"claim_request_type"`
	ClaimMonth       string         `json:"claim_month"`
	StaffID          string         `json:"staff_id"`
	ULUCode          string         `json:"ulu_code"`
	FDLUCode         string         `json:"fdlu_code"`
	RequestStatus    workflow.State `json:"request_status"`
	RequestorGroup   workflow.Group `json:"requestor_group"`
	SubmittedBy      string         `json:"submitted_by,omitempty"`
	SubmittedOn      *time.Time     `json:"submitted_on,omitempty"`
	ModifiedBy       string         `json:"modified_by"`
	ModifiedOn       time.Time      `json:"modified_on"`
	CreatedOn        time.Time      `json:"created_on"`
	IsDeleted        bool           `json:"-"`
}

// IsPeriod returns true for PERIOD claim requests
func (c *ClaimRequest) IsPeriod() bool {
	return c.ClaimRequestType == ClaimRequestTypePeriod
}

// MarkSubmitted records the first submission. Later calls leave the original values in place.
func (c *ClaimRequest) MarkSubmitted(userID string, at time.Time) {
	if c.SubmittedOn != nil {
		return
	}
	c.SubmittedBy = userID
	c.SubmittedOn = &at
}

// ClaimItem is a line item of a claim
type ClaimItem struct {
	ItemID         string          `json:"item_id"`
	DraftID        string          `json:"draft_id"`
	RateType       RateType        `json:"rate_type"`
	ClaimStartDate time.Time       `json:"claim_start_date"`
	ClaimEndDate   time.Time       `json:"claim_end_date"`
	StartTime      string          `json:"start_time"`
	EndTime        string          `json:"end_time"`
	HoursUnit      decimal.Decimal `json:"hours_unit"`
	Amount         decimal.Decimal `json:"amount"`
	WBS            string          `json:"wbs"`
	Remarks        string          `json:"remarks,omitempty"`
	DisplayIndex   int             `json:"display_index"`
	IsDeleted      bool            `json:"-"`
}

// PersistedItem is a stored item joined to its header, as returned by
// history lookups.
type PersistedItem struct {
	ClaimItem
	StaffID          string         `json:"staff_id"`
	ClaimType        string         `json:"claim_type"`
	ClaimRequestType string         `json:"claim_request_type"`
	RequestStatus    workflow.State `json:"request_status"`
}

// ClaimParticipant is an individual nominated on a submission
type ClaimParticipant struct {
	ParticipantID string `json:"participant_id"`
	DraftID       string `json:"draft_id"`
	Role          string `json:"participant_role"`
	StaffUserID   string `json:"staff_user_id"`
	IsDeleted     bool   `json:"-"`
}

// ClaimResult is the persisted view of a claim returned to callers
type ClaimResult struct {
	Header       *ClaimRequest       `json:"header"`
	Items        []*ClaimItem        `json:"items"`
	Participants []*ClaimParticipant `json:"participants,omitempty"`
	ActiveTask   *TaskInstance       `json:"active_task,omitempty"`
}
