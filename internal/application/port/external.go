package port

import (
	"context"

	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

// SequenceService issues unique identifiers: pattern followed by a
// zero-padded counter of the given width
type SequenceService interface {
	Next(ctx context.Context, pattern string, digits int) (string, error)
}

// ConfigStore is the read-only workflow configuration oracle
type ConfigStore interface {
	Process(ctx context.Context, code string) (*workflow.ProcessDefinition, error)
	Task(ctx context.Context, processCode string, group workflow.Group, sequence int) (*workflow.TaskDefinition, error)
	Next(ctx context.Context, key workflow.RuleKey) (*workflow.Transition, error)
}

// StaffDirectory is the read-only staff reference data
type StaffDirectory interface {
	// GetStaff returns nil, nil for an unknown staff id
	GetStaff(ctx context.Context, staffID string) (*entity.StaffRecord, error)
	HasActiveAppointment(ctx context.Context, q entity.EligibilityQuery) (bool, error)
	HasHourlyEngagement(ctx context.Context, q entity.EligibilityQuery) (bool, error)
}

// ApproverMatrix resolves role group membership
type ApproverMatrix interface {
	ListMembers(ctx context.Context, scope entity.MatrixScope) ([]string, error)
	IsMember(ctx context.Context, scope entity.MatrixScope, userID string) (bool, error)
}

// Notification is a best-effort message. Recipients maps user id to display name.
type Notification struct {
	Subject    string
	Body       string
	Recipients map[string]string
}

// Notifier delivers notifications
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
