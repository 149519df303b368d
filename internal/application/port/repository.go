package port

import (
	"context"
	"time"

	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

// ClaimRepository defines persistence operations for claim headers.
// Lookups return nil, nil when the row does not exist or is soft-deleted.
type ClaimRepository interface {
	GetByDraftID(ctx context.Context, draftID string) (*entity.ClaimRequest, error)
	Upsert(ctx context.Context, claim *entity.ClaimRequest) error
	UpdateStatus(ctx context.Context, draftID string, status workflow.State, modifiedBy string) error
	SoftDelete(ctx context.Context, draftID, modifiedBy string) error
	CountActiveForMonth(ctx context.Context, q MonthlyClaimQuery) (int, error)
	CountBackdatedSubmissions(ctx context.Context, q BackdateQuery) (int, error)
}

// MonthlyClaimQuery selects live claims of a staff member for one claim month
type MonthlyClaimQuery struct {
	StaffID        string
	ClaimType      string
	ClaimMonth     string
	ExcludeDraftID string
}

// BackdateQuery selects claims submitted inside a window for an earlier claim month
type BackdateQuery struct {
	StaffID        string
	ClaimType      string
	WindowStart    time.Time
	WindowEnd      time.Time
	ExcludeDraftID string
}

// ItemRepository defines persistence operations for claim items
type ItemRepository interface {
	ListActiveByDraftID(ctx context.Context, draftID string) ([]*entity.ClaimItem, error)
	Upsert(ctx context.Context, item *entity.ClaimItem) error
	SoftDeleteByDraftID(ctx context.Context, draftID string) error
	FindIntersecting(ctx context.Context, q HistoryQuery) ([]*entity.PersistedItem, error)
}

// HistoryQuery selects persisted, non-deleted items of live claims whose
// date range intersects [From, To]
type HistoryQuery struct {
	StaffID        string
	ULUCode        string
	FDLUCode       string
	From           time.Time
	To             time.Time
	ExcludeDraftID string
}

// ParticipantRepository defines persistence operations for nominated participants
type ParticipantRepository interface {
	ListActiveByDraftID(ctx context.Context, draftID string) ([]*entity.ClaimParticipant, error)
	Create(ctx context.Context, p *entity.ClaimParticipant) error
	SoftDeleteByDraftID(ctx context.Context, draftID string) error
}

// LockRepository defines persistence operations for request lock rows
type LockRepository interface {
	ListByReferenceID(ctx context.Context, referenceID string) ([]*entity.RequestLock, error)
	Create(ctx context.Context, lock *entity.RequestLock) error
	UpdateByReferenceID(ctx context.Context, referenceID, lockedBy, isLocked, intent string) error
	DeleteByReferenceID(ctx context.Context, referenceID string) error
}

// ProcessRepository defines persistence operations for process instances
type ProcessRepository interface {
	Create(ctx context.Context, p *entity.ProcessInstance) error
	GetActiveByReferenceID(ctx context.Context, referenceID string) (*entity.ProcessInstance, error)
	UpdateStatus(ctx context.Context, processInstID, status, modifiedBy string) error
	SoftDeleteByReferenceID(ctx context.Context, referenceID string) error
}

// TaskRepository defines persistence operations for task instances
type TaskRepository interface {
	Create(ctx context.Context, t *entity.TaskInstance) error
	GetActiveByProcessID(ctx context.Context, processInstID string) (*entity.TaskInstance, error)
	Complete(ctx context.Context, taskInstID, actionBy string) error
	SoftDeleteByReferenceID(ctx context.Context, referenceID string) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
