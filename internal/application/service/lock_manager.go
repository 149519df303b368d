package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

// LockPattern prefixes lock instance ids
const LockPattern = "LK"

// LockRequest describes a LOCK or UNLOCK on a draft
type LockRequest struct {
	DraftID     string
	UserID      string
	Group       workflow.Group
	ULUCode     string
	FDLUCode    string
	ProcessCode string
	Intent      string
}

// LockManager serialises edits to a draft with a fail-fast advisory lock.
// All methods must run inside the caller's transaction.
type LockManager interface {
	// Check fails with a LockConflictError when another user holds the lock
	Check(ctx context.Context, draftID, userID string) error

	// Acquire applies a LOCK or UNLOCK intent
	Acquire(ctx context.Context, req LockRequest) error

	// Release deletes every lock row of the draft
	Release(ctx context.Context, draftID string) error
}

type lockManagerImpl struct {
	lockRepo port.LockRepository
	matrix   port.ApproverMatrix
	sequence port.SequenceService
	digits   int
	logger   Logger
	now      func() time.Time
}

// NewLockManager creates a LockManager
func NewLockManager(
	lockRepo port.LockRepository,
	matrix port.ApproverMatrix,
	sequence port.SequenceService,
	digits int,
	logger Logger,
) LockManager {
	return &lockManagerImpl{
		lockRepo: lockRepo,
		matrix:   matrix,
		sequence: sequence,
		digits:   digits,
		logger:   logger,
		now:      time.Now,
	}
}

func (m *lockManagerImpl) Check(ctx context.Context, draftID, userID string) error {
	rows, err := m.lockRepo.ListByReferenceID(ctx, draftID)
	if err != nil {
		return fmt.Errorf("failed to read locks: %w", err)
	}

	if holder := holderOf(rows); holder != "" && holder != userID {
		return &port.LockConflictError{DraftID: draftID, Holder: holder}
	}
	return nil
}

func (m *lockManagerImpl) Acquire(ctx context.Context, req LockRequest) error {
	rows, err := m.lockRepo.ListByReferenceID(ctx, req.DraftID)
	if err != nil {
		return fmt.Errorf("failed to read locks: %w", err)
	}

	holder := holderOf(rows)
	if holder != "" && holder != req.UserID {
		return &port.LockConflictError{DraftID: req.DraftID, Holder: holder}
	}

	switch req.Intent {
	case entity.LockIntentLock:
		if holder == req.UserID {
			return nil
		}
		if len(rows) > 0 && coversUser(rows, req.UserID) {
			if err := m.lockRepo.UpdateByReferenceID(ctx, req.DraftID, req.UserID, entity.LockMarker, entity.LockIntentLock); err != nil {
				return fmt.Errorf("failed to lock request: %w", err)
			}
			m.logger.Info("Request relocked", "draft_id", req.DraftID, "user_id", req.UserID)
			return nil
		}
		if len(rows) > 0 {
			// Stale rows of a previous holder set
			if err := m.lockRepo.DeleteByReferenceID(ctx, req.DraftID); err != nil {
				return fmt.Errorf("failed to clear stale locks: %w", err)
			}
		}
		return m.create(ctx, req)

	case entity.LockIntentUnlock:
		if holder == "" {
			return fmt.Errorf("%w: %s", port.ErrNotLocked, req.DraftID)
		}
		if err := m.lockRepo.UpdateByReferenceID(ctx, req.DraftID, "", "", entity.LockIntentUnlock); err != nil {
			return fmt.Errorf("failed to unlock request: %w", err)
		}
		m.logger.Info("Request unlocked", "draft_id", req.DraftID, "user_id", req.UserID)
		return nil

	default:
		return port.NewInputError("INTENT", "unknown lock intent %q", req.Intent)
	}
}

func (m *lockManagerImpl) Release(ctx context.Context, draftID string) error {
	if err := m.lockRepo.DeleteByReferenceID(ctx, draftID); err != nil {
		return fmt.Errorf("failed to release locks: %w", err)
	}
	return nil
}

// create writes one row per member of the holder set
func (m *lockManagerImpl) create(ctx context.Context, req LockRequest) error {
	members := []string{req.UserID}
	if req.Group.LocksAsGroup() {
		others, err := m.matrix.ListMembers(ctx, entity.MatrixScope{
			ULUCode:     req.ULUCode,
			FDLUCode:    req.FDLUCode,
			ProcessCode: req.ProcessCode,
			RoleGroup:   req.Group.String(),
			AsOf:        m.now(),
		})
		if err != nil {
			return fmt.Errorf("failed to resolve lock group: %w", err)
		}
		members = appendUnique(members, others...)
	}

	for _, member := range members {
		id, err := m.sequence.Next(ctx, LockPattern, m.digits)
		if err != nil {
			return fmt.Errorf("failed to allocate lock id: %w", err)
		}
		row := &entity.RequestLock{
			LockInstID:     id,
			ReferenceID:    req.DraftID,
			UserID:         member,
			LockedByUserID: req.UserID,
			IsLocked:       entity.LockMarker,
			StaffUserGroup: req.Group.String(),
			RequestStatus:  entity.LockIntentLock,
			ModifiedOn:     m.now(),
		}
		if err := m.lockRepo.Create(ctx, row); err != nil {
			return fmt.Errorf("failed to create lock: %w", err)
		}
	}

	m.logger.Info("Request locked", "draft_id", req.DraftID, "user_id", req.UserID, "group", req.Group, "rows", len(members))
	return nil
}

func holderOf(rows []*entity.RequestLock) string {
	for _, r := range rows {
		if r.Held() {
			return r.LockedByUserID
		}
	}
	return ""
}

func coversUser(rows []*entity.RequestLock, userID string) bool {
	for _, r := range rows {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]bool, len(dst)+len(values))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range values {
		if v != "" && !seen[v] {
			seen[v] = true
			dst = append(dst, v)
		}
	}
	return dst
}
