package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/claims-workflow/internal/application/dispatcher"
	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/application/validation"
	appwf "github.com/garyjia/claims-workflow/internal/application/workflow"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/event"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

// Id patterns. Draft and request ids carry the year.
const (
	DraftPattern       = "D"
	RequestPattern     = "R"
	ParticipantPattern = "PT"
)

// itemDigits is the width of the per-draft item counter appended to the draft id
const itemDigits = 3

// errRejected aborts the transaction of a submission that failed validation
var errRejected = errors.New("submission failed validation")

// SubmissionResult is the outcome of a batch submission. Either Claims is
// populated or ValidationResults explains why nothing was persisted.
type SubmissionResult struct {
	Success           bool                      `json:"success"`
	Claims            []*entity.ClaimResult     `json:"claims,omitempty"`
	ValidationResults []entity.ValidationResult `json:"validation_results,omitempty"`

	// Notifications reports failed best-effort notifications and is closed
	// when all of them have finished
	Notifications <-chan error `json:"-"`
}

// LockCommand is an explicit LOCK or UNLOCK of a draft
type LockCommand struct {
	DraftID string
	Actor   string
	Role    string
	Intent  string
}

// ClaimService is the inbound pipeline for claim submissions
type ClaimService interface {
	Submit(ctx context.Context, actor string, batch []entity.ClaimSubmission) (*SubmissionResult, error)
	GetClaim(ctx context.Context, draftID string) (*entity.ClaimResult, error)
	SetLock(ctx context.Context, cmd LockCommand) error
	Purge(ctx context.Context, actor, draftID string) error
}

// Validator checks a submission batch
type Validator interface {
	Validate(ctx context.Context, batch []entity.ClaimSubmission, role workflow.Role, group workflow.Group, actor string) ([]entity.ValidationResult, error)
}

// ClaimServiceDeps groups the collaborators of the claim service
type ClaimServiceDeps struct {
	Claims       port.ClaimRepository
	Items        port.ItemRepository
	Participants port.ParticipantRepository
	Processes    port.ProcessRepository
	Tasks        port.TaskRepository
	Sequence     port.SequenceService
	TxManager    port.TransactionManager
	Resolver     *RoleResolver
	Locks        LockManager
	Validator    Validator
	Orchestrator appwf.Orchestrator
	Dispatcher   dispatcher.Dispatcher
	IDDigits     int

	// DefaultStartTime and DefaultEndTime are stored on items that carry no times
	DefaultStartTime string
	DefaultEndTime   string

	// Now is the clock, time.Now when nil
	Now func() time.Time
}

type claimServiceImpl struct {
	ClaimServiceDeps
	logger Logger
	now    func() time.Time
}

// NewClaimService creates a ClaimService
func NewClaimService(deps ClaimServiceDeps, logger Logger) ClaimService {
	if deps.Resolver == nil {
		deps.Resolver = NewRoleResolver()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	if deps.DefaultStartTime == "" || deps.DefaultEndTime == "" {
		def := validation.DefaultConfig()
		deps.DefaultStartTime, deps.DefaultEndTime = def.DefaultStartTime, def.DefaultEndTime
	}
	return &claimServiceImpl{ClaimServiceDeps: deps, logger: logger, now: now}
}

var _ Validator = (*validation.Engine)(nil)

// Submit resolves the role, then inside one transaction checks locks,
// validates, persists and advances every claim of the batch
func (s *claimServiceImpl) Submit(ctx context.Context, actor string, batch []entity.ClaimSubmission) (*SubmissionResult, error) {
	role, err := s.Resolver.Resolve(batch)
	if err != nil {
		return nil, err
	}
	if role == workflow.RoleUnknown {
		return nil, port.NewInputError("ROLE", "unknown role %q", batch[0].Role)
	}
	if actor == "" {
		return nil, port.NewInputError("USER", "acting user is required")
	}

	result := &SubmissionResult{}
	var events []*event.Event

	err = s.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.loadAndGuard(txCtx, actor, role, batch)
		if err != nil {
			return err
		}

		results, err := s.Validator.Validate(txCtx, batch, role, role.Group(), actor)
		if err != nil {
			return fmt.Errorf("validation lookup failed: %w", err)
		}
		if entity.HasErrors(results) {
			result.ValidationResults = results
			return errRejected
		}
		result.ValidationResults = results

		for i := range batch {
			claim, evts, err := s.apply(txCtx, actor, role, &batch[i], existing[i])
			if err != nil {
				return err
			}
			result.Claims = append(result.Claims, claim)
			events = append(events, evts...)
		}
		return nil
	})

	if errors.Is(err, errRejected) {
		s.logger.Info("Submission rejected by validation", "actor", actor, "findings", len(result.ValidationResults))
		result.Claims = nil
		return result, nil
	}
	if err != nil {
		s.logger.Error("Submission failed", "actor", actor, "error", err)
		return nil, err
	}

	result.Success = true
	result.Notifications = s.publish(ctx, events)
	return result, nil
}

// loadAndGuard loads existing drafts and applies the lock and edit checks before any mutation
func (s *claimServiceImpl) loadAndGuard(ctx context.Context, actor string, role workflow.Role, batch []entity.ClaimSubmission) ([]*entity.ClaimRequest, error) {
	existing := make([]*entity.ClaimRequest, len(batch))
	for i := range batch {
		sub := &batch[i]
		if sub.DraftID == "" {
			if !role.CanOriginate() {
				return nil, port.NewInputError("ROLE", "role %s cannot create a claim", role)
			}
			continue
		}

		claim, err := s.Claims.GetByDraftID(ctx, sub.DraftID)
		if err != nil {
			return nil, fmt.Errorf("failed to load claim %s: %w", sub.DraftID, err)
		}
		if claim == nil {
			return nil, fmt.Errorf("%w: %s", port.ErrNotFound, sub.DraftID)
		}
		if sub.RequestID != "" && claim.RequestID != "" && sub.RequestID != claim.RequestID {
			return nil, port.NewInputError("REQUEST_ID", "request id %s does not belong to draft %s", sub.RequestID, sub.DraftID)
		}
		if err := s.Locks.Check(ctx, sub.DraftID, actor); err != nil {
			return nil, err
		}
		// SAVE never passes through a transition, so the edit itself is authorised here
		if action := workflow.ParseAction(sub.Action); action == workflow.ActionSave {
			if err := s.Orchestrator.AuthorizeEdit(ctx, appwf.AdvanceRequest{
				Claim:  claim,
				Action: action,
				Role:   role,
				Actor:  actor,
			}); err != nil {
				return nil, err
			}
		}
		existing[i] = claim
	}
	return existing, nil
}

// apply persists one claim and advances its workflow
func (s *claimServiceImpl) apply(ctx context.Context, actor string, role workflow.Role, sub *entity.ClaimSubmission, claim *entity.ClaimRequest) (*entity.ClaimResult, []*event.Event, error) {
	action := workflow.ParseAction(sub.Action)
	now := s.now()

	claim, err := s.persist(ctx, actor, role, action, sub, claim, now)
	if err != nil {
		return nil, nil, err
	}

	participants, err := s.Participants.ListActiveByDraftID(ctx, claim.DraftID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load participants: %w", err)
	}

	out, err := s.Orchestrator.Advance(ctx, appwf.AdvanceRequest{
		Claim:       claim,
		Action:      action,
		Role:        role,
		Actor:       actor,
		Nominations: nominations(participants),
	})
	if err != nil {
		return nil, nil, err
	}
	claim.RequestStatus = out.Status

	if action == workflow.ActionSave {
		if err := s.Locks.Acquire(ctx, LockRequest{
			DraftID:     claim.DraftID,
			UserID:      actor,
			Group:       role.Group(),
			ULUCode:     claim.ULUCode,
			FDLUCode:    claim.FDLUCode,
			ProcessCode: claim.ClaimType,
			Intent:      entity.LockIntentLock,
		}); err != nil {
			return nil, nil, err
		}
	} else if out.Changed() {
		if err := s.Locks.Release(ctx, claim.DraftID); err != nil {
			return nil, nil, err
		}
	}

	items, err := s.Items.ListActiveByDraftID(ctx, claim.DraftID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load items: %w", err)
	}

	return &entity.ClaimResult{
		Header:       claim,
		Items:        items,
		Participants: participants,
		ActiveTask:   out.NextTask,
	}, s.eventsFor(claim, actor, action, out), nil
}

// persist writes the header, items and nominations of a claim
func (s *claimServiceImpl) persist(ctx context.Context, actor string, role workflow.Role, action workflow.Action, sub *entity.ClaimSubmission, claim *entity.ClaimRequest, now time.Time) (*entity.ClaimRequest, error) {
	year := now.Format("2006")

	if claim == nil {
		id, err := s.Sequence.Next(ctx, DraftPattern+year, s.IDDigits)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate draft id: %w", err)
		}
		claim = &entity.ClaimRequest{
			DraftID:        id,
			RequestStatus:  workflow.StateDraft,
			RequestorGroup: role.Group(),
			CreatedOn:      now,
		}
	}

	if action.EditsItems() {
		claim.ClaimType = sub.ClaimType
		claim.ClaimRequestType = sub.ClaimRequestType
		claim.ClaimMonth = sub.ClaimMonth
		claim.StaffID = sub.StaffID
		claim.ULUCode = sub.ULU
		claim.FDLUCode = sub.FDLU
	}

	if action == workflow.ActionSubmit {
		if claim.RequestID == "" {
			id, err := s.Sequence.Next(ctx, RequestPattern+year, s.IDDigits)
			if err != nil {
				return nil, fmt.Errorf("failed to allocate request id: %w", err)
			}
			claim.RequestID = id
		}
		claim.MarkSubmitted(actor, now)
	}
	claim.ModifiedBy = actor
	claim.ModifiedOn = now

	if err := s.Claims.Upsert(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to save claim header: %w", err)
	}

	if !action.EditsItems() {
		return claim, nil
	}

	if err := s.Items.SoftDeleteByDraftID(ctx, claim.DraftID); err != nil {
		return nil, fmt.Errorf("failed to supersede items: %w", err)
	}
	position := 0
	for _, in := range sub.Items {
		if in.IsDeleted {
			continue
		}
		position++
		if in.ItemID != "" && !strings.HasPrefix(in.ItemID, claim.DraftID) {
			return nil, port.NewInputError("ITEM_ID", "item %s does not belong to draft %s", in.ItemID, claim.DraftID)
		}
		// every version of an item gets a fresh id so superseded rows survive soft-deleted
		id, err := s.Sequence.Next(ctx, claim.DraftID, itemDigits)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate item id: %w", err)
		}
		item, err := s.toItem(id, claim.DraftID, position, in)
		if err != nil {
			return nil, err
		}
		if err := s.Items.Upsert(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to save item %s: %w", item.ItemID, err)
		}
	}

	if err := s.Participants.SoftDeleteByDraftID(ctx, claim.DraftID); err != nil {
		return nil, fmt.Errorf("failed to supersede participants: %w", err)
	}
	for role, users := range sub.Nominations() {
		for _, userID := range users {
			id, err := s.Sequence.Next(ctx, ParticipantPattern, s.IDDigits)
			if err != nil {
				return nil, fmt.Errorf("failed to allocate participant id: %w", err)
			}
			if err := s.Participants.Create(ctx, &entity.ClaimParticipant{
				ParticipantID: id,
				DraftID:       claim.DraftID,
				Role:          role,
				StaffUserID:   userID,
			}); err != nil {
				return nil, fmt.Errorf("failed to save participant: %w", err)
			}
		}
	}

	return claim, nil
}

// GetClaim returns the persisted claim with its items, nominations and active task
func (s *claimServiceImpl) GetClaim(ctx context.Context, draftID string) (*entity.ClaimResult, error) {
	claim, err := s.Claims.GetByDraftID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: %s", port.ErrNotFound, draftID)
	}

	items, err := s.Items.ListActiveByDraftID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	participants, err := s.Participants.ListActiveByDraftID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	task, err := s.Orchestrator.ActiveTask(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active task: %w", err)
	}

	return &entity.ClaimResult{Header: claim, Items: items, Participants: participants, ActiveTask: task}, nil
}

// SetLock applies an explicit LOCK or UNLOCK
func (s *claimServiceImpl) SetLock(ctx context.Context, cmd LockCommand) error {
	role := workflow.ParseRole(cmd.Role)
	if role == workflow.RoleUnknown {
		return port.NewInputError("ROLE", "unknown role %q", cmd.Role)
	}
	if cmd.Actor == "" {
		return port.NewInputError("USER", "acting user is required")
	}

	return s.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claim, err := s.Claims.GetByDraftID(txCtx, cmd.DraftID)
		if err != nil {
			return fmt.Errorf("failed to load claim: %w", err)
		}
		if claim == nil {
			return fmt.Errorf("%w: %s", port.ErrNotFound, cmd.DraftID)
		}
		return s.Locks.Acquire(txCtx, LockRequest{
			DraftID:     cmd.DraftID,
			UserID:      cmd.Actor,
			Group:       role.Group(),
			ULUCode:     claim.ULUCode,
			FDLUCode:    claim.FDLUCode,
			ProcessCode: claim.ClaimType,
			Intent:      cmd.Intent,
		})
	})
}

// Purge soft-deletes a draft with its items, nominations, process and tasks,
// and deletes its lock rows
func (s *claimServiceImpl) Purge(ctx context.Context, actor, draftID string) error {
	var claim *entity.ClaimRequest
	err := s.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		claim, err = s.Claims.GetByDraftID(txCtx, draftID)
		if err != nil {
			return fmt.Errorf("failed to load claim: %w", err)
		}
		if claim == nil {
			return fmt.Errorf("%w: %s", port.ErrNotFound, draftID)
		}
		if err := s.Locks.Check(txCtx, draftID, actor); err != nil {
			return err
		}

		steps := []struct {
			what string
			fn   func() error
		}{
			{"claim", func() error { return s.Claims.SoftDelete(txCtx, draftID, actor) }},
			{"items", func() error { return s.Items.SoftDeleteByDraftID(txCtx, draftID) }},
			{"participants", func() error { return s.Participants.SoftDeleteByDraftID(txCtx, draftID) }},
			{"tasks", func() error { return s.Tasks.SoftDeleteByReferenceID(txCtx, draftID) }},
			{"processes", func() error { return s.Processes.SoftDeleteByReferenceID(txCtx, draftID) }},
			{"locks", func() error { return s.Locks.Release(txCtx, draftID) }},
		}
		for _, step := range steps {
			if err := step.fn(); err != nil {
				return fmt.Errorf("failed to purge %s: %w", step.what, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Claim purged", "draft_id", draftID, "actor", actor)
	s.publish(ctx, []*event.Event{event.NewEvent(event.TypeClaimPurged, claim.DraftID, claim.RequestID, map[string]interface{}{
		event.KeyStaffID:   claim.StaffID,
		event.KeyActor:     actor,
		event.KeyClaimType: claim.ClaimType,
	})})
	return nil
}

func (s *claimServiceImpl) eventsFor(claim *entity.ClaimRequest, actor string, action workflow.Action, out *appwf.Outcome) []*event.Event {
	if !out.Changed() {
		return nil
	}

	base := map[string]interface{}{
		event.KeyStatus:    claim.RequestStatus.String(),
		event.KeyClaimType: claim.ClaimType,
		event.KeyStaffID:   claim.StaffID,
		event.KeyActor:     actor,
		event.KeyULU:       claim.ULUCode,
		event.KeyFDLU:      claim.FDLUCode,
	}
	correlation := claim.DraftID + ":" + claim.ModifiedOn.Format(time.RFC3339Nano)

	var events []*event.Event
	if action == workflow.ActionSubmit {
		events = append(events, event.NewEventWithCorrelation(event.TypeClaimSubmitted, claim.DraftID, claim.RequestID, copyPayload(base), correlation))
	}
	if out.NextTask != nil {
		evt := event.NewEventWithCorrelation(event.TypeTaskAssigned, claim.DraftID, claim.RequestID, copyPayload(base), correlation).
			WithPayload(event.KeyAssignedGroup, out.NextTask.TaskAssignedGroup).
			WithPayload(event.KeyAssignedTo, out.NextTask.TaskAssignedTo).
			WithPayload(event.KeyTaskName, out.NextTask.TaskName)
		events = append(events, evt)
	}
	if out.ProcessClosed {
		t := event.TypeClaimCompleted
		if claim.RequestStatus.IsRetracted() {
			t = event.TypeClaimRetracted
		}
		events = append(events, event.NewEventWithCorrelation(t, claim.DraftID, claim.RequestID, copyPayload(base), correlation))
	}
	return events
}

// publish hands events to the dispatcher after commit and merges the
// per-event error channels
func (s *claimServiceImpl) publish(ctx context.Context, events []*event.Event) <-chan error {
	merged := make(chan error, len(events))
	if s.Dispatcher == nil || len(events) == 0 {
		close(merged)
		return merged
	}

	channels := make([]<-chan error, 0, len(events))
	for _, evt := range events {
		channels = append(channels, s.Dispatcher.DispatchAsync(ctx, evt))
	}

	go func() {
		defer close(merged)
		for _, ch := range channels {
			for err := range ch {
				select {
				case merged <- err:
				default:
					s.logger.Error("Notification error dropped", "error", err)
				}
			}
		}
	}()
	return merged
}

func copyPayload(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func nominations(participants []*entity.ClaimParticipant) map[string][]string {
	out := make(map[string][]string)
	for _, p := range participants {
		out[p.Role] = append(out[p.Role], p.StaffUserID)
	}
	return out
}

func (s *claimServiceImpl) toItem(itemID, draftID string, position int, in entity.SubmissionItem) (*entity.ClaimItem, error) {
	start, err := time.ParseInLocation("2006-01-02", in.ClaimStartDate, time.UTC)
	if err != nil {
		return nil, port.NewInputError("CLAIM_START_DATE", "item %d: %v", position, err)
	}
	end, err := time.ParseInLocation("2006-01-02", in.ClaimEndDate, time.UTC)
	if err != nil {
		return nil, port.NewInputError("CLAIM_END_DATE", "item %d: %v", position, err)
	}
	startTime, endTime := in.StartTime, in.EndTime
	if startTime == "" && endTime == "" {
		startTime, endTime = s.DefaultStartTime, s.DefaultEndTime
	}

	return &entity.ClaimItem{
		ItemID:         itemID,
		DraftID:        draftID,
		RateType:       entity.ParseRateType(in.RateType),
		ClaimStartDate: start,
		ClaimEndDate:   end,
		StartTime:      startTime,
		EndTime:        endTime,
		HoursUnit:      in.HoursUnit,
		Amount:         in.Amount,
		WBS:            in.WBS,
		Remarks:        in.Remarks,
		DisplayIndex:   position,
	}, nil
}
