package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/claims-workflow/internal/domain/workflow"
)

// Id patterns
const (
	ProcessPattern = "PR"
	TaskPattern    = "TK"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type orchestratorImpl struct {
	config      port.ConfigStore
	claimRepo   port.ClaimRepository
	processRepo port.ProcessRepository
	taskRepo    port.TaskRepository
	staff       port.StaffDirectory
	matrix      port.ApproverMatrix
	sequence    port.SequenceService
	logger      Logger

	digits     int
	chainDepth int
	now        func() time.Time
}

// Option configures the orchestrator
type Option func(*orchestratorImpl)

// WithIDDigits sets the width of generated process and task ids
func WithIDDigits(digits int) Option {
	return func(o *orchestratorImpl) {
		o.digits = digits
	}
}

// WithChainDepth bounds the reporting manager walk
func WithChainDepth(depth int) Option {
	return func(o *orchestratorImpl) {
		o.chainDepth = depth
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(o *orchestratorImpl) {
		o.now = now
	}
}

// NewOrchestrator creates a workflow orchestrator
func NewOrchestrator(
	config port.ConfigStore,
	claimRepo port.ClaimRepository,
	processRepo port.ProcessRepository,
	taskRepo port.TaskRepository,
	staff port.StaffDirectory,
	matrix port.ApproverMatrix,
	sequence port.SequenceService,
	logger Logger,
	opts ...Option,
) Orchestrator {
	o := &orchestratorImpl{
		config:      config,
		claimRepo:   claimRepo,
		processRepo: processRepo,
		taskRepo:    taskRepo,
		staff:       staff,
		matrix:      matrix,
		sequence:    sequence,
		logger:      logger,
		digits:      8,
		chainDepth:  5,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *orchestratorImpl) Advance(ctx context.Context, req AdvanceRequest) (*Outcome, error) {
	if req.Claim == nil {
		return nil, fmt.Errorf("claim is required")
	}

	switch req.Action {
	case domainwf.ActionSave:
		return &Outcome{PreviousStatus: req.Claim.RequestStatus, Status: req.Claim.RequestStatus}, nil
	case domainwf.ActionSubmit:
		if !req.Claim.RequestStatus.AcceptsSubmit() {
			return nil, fmt.Errorf("%w: cannot submit claim %s in status %s", domainwf.ErrInvalidTransition, req.Claim.DraftID, req.Claim.RequestStatus)
		}
		return o.start(ctx, req)
	case domainwf.ActionCheck, domainwf.ActionReject, domainwf.ActionRetract, domainwf.ActionWithdraw, domainwf.ActionApprove:
		return o.step(ctx, req)
	default:
		return nil, port.NewInputError("ACTION", "action %s cannot be routed", req.Action)
	}
}

func (o *orchestratorImpl) AuthorizeEdit(ctx context.Context, req AdvanceRequest) error {
	claim := req.Claim
	if claim == nil {
		return fmt.Errorf("claim is required")
	}
	if claim.RequestStatus.IsTerminal() {
		return fmt.Errorf("%w: claim %s is %s and can no longer be edited", domainwf.ErrInvalidTransition, claim.DraftID, claim.RequestStatus)
	}
	if claim.RequestStatus.AcceptsSubmit() {
		return nil
	}

	task, err := o.ActiveTask(ctx, claim.DraftID)
	if err != nil {
		return fmt.Errorf("failed to load active task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("%w: claim %s in status %s has no active task", domainwf.ErrInvalidTransition, claim.DraftID, claim.RequestStatus)
	}
	// edits follow the assignee rules of the active task, never the
	// submitter shortcuts of RETRACT and WITHDRAW
	edit := req
	edit.Action = domainwf.ActionSave
	return o.authorize(ctx, edit, task)
}

func (o *orchestratorImpl) ActiveTask(ctx context.Context, draftID string) (*entity.TaskInstance, error) {
	proc, err := o.processRepo.GetActiveByReferenceID(ctx, draftID)
	if err != nil || proc == nil {
		return nil, err
	}
	return o.taskRepo.GetActiveByProcessID(ctx, proc.ProcessInstID)
}

// start opens a process for a submitted claim and creates its first task
func (o *orchestratorImpl) start(ctx context.Context, req AdvanceRequest) (*Outcome, error) {
	claim := req.Claim

	def, err := o.config.Process(ctx, claim.ClaimType)
	if err != nil {
		return nil, err
	}
	entry, err := o.config.Task(ctx, def.Code, claim.RequestorGroup, domainwf.SequenceInitial)
	if err != nil {
		return nil, err
	}
	tr, err := o.config.Next(ctx, domainwf.RuleKey{
		RequestorGroup:  claim.RequestorGroup,
		CurrentSequence: entry.Sequence,
		TargetSequence:  entry.NextSequence,
		ProcessCode:     def.Code,
	})
	if err != nil {
		return nil, err
	}

	out := &Outcome{PreviousStatus: claim.RequestStatus, Status: tr.ToBeStatus}
	if err := o.claimRepo.UpdateStatus(ctx, claim.DraftID, tr.ToBeStatus, req.Actor); err != nil {
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}

	id, err := o.sequence.Next(ctx, ProcessPattern, o.digits)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate process id: %w", err)
	}
	now := o.now()
	proc := &entity.ProcessInstance{
		ProcessInstID: id,
		ReferenceID:   claim.DraftID,
		ProcessCode:   def.Code,
		ProcessStatus: entity.ProcessStatusInProgress,
		CreatedBy:     req.Actor,
		CreatedOn:     now,
		ModifiedBy:    req.Actor,
		ModifiedOn:    now,
	}
	if err := o.processRepo.Create(ctx, proc); err != nil {
		return nil, fmt.Errorf("failed to create process instance: %w", err)
	}
	out.Process = proc

	if err := o.follow(ctx, req, proc, tr, out); err != nil {
		return nil, err
	}

	o.logger.Info("Process started",
		"draft_id", claim.DraftID,
		"process_inst_id", proc.ProcessInstID,
		"status", out.Status,
	)
	return out, nil
}

// step completes the active task and opens the next one or closes the process
func (o *orchestratorImpl) step(ctx context.Context, req AdvanceRequest) (*Outcome, error) {
	claim := req.Claim

	proc, err := o.processRepo.GetActiveByReferenceID(ctx, claim.DraftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load process instance: %w", err)
	}
	if proc == nil {
		return nil, fmt.Errorf("%w: claim %s has no active process", domainwf.ErrInvalidTransition, claim.DraftID)
	}
	task, err := o.taskRepo.GetActiveByProcessID(ctx, proc.ProcessInstID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: process %s has no active task", domainwf.ErrInvalidTransition, proc.ProcessInstID)
	}

	if err := o.authorize(ctx, req, task); err != nil {
		return nil, err
	}

	target, _ := req.Action.TargetSequence(task.ToBeTaskSequence)
	tr, err := o.config.Next(ctx, domainwf.RuleKey{
		RequestorGroup:  claim.RequestorGroup,
		CurrentSequence: task.TaskSequence,
		TargetSequence:  target,
		ProcessCode:     claim.ClaimType,
	})
	if err != nil {
		return nil, err
	}

	if err := o.taskRepo.Complete(ctx, task.TaskInstID, req.Actor); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	task.TaskStatus = entity.TaskStatusComplete
	task.ActionBy = req.Actor

	if err := o.claimRepo.UpdateStatus(ctx, claim.DraftID, tr.ToBeStatus, req.Actor); err != nil {
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}

	out := &Outcome{
		PreviousStatus: claim.RequestStatus,
		Status:         tr.ToBeStatus,
		Process:        proc,
		CompletedTask:  task,
	}
	if err := o.follow(ctx, req, proc, tr, out); err != nil {
		return nil, err
	}

	o.logger.Info("Task completed",
		"draft_id", claim.DraftID,
		"task_inst_id", task.TaskInstID,
		"action", req.Action.String(),
		"status", out.Status,
	)
	return out, nil
}

// follow applies a resolved transition: close the process when the new
// status ends it, otherwise open the configured task
func (o *orchestratorImpl) follow(ctx context.Context, req AdvanceRequest, proc *entity.ProcessInstance, tr *domainwf.Transition, out *Outcome) error {
	if tr.ToBeStatus.ClosesProcess() {
		if err := o.processRepo.UpdateStatus(ctx, proc.ProcessInstID, entity.ProcessStatusComplete, req.Actor); err != nil {
			return fmt.Errorf("failed to close process instance: %w", err)
		}
		proc.ProcessStatus = entity.ProcessStatusComplete
		out.ProcessClosed = true
		return nil
	}

	if tr.Task == nil {
		return fmt.Errorf("%w: status %s of %s/%s has no task definition", domainwf.ErrConfigGap, tr.ToBeStatus, req.Claim.ClaimType, req.Claim.RequestorGroup)
	}

	task, err := o.open(ctx, req, proc, tr.Task)
	if err != nil {
		return err
	}
	out.NextTask = task
	return nil
}

func (o *orchestratorImpl) open(ctx context.Context, req AdvanceRequest, proc *entity.ProcessInstance, def *domainwf.TaskDefinition) (*entity.TaskInstance, error) {
	assignee, err := o.resolveAssignee(ctx, req, def)
	if err != nil {
		return nil, err
	}

	id, err := o.sequence.Next(ctx, TaskPattern, o.digits)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate task id: %w", err)
	}
	now := o.now()
	task := &entity.TaskInstance{
		TaskInstID:        id,
		ProcessInstID:     proc.ProcessInstID,
		TaskSequence:      def.Sequence,
		ToBeTaskSequence:  def.NextSequence,
		TaskName:          def.Name,
		TaskAssignedGroup: def.AssignedGroup.String(),
		TaskAssignedTo:    assignee,
		TaskStatus:        entity.TaskStatusActive,
		CreatedOn:         now,
		ModifiedOn:        now,
	}
	if err := o.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task instance: %w", err)
	}
	return task, nil
}

// authorize checks the actor may take the action on the active task
func (o *orchestratorImpl) authorize(ctx context.Context, req AdvanceRequest, task *entity.TaskInstance) error {
	claim := req.Claim
	isSubmitter := claim.SubmittedBy != "" && claim.SubmittedBy == req.Actor

	switch req.Action {
	case domainwf.ActionRetract:
		if !isSubmitter {
			return &port.ForbiddenError{Actor: req.Actor, Reason: "only the submitter may retract claim " + claim.DraftID}
		}
		return nil
	case domainwf.ActionWithdraw:
		if isSubmitter {
			return nil
		}
	}

	if req.Role.Group().String() != task.TaskAssignedGroup {
		return &port.ForbiddenError{Actor: req.Actor, Reason: fmt.Sprintf("task %s belongs to %s", task.TaskInstID, task.TaskAssignedGroup)}
	}

	if !task.AssignedToGroup() {
		if task.TaskAssignedTo != req.Actor {
			return &port.ForbiddenError{Actor: req.Actor, Reason: fmt.Sprintf("task %s is assigned to %s", task.TaskInstID, task.TaskAssignedTo)}
		}
		return nil
	}

	member, err := o.matrix.IsMember(ctx, entity.MatrixScope{
		ULUCode:     claim.ULUCode,
		FDLUCode:    claim.FDLUCode,
		ProcessCode: claim.ClaimType,
		RoleGroup:   task.TaskAssignedGroup,
		AsOf:        o.now(),
	}, req.Actor)
	if err != nil {
		return fmt.Errorf("failed to check group membership: %w", err)
	}
	if !member {
		return &port.ForbiddenError{Actor: req.Actor, Reason: "not a member of " + task.TaskAssignedGroup}
	}
	return nil
}
