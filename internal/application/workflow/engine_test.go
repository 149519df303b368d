package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/claims-workflow/internal/domain/workflow"
)

func testTable(t *testing.T) *domainwf.Table {
	t.Helper()
	claimant := domainwf.GroupClaimant
	table, err := domainwf.NewBuilder().
		Process(domainwf.ProcessDefinition{Code: "HON", Name: "Honorarium", Active: true}).
		Process(domainwf.ProcessDefinition{Code: "CMP", Name: "Compensation", Active: true}).
		Task(domainwf.TaskDefinition{ProcessCode: "HON", RequestorGroup: claimant, Sequence: 0, Name: "Submit", AssignedGroup: claimant, NextSequence: 1}).
		Task(domainwf.TaskDefinition{ProcessCode: "HON", RequestorGroup: claimant, Sequence: 1, Name: "Verify", AssignedGroup: domainwf.GroupVerifier, NextSequence: 2}).
		Task(domainwf.TaskDefinition{ProcessCode: "HON", RequestorGroup: claimant, Sequence: 2, Name: "Approve", AssignedGroup: domainwf.GroupApprover, NextSequence: 3}).
		Rule(domainwf.RuleKey{RequestorGroup: claimant, CurrentSequence: 0, TargetSequence: 1, ProcessCode: "HON"}, domainwf.StatePendingVerifier).
		Rule(domainwf.RuleKey{RequestorGroup: claimant, CurrentSequence: 1, TargetSequence: 2, ProcessCode: "HON"}, domainwf.StatePendingApprover).
		Rule(domainwf.RuleKey{RequestorGroup: claimant, CurrentSequence: 2, TargetSequence: 3, ProcessCode: "HON"}, domainwf.StateApproved).
		Rule(domainwf.RuleKey{RequestorGroup: claimant, CurrentSequence: 1, TargetSequence: domainwf.SequenceRejected, ProcessCode: "HON"}, domainwf.StateRejectedClaimant).
		Rule(domainwf.RuleKey{RequestorGroup: claimant, CurrentSequence: 1, TargetSequence: domainwf.SequenceRetracted, ProcessCode: "HON"}, domainwf.StateRetractedClaimant).
		Rule(domainwf.RuleKey{RequestorGroup: claimant, CurrentSequence: 2, TargetSequence: domainwf.SequenceWithdrawn, ProcessCode: "HON"}, domainwf.StateWithdrawnAdmin).
		Rule(domainwf.RuleKey{RequestorGroup: claimant, CurrentSequence: 2, TargetSequence: domainwf.SequenceRejected, ProcessCode: "HON"}, domainwf.StatePendingVerifier).
		Task(domainwf.TaskDefinition{ProcessCode: "CMP", RequestorGroup: claimant, Sequence: 0, Name: "Submit", AssignedGroup: claimant, NextSequence: 1}).
		Task(domainwf.TaskDefinition{ProcessCode: "CMP", RequestorGroup: claimant, Sequence: 1, Name: "Manager review", AssignedGroup: domainwf.GroupReportingManager, NextSequence: 2}).
		Rule(domainwf.RuleKey{RequestorGroup: claimant, CurrentSequence: 0, TargetSequence: 1, ProcessCode: "CMP"}, domainwf.StatePendingApprover).
		Rule(domainwf.RuleKey{RequestorGroup: claimant, CurrentSequence: 1, TargetSequence: 2, ProcessCode: "CMP"}, domainwf.StateApproved).
		Build()
	require.NoError(t, err)
	return table
}

type harness struct {
	claims    *mockClaimRepo
	processes *memProcessRepo
	tasks     *memTaskRepo
	staff     *mockStaffDirectory
	matrix    *mockMatrix
	orch      Orchestrator
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		claims:    &mockClaimRepo{},
		processes: &memProcessRepo{},
		tasks:     &memTaskRepo{},
		staff: &mockStaffDirectory{staff: map[string]*entity.StaffRecord{
			"S1": {StaffID: "S1", UserID: "u-1", IsActive: true, ReportingManagerID: "M1"},
			"M1": {StaffID: "M1", UserID: "u-m1", IsActive: false, ReportingManagerID: "M2"},
			"M2": {StaffID: "M2", UserID: "u-m2", IsActive: true},
		}},
		matrix: &mockMatrix{members: map[string][]string{
			"VERIFIER": {"u-v1", "u-v2"},
			"APPROVER": {"u-a1"},
		}},
	}
	h.orch = NewOrchestrator(testTable(t), h.claims, h.processes, h.tasks, h.staff, h.matrix, &counterSequence{}, &mockLogger{},
		WithIDDigits(4),
		WithClock(func() time.Time { return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC) }),
	)
	return h
}

func honClaim() *entity.ClaimRequest {
	return &entity.ClaimRequest{
		DraftID:        "D1",
		ClaimType:      "HON",
		StaffID:        "S1",
		ULUCode:        "U1",
		FDLUCode:       "F1",
		RequestStatus:  domainwf.StateDraft,
		RequestorGroup: domainwf.GroupClaimant,
		SubmittedBy:    "u-1",
	}
}

func (h *harness) submit(t *testing.T, claim *entity.ClaimRequest, nominations map[string][]string) *Outcome {
	t.Helper()
	out, err := h.orch.Advance(context.Background(), AdvanceRequest{
		Claim: claim, Action: domainwf.ActionSubmit, Role: domainwf.RoleClaimant, Actor: "u-1", Nominations: nominations,
	})
	require.NoError(t, err)
	claim.RequestStatus = out.Status
	return out
}

func TestAdvance_SaveIsNoop(t *testing.T) {
	h := newHarness(t)
	out, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: honClaim(), Action: domainwf.ActionSave, Actor: "u-1"})
	require.NoError(t, err)
	assert.False(t, out.Changed())
	assert.Empty(t, h.processes.rows)
	assert.Empty(t, h.claims.statuses)
}

func TestAuthorizeEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("open positions", func(t *testing.T) {
		for _, status := range []domainwf.State{domainwf.StateDraft, domainwf.StateRetractedClaimant} {
			claim := honClaim()
			claim.RequestStatus = status
			err := newHarness(t).orch.AuthorizeEdit(ctx, AdvanceRequest{Claim: claim, Role: domainwf.RoleClaimant, Actor: "u-1"})
			assert.NoError(t, err, status)
		}
	})

	t.Run("terminal claims are immutable", func(t *testing.T) {
		for _, status := range []domainwf.State{domainwf.StateApproved, domainwf.StateRejectedClaimant, domainwf.StateWithdrawnAdmin} {
			claim := honClaim()
			claim.RequestStatus = status
			err := newHarness(t).orch.AuthorizeEdit(ctx, AdvanceRequest{Claim: claim, Role: domainwf.RoleClaimant, Actor: "u-1"})
			assert.ErrorIs(t, err, domainwf.ErrInvalidTransition, status)
		}
	})

	t.Run("pending claim follows the active task", func(t *testing.T) {
		h := newHarness(t)
		claim := honClaim()
		h.submit(t, claim, nil)

		err := h.orch.AuthorizeEdit(ctx, AdvanceRequest{Claim: claim, Role: domainwf.RoleClaimant, Actor: "u-1"})
		var forbidden *port.ForbiddenError
		assert.ErrorAs(t, err, &forbidden, "the submitter cannot edit a claim pending the verifier")

		err = h.orch.AuthorizeEdit(ctx, AdvanceRequest{Claim: claim, Role: domainwf.RoleVerifier, Actor: "u-stranger"})
		assert.ErrorAs(t, err, &forbidden)

		assert.NoError(t, h.orch.AuthorizeEdit(ctx, AdvanceRequest{Claim: claim, Role: domainwf.RoleVerifier, Actor: "u-v1"}))
		assert.Len(t, h.tasks.active(), 1)
	})

	t.Run("pending claim without a process", func(t *testing.T) {
		claim := honClaim()
		claim.RequestStatus = domainwf.StatePendingVerifier
		err := newHarness(t).orch.AuthorizeEdit(ctx, AdvanceRequest{Claim: claim, Role: domainwf.RoleVerifier, Actor: "u-v1"})
		assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)
	})
}

func TestAdvance_SubmitStartsProcess(t *testing.T) {
	h := newHarness(t)
	claim := honClaim()
	out := h.submit(t, claim, nil)

	assert.Equal(t, domainwf.StatePendingVerifier, out.Status)
	assert.Equal(t, domainwf.StatePendingVerifier, h.claims.statuses["D1"])
	require.Len(t, h.processes.rows, 1)
	assert.Equal(t, entity.ProcessStatusInProgress, h.processes.rows[0].ProcessStatus)
	assert.Equal(t, "PR0001", h.processes.rows[0].ProcessInstID)

	active := h.tasks.active()
	require.Len(t, active, 1)
	assert.Equal(t, 1, active[0].TaskSequence)
	assert.Equal(t, 2, active[0].ToBeTaskSequence)
	assert.Equal(t, "VERIFIER", active[0].TaskAssignedGroup)
	assert.Equal(t, entity.AssigneeAll, active[0].TaskAssignedTo)
	assert.Equal(t, out.NextTask.TaskInstID, active[0].TaskInstID)
}

func TestAdvance_SubmitRoutesToNominee(t *testing.T) {
	h := newHarness(t)
	h.submit(t, honClaim(), map[string][]string{entity.ParticipantVerifier: {"u-v2"}})

	active := h.tasks.active()
	require.Len(t, active, 1)
	assert.Equal(t, "u-v2", active[0].TaskAssignedTo)
}

func TestAdvance_FullChain(t *testing.T) {
	h := newHarness(t)
	claim := honClaim()
	h.submit(t, claim, nil)
	ctx := context.Background()

	out, err := h.orch.Advance(ctx, AdvanceRequest{Claim: claim, Action: domainwf.ActionCheck, Role: domainwf.RoleVerifier, Actor: "u-v1"})
	require.NoError(t, err)
	assert.Equal(t, domainwf.StatePendingApprover, out.Status)
	assert.Equal(t, "u-v1", out.CompletedTask.ActionBy)
	require.NotNil(t, out.NextTask)
	assert.Equal(t, "APPROVER", out.NextTask.TaskAssignedGroup)
	claim.RequestStatus = out.Status

	out, err = h.orch.Advance(ctx, AdvanceRequest{Claim: claim, Action: domainwf.ActionApprove, Role: domainwf.RoleApprover, Actor: "u-a1"})
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateApproved, out.Status)
	assert.True(t, out.ProcessClosed)
	assert.Nil(t, out.NextTask)
	assert.Equal(t, entity.ProcessStatusComplete, h.processes.rows[0].ProcessStatus)
	assert.Empty(t, h.tasks.active())
	assert.Len(t, h.tasks.rows, 2)
}

func TestAdvance_Authorization(t *testing.T) {
	tests := []struct {
		name   string
		action domainwf.Action
		role   domainwf.Role
		actor  string
	}{
		{"wrong group", domainwf.ActionCheck, domainwf.RoleApprover, "u-a1"},
		{"not a matrix member", domainwf.ActionCheck, domainwf.RoleVerifier, "u-stranger"},
		{"retract by non submitter", domainwf.ActionRetract, domainwf.RoleVerifier, "u-v1"},
		{"unknown role", domainwf.ActionCheck, domainwf.RoleUnknown, "u-v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			claim := honClaim()
			h.submit(t, claim, nil)

			_, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: tt.action, Role: tt.role, Actor: tt.actor})
			var forbidden *port.ForbiddenError
			assert.ErrorAs(t, err, &forbidden)
			assert.Len(t, h.tasks.active(), 1)
		})
	}
}

func TestAdvance_NomineeOnly(t *testing.T) {
	h := newHarness(t)
	claim := honClaim()
	h.submit(t, claim, map[string][]string{entity.ParticipantVerifier: {"u-v2"}})

	_, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionCheck, Role: domainwf.RoleVerifier, Actor: "u-v1"})
	var forbidden *port.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	_, err = h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionCheck, Role: domainwf.RoleVerifier, Actor: "u-v2"})
	assert.NoError(t, err)
}

func TestAdvance_RejectClosesProcess(t *testing.T) {
	h := newHarness(t)
	claim := honClaim()
	h.submit(t, claim, nil)

	out, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionReject, Role: domainwf.RoleVerifier, Actor: "u-v1"})
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateRejectedClaimant, out.Status)
	assert.True(t, out.ProcessClosed)
	assert.Empty(t, h.tasks.active())
}

func TestAdvance_RetractAndResubmit(t *testing.T) {
	h := newHarness(t)
	claim := honClaim()
	h.submit(t, claim, nil)

	out, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionRetract, Role: domainwf.RoleClaimant, Actor: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateRetractedClaimant, out.Status)
	assert.True(t, out.ProcessClosed)
	claim.RequestStatus = out.Status

	out = h.submit(t, claim, nil)
	assert.Equal(t, domainwf.StatePendingVerifier, out.Status)
	assert.Len(t, h.processes.rows, 2)
	assert.Len(t, h.tasks.active(), 1)
}

func TestAdvance_WithdrawBySubmitter(t *testing.T) {
	h := newHarness(t)
	claim := honClaim()
	h.submit(t, claim, nil)
	out, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionCheck, Role: domainwf.RoleVerifier, Actor: "u-v1"})
	require.NoError(t, err)
	claim.RequestStatus = out.Status

	out, err = h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionWithdraw, Role: domainwf.RoleClaimant, Actor: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateWithdrawnAdmin, out.Status)
	assert.True(t, out.ProcessClosed)
}

func TestAdvance_OpenStatusWithoutTask(t *testing.T) {
	h := newHarness(t)
	claim := honClaim()
	h.submit(t, claim, nil)
	out, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionCheck, Role: domainwf.RoleVerifier, Actor: "u-v1"})
	require.NoError(t, err)
	claim.RequestStatus = out.Status

	// the approver reject rule yields a pending status but no task exists at 900
	_, err = h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionReject, Role: domainwf.RoleApprover, Actor: "u-a1"})
	assert.ErrorIs(t, err, domainwf.ErrConfigGap)
}

func TestAdvance_ConfigGaps(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *entity.ClaimRequest)
	}{
		{"unknown process", func(c *entity.ClaimRequest) { c.ClaimType = "XYZ" }},
		{"unseeded requestor group", func(c *entity.ClaimRequest) { c.RequestorGroup = domainwf.GroupClaimAssistant }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			claim := honClaim()
			tt.modify(claim)
			_, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionSubmit, Role: domainwf.RoleClaimant, Actor: "u-1"})
			assert.ErrorIs(t, err, domainwf.ErrConfigGap)
			assert.Empty(t, h.processes.rows)
			assert.Empty(t, h.tasks.rows)
			assert.Empty(t, h.claims.statuses)
		})
	}

	h := newHarness(t)
	claim := honClaim()
	h.submit(t, claim, nil)
	_, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionWithdraw, Role: domainwf.RoleVerifier, Actor: "u-v1"})
	assert.ErrorIs(t, err, domainwf.ErrRuleNotFound)
	assert.Len(t, h.tasks.active(), 1)
}

func TestAdvance_InvalidPositions(t *testing.T) {
	h := newHarness(t)
	claim := honClaim()

	_, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionCheck, Role: domainwf.RoleVerifier, Actor: "u-v1"})
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)

	h.submit(t, claim, nil)
	_, err = h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionSubmit, Role: domainwf.RoleClaimant, Actor: "u-1"})
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)

	_, err = h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionUnknown, Actor: "u-1"})
	var inputErr *port.InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestAdvance_ReportingManagerChain(t *testing.T) {
	h := newHarness(t)
	claim := honClaim()
	claim.ClaimType = "CMP"
	h.submit(t, claim, nil)

	active := h.tasks.active()
	require.Len(t, active, 1)
	assert.Equal(t, "REPORTING_MANAGER", active[0].TaskAssignedGroup)
	assert.Equal(t, "u-m2", active[0].TaskAssignedTo, "inactive direct manager is skipped")

	out, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionApprove, Role: domainwf.RoleReportingManager, Actor: "u-m2"})
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateApproved, out.Status)
}

func TestReportingManager_Cycle(t *testing.T) {
	h := newHarness(t)
	h.staff.staff["M2"].IsActive = false
	h.staff.staff["M2"].ReportingManagerID = "M1"

	claim := honClaim()
	claim.ClaimType = "CMP"
	_, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: claim, Action: domainwf.ActionSubmit, Role: domainwf.RoleClaimant, Actor: "u-1"})
	assert.ErrorIs(t, err, domainwf.ErrConfigGap)
}

func TestAdvance_PersistenceErrorAborts(t *testing.T) {
	h := newHarness(t)
	h.claims.updateStatusErr = errors.New("disk full")
	_, err := h.orch.Advance(context.Background(), AdvanceRequest{Claim: honClaim(), Action: domainwf.ActionSubmit, Role: domainwf.RoleClaimant, Actor: "u-1"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domainwf.ErrConfigGap)
	assert.Empty(t, h.processes.rows)
}

func TestActiveTask(t *testing.T) {
	h := newHarness(t)
	task, err := h.orch.ActiveTask(context.Background(), "D1")
	require.NoError(t, err)
	assert.Nil(t, task)

	h.submit(t, honClaim(), nil)
	task, err = h.orch.ActiveTask(context.Background(), "D1")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, 1, task.TaskSequence)
}
