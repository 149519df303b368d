package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/claims-workflow/internal/application/port"
	appwf "github.com/garyjia/claims-workflow/internal/application/workflow"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// memLockRepo keeps lock rows in memory
type memLockRepo struct {
	mu        sync.Mutex
	rows      []*entity.RequestLock
	createErr error
}

func (m *memLockRepo) ListByReferenceID(ctx context.Context, referenceID string) ([]*entity.RequestLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.RequestLock
	for _, r := range m.rows {
		if r.ReferenceID == referenceID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLockRepo) Create(ctx context.Context, lock *entity.RequestLock) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *lock
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memLockRepo) UpdateByReferenceID(ctx context.Context, referenceID, lockedBy, isLocked, intent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ReferenceID == referenceID {
			r.LockedByUserID = lockedBy
			r.IsLocked = isLocked
			r.RequestStatus = intent
		}
	}
	return nil
}

func (m *memLockRepo) DeleteByReferenceID(ctx context.Context, referenceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.ReferenceID != referenceID {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

type mockMatrix struct {
	members         map[string][]string
	listMembersFunc func(ctx context.Context, scope entity.MatrixScope) ([]string, error)
}

func (m *mockMatrix) ListMembers(ctx context.Context, scope entity.MatrixScope) ([]string, error) {
	if m.listMembersFunc != nil {
		return m.listMembersFunc(ctx, scope)
	}
	return m.members[scope.RoleGroup], nil
}

func (m *mockMatrix) IsMember(ctx context.Context, scope entity.MatrixScope, userID string) (bool, error) {
	for _, u := range m.members[scope.RoleGroup] {
		if u == userID {
			return true, nil
		}
	}
	return false, nil
}

type counterSequence struct {
	mu sync.Mutex
	n  map[string]int
}

func (s *counterSequence) Next(ctx context.Context, pattern string, digits int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.n == nil {
		s.n = make(map[string]int)
	}
	s.n[pattern]++
	return fmt.Sprintf("%s%0*d", pattern, digits, s.n[pattern]), nil
}

type mockClaimRepo struct {
	claims      map[string]*entity.ClaimRequest
	upsertFunc  func(ctx context.Context, claim *entity.ClaimRequest) error
	softDeleted []string
}

func newMockClaimRepo() *mockClaimRepo {
	return &mockClaimRepo{claims: make(map[string]*entity.ClaimRequest)}
}

func (m *mockClaimRepo) GetByDraftID(ctx context.Context, draftID string) (*entity.ClaimRequest, error) {
	c, ok := m.claims[draftID]
	if !ok || c.IsDeleted {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockClaimRepo) Upsert(ctx context.Context, claim *entity.ClaimRequest) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, claim)
	}
	cp := *claim
	m.claims[claim.DraftID] = &cp
	return nil
}

func (m *mockClaimRepo) UpdateStatus(ctx context.Context, draftID string, status workflow.State, modifiedBy string) error {
	if c, ok := m.claims[draftID]; ok {
		c.RequestStatus = status
	}
	return nil
}

func (m *mockClaimRepo) SoftDelete(ctx context.Context, draftID, modifiedBy string) error {
	m.softDeleted = append(m.softDeleted, draftID)
	if c, ok := m.claims[draftID]; ok {
		c.IsDeleted = true
	}
	return nil
}

func (m *mockClaimRepo) CountActiveForMonth(ctx context.Context, q port.MonthlyClaimQuery) (int, error) {
	return 0, nil
}

func (m *mockClaimRepo) CountBackdatedSubmissions(ctx context.Context, q port.BackdateQuery) (int, error) {
	return 0, nil
}

type mockItemRepo struct {
	items   map[string][]*entity.ClaimItem
	deleted []string
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[string][]*entity.ClaimItem)}
}

func (m *mockItemRepo) ListActiveByDraftID(ctx context.Context, draftID string) ([]*entity.ClaimItem, error) {
	return m.items[draftID], nil
}

func (m *mockItemRepo) Upsert(ctx context.Context, item *entity.ClaimItem) error {
	m.items[item.DraftID] = append(m.items[item.DraftID], item)
	return nil
}

func (m *mockItemRepo) SoftDeleteByDraftID(ctx context.Context, draftID string) error {
	m.deleted = append(m.deleted, draftID)
	delete(m.items, draftID)
	return nil
}

func (m *mockItemRepo) FindIntersecting(ctx context.Context, q port.HistoryQuery) ([]*entity.PersistedItem, error) {
	return nil, nil
}

type mockParticipantRepo struct {
	rows map[string][]*entity.ClaimParticipant
}

func newMockParticipantRepo() *mockParticipantRepo {
	return &mockParticipantRepo{rows: make(map[string][]*entity.ClaimParticipant)}
}

func (m *mockParticipantRepo) ListActiveByDraftID(ctx context.Context, draftID string) ([]*entity.ClaimParticipant, error) {
	return m.rows[draftID], nil
}

func (m *mockParticipantRepo) Create(ctx context.Context, p *entity.ClaimParticipant) error {
	m.rows[p.DraftID] = append(m.rows[p.DraftID], p)
	return nil
}

func (m *mockParticipantRepo) SoftDeleteByDraftID(ctx context.Context, draftID string) error {
	delete(m.rows, draftID)
	return nil
}

type mockProcessRepo struct {
	softDeleted []string
}

func (m *mockProcessRepo) Create(ctx context.Context, p *entity.ProcessInstance) error { return nil }

func (m *mockProcessRepo) GetActiveByReferenceID(ctx context.Context, referenceID string) (*entity.ProcessInstance, error) {
	return nil, nil
}

func (m *mockProcessRepo) UpdateStatus(ctx context.Context, processInstID, status, modifiedBy string) error {
	return nil
}

func (m *mockProcessRepo) SoftDeleteByReferenceID(ctx context.Context, referenceID string) error {
	m.softDeleted = append(m.softDeleted, referenceID)
	return nil
}

type mockTaskRepo struct {
	softDeleted []string
}

func (m *mockTaskRepo) Create(ctx context.Context, t *entity.TaskInstance) error { return nil }

func (m *mockTaskRepo) GetActiveByProcessID(ctx context.Context, processInstID string) (*entity.TaskInstance, error) {
	return nil, nil
}

func (m *mockTaskRepo) Complete(ctx context.Context, taskInstID, actionBy string) error { return nil }

func (m *mockTaskRepo) SoftDeleteByReferenceID(ctx context.Context, referenceID string) error {
	m.softDeleted = append(m.softDeleted, referenceID)
	return nil
}

type mockValidator struct {
	validateFunc func(ctx context.Context, batch []entity.ClaimSubmission, role workflow.Role, group workflow.Group, actor string) ([]entity.ValidationResult, error)
}

func (m *mockValidator) Validate(ctx context.Context, batch []entity.ClaimSubmission, role workflow.Role, group workflow.Group, actor string) ([]entity.ValidationResult, error) {
	if m.validateFunc != nil {
		return m.validateFunc(ctx, batch, role, group, actor)
	}
	return nil, nil
}

type mockOrchestrator struct {
	advanceFunc       func(ctx context.Context, req appwf.AdvanceRequest) (*appwf.Outcome, error)
	authorizeEditFunc func(ctx context.Context, req appwf.AdvanceRequest) error
	activeTaskFunc    func(ctx context.Context, draftID string) (*entity.TaskInstance, error)
	requests          []appwf.AdvanceRequest
}

func (m *mockOrchestrator) Advance(ctx context.Context, req appwf.AdvanceRequest) (*appwf.Outcome, error) {
	m.requests = append(m.requests, req)
	if m.advanceFunc != nil {
		return m.advanceFunc(ctx, req)
	}
	return &appwf.Outcome{PreviousStatus: req.Claim.RequestStatus, Status: req.Claim.RequestStatus}, nil
}

func (m *mockOrchestrator) AuthorizeEdit(ctx context.Context, req appwf.AdvanceRequest) error {
	if m.authorizeEditFunc != nil {
		return m.authorizeEditFunc(ctx, req)
	}
	return nil
}

func (m *mockOrchestrator) ActiveTask(ctx context.Context, draftID string) (*entity.TaskInstance, error) {
	if m.activeTaskFunc != nil {
		return m.activeTaskFunc(ctx, draftID)
	}
	return nil, nil
}

type mockNotifier struct {
	mu      sync.Mutex
	sent    []port.Notification
	sendErr error
}

func (m *mockNotifier) Send(ctx context.Context, n port.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, n)
	return nil
}

type mockStaffDirectory struct {
	staff map[string]*entity.StaffRecord
	err   error
}

func (m *mockStaffDirectory) GetStaff(ctx context.Context, staffID string) (*entity.StaffRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.staff[staffID], nil
}

func (m *mockStaffDirectory) HasActiveAppointment(ctx context.Context, q entity.EligibilityQuery) (bool, error) {
	return true, nil
}

func (m *mockStaffDirectory) HasHourlyEngagement(ctx context.Context, q entity.EligibilityQuery) (bool, error) {
	return true, nil
}
