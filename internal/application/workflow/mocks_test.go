package workflow

import (
	"context"
	"fmt"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/claims-workflow/internal/domain/workflow"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockClaimRepo struct {
	statuses        map[string]domainwf.State
	updateStatusErr error
}

func (m *mockClaimRepo) GetByDraftID(ctx context.Context, draftID string) (*entity.ClaimRequest, error) {
	return nil, nil
}

func (m *mockClaimRepo) Upsert(ctx context.Context, claim *entity.ClaimRequest) error { return nil }

func (m *mockClaimRepo) UpdateStatus(ctx context.Context, draftID string, status domainwf.State, modifiedBy string) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	if m.statuses == nil {
		m.statuses = make(map[string]domainwf.State)
	}
	m.statuses[draftID] = status
	return nil
}

func (m *mockClaimRepo) SoftDelete(ctx context.Context, draftID, modifiedBy string) error { return nil }

func (m *mockClaimRepo) CountActiveForMonth(ctx context.Context, q port.MonthlyClaimQuery) (int, error) {
	return 0, nil
}

func (m *mockClaimRepo) CountBackdatedSubmissions(ctx context.Context, q port.BackdateQuery) (int, error) {
	return 0, nil
}

type memProcessRepo struct {
	rows []*entity.ProcessInstance
}

func (m *memProcessRepo) Create(ctx context.Context, p *entity.ProcessInstance) error {
	cp := *p
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memProcessRepo) GetActiveByReferenceID(ctx context.Context, referenceID string) (*entity.ProcessInstance, error) {
	for _, p := range m.rows {
		if p.ReferenceID == referenceID && p.ProcessStatus == entity.ProcessStatusInProgress && !p.IsDeleted {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memProcessRepo) UpdateStatus(ctx context.Context, processInstID, status, modifiedBy string) error {
	for _, p := range m.rows {
		if p.ProcessInstID == processInstID {
			p.ProcessStatus = status
			return nil
		}
	}
	return fmt.Errorf("process %s not found", processInstID)
}

func (m *memProcessRepo) SoftDeleteByReferenceID(ctx context.Context, referenceID string) error {
	return nil
}

type memTaskRepo struct {
	rows []*entity.TaskInstance
}

func (m *memTaskRepo) Create(ctx context.Context, t *entity.TaskInstance) error {
	cp := *t
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memTaskRepo) GetActiveByProcessID(ctx context.Context, processInstID string) (*entity.TaskInstance, error) {
	for _, t := range m.rows {
		if t.ProcessInstID == processInstID && t.TaskStatus == entity.TaskStatusActive {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memTaskRepo) Complete(ctx context.Context, taskInstID, actionBy string) error {
	for _, t := range m.rows {
		if t.TaskInstID == taskInstID {
			t.TaskStatus = entity.TaskStatusComplete
			t.ActionBy = actionBy
			return nil
		}
	}
	return fmt.Errorf("task %s not found", taskInstID)
}

func (m *memTaskRepo) SoftDeleteByReferenceID(ctx context.Context, referenceID string) error {
	return nil
}

func (m *memTaskRepo) active() []*entity.TaskInstance {
	var out []*entity.TaskInstance
	for _, t := range m.rows {
		if t.TaskStatus == entity.TaskStatusActive {
			out = append(out, t)
		}
	}
	return out
}

type mockStaffDirectory struct {
	staff map[string]*entity.StaffRecord
}

func (m *mockStaffDirectory) GetStaff(ctx context.Context, staffID string) (*entity.StaffRecord, error) {
	return m.staff[staffID], nil
}

func (m *mockStaffDirectory) HasActiveAppointment(ctx context.Context, q entity.EligibilityQuery) (bool, error) {
	return true, nil
}

func (m *mockStaffDirectory) HasHourlyEngagement(ctx context.Context, q entity.EligibilityQuery) (bool, error) {
	return true, nil
}

type mockMatrix struct {
	members map[string][]string
}

func (m *mockMatrix) ListMembers(ctx context.Context, scope entity.MatrixScope) ([]string, error) {
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
	n int
}

func (s *counterSequence) Next(ctx context.Context, pattern string, digits int) (string, error) {
	s.n++
	return fmt.Sprintf("%s%0*d", pattern, digits, s.n), nil
}
