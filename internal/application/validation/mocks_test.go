package validation

import (
	"context"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

type mockClaimRepo struct {
	countActiveFunc    func(ctx context.Context, q port.MonthlyClaimQuery) (int, error)
	countBackdatedFunc func(ctx context.Context, q port.BackdateQuery) (int, error)
}

func (m *mockClaimRepo) GetByDraftID(ctx context.Context, draftID string) (*entity.ClaimRequest, error) {
	return nil, nil
}

func (m *mockClaimRepo) Upsert(ctx context.Context, claim *entity.ClaimRequest) error { return nil }

func (m *mockClaimRepo) UpdateStatus(ctx context.Context, draftID string, status workflow.State, modifiedBy string) error {
	return nil
}

func (m *mockClaimRepo) SoftDelete(ctx context.Context, draftID, modifiedBy string) error { return nil }

func (m *mockClaimRepo) CountActiveForMonth(ctx context.Context, q port.MonthlyClaimQuery) (int, error) {
	if m.countActiveFunc != nil {
		return m.countActiveFunc(ctx, q)
	}
	return 0, nil
}

func (m *mockClaimRepo) CountBackdatedSubmissions(ctx context.Context, q port.BackdateQuery) (int, error) {
	if m.countBackdatedFunc != nil {
		return m.countBackdatedFunc(ctx, q)
	}
	return 0, nil
}

type mockItemRepo struct {
	findIntersectingFunc func(ctx context.Context, q port.HistoryQuery) ([]*entity.PersistedItem, error)
}

func (m *mockItemRepo) ListActiveByDraftID(ctx context.Context, draftID string) ([]*entity.ClaimItem, error) {
	return nil, nil
}

func (m *mockItemRepo) Upsert(ctx context.Context, item *entity.ClaimItem) error { return nil }

func (m *mockItemRepo) SoftDeleteByDraftID(ctx context.Context, draftID string) error { return nil }

func (m *mockItemRepo) FindIntersecting(ctx context.Context, q port.HistoryQuery) ([]*entity.PersistedItem, error) {
	if m.findIntersectingFunc != nil {
		return m.findIntersectingFunc(ctx, q)
	}
	return nil, nil
}

type mockStaffDirectory struct {
	staff          map[string]*entity.StaffRecord
	appointmentFn  func(ctx context.Context, q entity.EligibilityQuery) (bool, error)
	engagementFn   func(ctx context.Context, q entity.EligibilityQuery) (bool, error)
	appointmentHit int
	engagementHit  int
}

func (m *mockStaffDirectory) GetStaff(ctx context.Context, staffID string) (*entity.StaffRecord, error) {
	return m.staff[staffID], nil
}

func (m *mockStaffDirectory) HasActiveAppointment(ctx context.Context, q entity.EligibilityQuery) (bool, error) {
	m.appointmentHit++
	if m.appointmentFn != nil {
		return m.appointmentFn(ctx, q)
	}
	return true, nil
}

func (m *mockStaffDirectory) HasHourlyEngagement(ctx context.Context, q entity.EligibilityQuery) (bool, error) {
	m.engagementHit++
	if m.engagementFn != nil {
		return m.engagementFn(ctx, q)
	}
	return true, nil
}

func defaultStaff() *mockStaffDirectory {
	return &mockStaffDirectory{
		staff: map[string]*entity.StaffRecord{
			"S1": {StaffID: "S1", UserID: "u-1", IsActive: true, ReportingManagerID: "M1"},
			"M1": {StaffID: "M1", UserID: "u-m1", IsActive: true},
		},
	}
}
