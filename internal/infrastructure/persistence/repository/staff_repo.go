package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// StaffRepository implements port.StaffDirectory on replicated HR tables
type StaffRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStaffRepository creates a new staff directory
func NewStaffRepository(db *sql.DB, logger *zap.Logger) port.StaffDirectory {
	return &StaffRepository{
		db:     db,
		logger: logger,
	}
}

// GetStaff returns a staff record, nil when unknown
func (r *StaffRepository) GetStaff(ctx context.Context, staffID string) (*entity.StaffRecord, error) {
	query := `
		SELECT staff_id, user_id, name, email, is_active, reporting_manager_id
		FROM staff WHERE staff_id = ?
	`

	var s entity.StaffRecord
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, staffID).Scan(
		&s.StaffID, &s.UserID, &s.Name, &s.Email, &s.IsActive, &s.ReportingManagerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get staff", zap.String("staff_id", staffID), zap.Error(err))
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return &s, nil
}

// HasActiveAppointment reports whether one appointment covers the whole range
func (r *StaffRepository) HasActiveAppointment(ctx context.Context, q entity.EligibilityQuery) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE staff_id = ? AND ulu_code = ? AND fdlu_code = ?
				AND valid_from <= ? AND valid_to >= ?
		)
	`
	return r.exists(ctx, "appointment", query, q.StaffID, q.ULUCode, q.FDLUCode, formatDate(q.From), formatDate(q.To))
}

// HasHourlyEngagement reports whether one hourly engagement for the claim type
// covers the whole range
func (r *StaffRepository) HasHourlyEngagement(ctx context.Context, q entity.EligibilityQuery) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM hourly_engagement
			WHERE staff_id = ? AND ulu_code = ? AND fdlu_code = ? AND claim_type = ?
				AND valid_from <= ? AND valid_to >= ?
		)
	`
	return r.exists(ctx, "hourly engagement", query, q.StaffID, q.ULUCode, q.FDLUCode, q.ClaimType, formatDate(q.From), formatDate(q.To))
}

func (r *StaffRepository) exists(ctx context.Context, what, query string, args ...interface{}) (bool, error) {
	var ok bool
	if err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		r.logger.Error("Failed to check "+what, zap.Error(err))
		return false, fmt.Errorf("failed to check %s: %w", what, err)
	}
	return ok, nil
}

// Verify interface compliance
var _ port.StaffDirectory = (*StaffRepository)(nil)
