package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
	"github.com/garyjia/claims-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ClaimRepository implements port.ClaimRepository
type ClaimRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim header repository
func NewClaimRepository(db *sql.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

const claimColumns = `
	draft_id, request_id, claim_type, claim_request_type, claim_month,
	staff_id, ulu_code, fdlu_code, request_status, requestor_group,
	submitted_by, submitted_on, modified_by, modified_on, created_on, is_deleted`

// GetByDraftID retrieves a live claim header
func (r *ClaimRepository) GetByDraftID(ctx context.Context, draftID string) (*entity.ClaimRequest, error) {
	query := `SELECT ` + claimColumns + ` FROM claim_request WHERE draft_id = ? AND is_deleted = 0`

	var (
		c           entity.ClaimRequest
		requestID   sql.NullString
		submittedOn sql.NullTime
		status      string
		group       string
	)
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, draftID).Scan(
		&c.DraftID,
		&requestID,
		&c.ClaimType,
		&c.ClaimRequestType,
		&c.ClaimMonth,
		&c.StaffID,
		&c.ULUCode,
		&c.FDLUCode,
		&status,
		&group,
		&c.SubmittedBy,
		&submittedOn,
		&c.ModifiedBy,
		&c.ModifiedOn,
		&c.CreatedOn,
		&c.IsDeleted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim", zap.String("draft_id", draftID), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	c.RequestID = requestID.String
	c.RequestStatus = workflow.State(status)
	c.RequestorGroup = workflow.Group(group)
	if submittedOn.Valid {
		t := submittedOn.Time
		c.SubmittedOn = &t
	}
	return &c, nil
}

// Upsert inserts the header or overwrites the mutable columns of an existing one.
// requestor_group and created_on are fixed at first insert.
func (r *ClaimRepository) Upsert(ctx context.Context, c *entity.ClaimRequest) error {
	query := `
		INSERT INTO claim_request (` + claimColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(draft_id) DO UPDATE SET
			request_id = excluded.request_id,
			claim_type = excluded.claim_type,
			claim_request_type = excluded.claim_request_type,
			claim_month = excluded.claim_month,
			staff_id = excluded.staff_id,
			ulu_code = excluded.ulu_code,
			fdlu_code = excluded.fdlu_code,
			request_status = excluded.request_status,
			submitted_by = excluded.submitted_by,
			submitted_on = excluded.submitted_on,
			modified_by = excluded.modified_by,
			modified_on = excluded.modified_on
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		c.DraftID,
		nullString(c.RequestID),
		c.ClaimType,
		c.ClaimRequestType,
		c.ClaimMonth,
		c.StaffID,
		c.ULUCode,
		c.FDLUCode,
		c.RequestStatus.String(),
		c.RequestorGroup.String(),
		c.SubmittedBy,
		nullTime(c.SubmittedOn),
		c.ModifiedBy,
		c.ModifiedOn,
		c.CreatedOn,
	)
	if err != nil {
		r.logger.Error("Failed to upsert claim", zap.String("draft_id", c.DraftID), zap.Error(err))
		return fmt.Errorf("failed to upsert claim: %w", err)
	}
	return nil
}

// UpdateStatus sets the request status of a live claim
func (r *ClaimRepository) UpdateStatus(ctx context.Context, draftID string, status workflow.State, modifiedBy string) error {
	query := `
		UPDATE claim_request
		SET request_status = ?, modified_by = ?, modified_on = ?
		WHERE draft_id = ? AND is_deleted = 0
	`
	return r.execOne(ctx, "update claim status", draftID, query, status.String(), modifiedBy, time.Now().UTC(), draftID)
}

// SoftDelete marks a claim deleted
func (r *ClaimRepository) SoftDelete(ctx context.Context, draftID, modifiedBy string) error {
	query := `
		UPDATE claim_request
		SET is_deleted = 1, modified_by = ?, modified_on = ?
		WHERE draft_id = ? AND is_deleted = 0
	`
	return r.execOne(ctx, "delete claim", draftID, query, modifiedBy, time.Now().UTC(), draftID)
}

// CountActiveForMonth counts live claims of the staff, claim type and month
// that are not withdrawn, rejected or retracted
func (r *ClaimRepository) CountActiveForMonth(ctx context.Context, q port.MonthlyClaimQuery) (int, error) {
	query := `
		SELECT COUNT(*) FROM claim_request
		WHERE staff_id = ? AND claim_type = ? AND claim_month = ?
			AND draft_id <> ? AND is_deleted = 0
			AND request_status NOT IN (` + placeholders(len(inactiveStatuses())) + `)
	`
	args := []interface{}{q.StaffID, q.ClaimType, q.ClaimMonth, q.ExcludeDraftID}
	args = append(args, inactiveStatuses()...)

	var n int
	if err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		r.logger.Error("Failed to count monthly claims", zap.String("staff_id", q.StaffID), zap.Error(err))
		return 0, fmt.Errorf("failed to count monthly claims: %w", err)
	}
	return n, nil
}

// CountBackdatedSubmissions counts live daily claims submitted inside the
// window whose claim month is earlier than the window's month
func (r *ClaimRepository) CountBackdatedSubmissions(ctx context.Context, q port.BackdateQuery) (int, error) {
	// claim_month is MM-YYYY; compare as YYYYMM
	query := `
		SELECT COUNT(*) FROM claim_request
		WHERE staff_id = ? AND claim_type = ? AND claim_request_type = ?
			AND draft_id <> ? AND is_deleted = 0
			AND submitted_on >= ? AND submitted_on < ?
			AND (substr(claim_month, 4, 4) || substr(claim_month, 1, 2)) < ?
			AND request_status NOT IN (` + placeholders(len(inactiveStatuses())) + `)
	`
	args := []interface{}{
		q.StaffID, q.ClaimType, entity.ClaimRequestTypeDaily, q.ExcludeDraftID,
		q.WindowStart.UTC(), q.WindowEnd.UTC(), q.WindowStart.UTC().Format("200601"),
	}
	args = append(args, inactiveStatuses()...)

	var n int
	if err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		r.logger.Error("Failed to count backdated claims", zap.String("staff_id", q.StaffID), zap.Error(err))
		return 0, fmt.Errorf("failed to count backdated claims: %w", err)
	}
	return n, nil
}

func (r *ClaimRepository) execOne(ctx context.Context, op, draftID, query string, args ...interface{}) error {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, zap.String("draft_id", draftID), zap.Error(err))
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: claim %s", port.ErrNotFound, draftID)
	}
	return nil
}

func inactiveStatuses() []interface{} {
	states := workflow.InactiveStates()
	out := make([]interface{}, len(states))
	for i, s := range states {
		out[i] = s.String()
	}
	return out
}

// Verify interface compliance
var _ port.ClaimRepository = (*ClaimRepository)(nil)
