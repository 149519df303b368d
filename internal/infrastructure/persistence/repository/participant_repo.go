package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ParticipantRepository implements port.ParticipantRepository
type ParticipantRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *sql.DB, logger *zap.Logger) port.ParticipantRepository {
	return &ParticipantRepository{
		db:     db,
		logger: logger,
	}
}

// ListActiveByDraftID lists current nominations of a draft
func (r *ParticipantRepository) ListActiveByDraftID(ctx context.Context, draftID string) ([]*entity.ClaimParticipant, error) {
	query := `
		SELECT participant_id, draft_id, participant_role, staff_user_id, is_deleted
		FROM claim_participant
		WHERE draft_id = ? AND is_deleted = 0
		ORDER BY participant_id
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, draftID)
	if err != nil {
		r.logger.Error("Failed to list participants", zap.String("draft_id", draftID), zap.Error(err))
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var out []*entity.ClaimParticipant
	for rows.Next() {
		var p entity.ClaimParticipant
		if err := rows.Scan(&p.ParticipantID, &p.DraftID, &p.Role, &p.StaffUserID, &p.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Create inserts a nomination
func (r *ParticipantRepository) Create(ctx context.Context, p *entity.ClaimParticipant) error {
	query := `
		INSERT INTO claim_participant (participant_id, draft_id, participant_role, staff_user_id, is_deleted)
		VALUES (?, ?, ?, ?, 0)
	`

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, p.ParticipantID, p.DraftID, p.Role, p.StaffUserID); err != nil {
		r.logger.Error("Failed to create participant", zap.String("draft_id", p.DraftID), zap.Error(err))
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// SoftDeleteByDraftID supersedes every nomination of a draft
func (r *ParticipantRepository) SoftDeleteByDraftID(ctx context.Context, draftID string) error {
	query := `UPDATE claim_participant SET is_deleted = 1 WHERE draft_id = ? AND is_deleted = 0`

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, draftID); err != nil {
		r.logger.Error("Failed to delete participants", zap.String("draft_id", draftID), zap.Error(err))
		return fmt.Errorf("failed to delete participants: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.ParticipantRepository = (*ParticipantRepository)(nil)
