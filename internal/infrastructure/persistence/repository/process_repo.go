package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ProcessRepository implements port.ProcessRepository
type ProcessRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProcessRepository creates a new process instance repository
func NewProcessRepository(db *sql.DB, logger *zap.Logger) port.ProcessRepository {
	return &ProcessRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a process instance
func (r *ProcessRepository) Create(ctx context.Context, p *entity.ProcessInstance) error {
	query := `
		INSERT INTO process_instance (
			process_inst_id, reference_id, process_code, process_status,
			created_by, created_on, modified_by, modified_on, is_deleted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		p.ProcessInstID,
		p.ReferenceID,
		p.ProcessCode,
		p.ProcessStatus,
		p.CreatedBy,
		p.CreatedOn.UTC(),
		p.ModifiedBy,
		p.ModifiedOn.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create process instance", zap.String("reference_id", p.ReferenceID), zap.Error(err))
		return fmt.Errorf("failed to create process instance: %w", err)
	}
	return nil
}

// GetActiveByReferenceID returns the in-progress process of a draft, nil when none
func (r *ProcessRepository) GetActiveByReferenceID(ctx context.Context, referenceID string) (*entity.ProcessInstance, error) {
	query := `
		SELECT process_inst_id, reference_id, process_code, process_status,
			created_by, created_on, modified_by, modified_on, is_deleted
		FROM process_instance
		WHERE reference_id = ? AND process_status = ? AND is_deleted = 0
		ORDER BY created_on DESC, process_inst_id DESC
		LIMIT 1
	`

	var p entity.ProcessInstance
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, referenceID, entity.ProcessStatusInProgress).Scan(
		&p.ProcessInstID,
		&p.ReferenceID,
		&p.ProcessCode,
		&p.ProcessStatus,
		&p.CreatedBy,
		&p.CreatedOn,
		&p.ModifiedBy,
		&p.ModifiedOn,
		&p.IsDeleted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get process instance", zap.String("reference_id", referenceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get process instance: %w", err)
	}
	return &p, nil
}

// UpdateStatus sets the status of a process instance
func (r *ProcessRepository) UpdateStatus(ctx context.Context, processInstID, status, modifiedBy string) error {
	query := `
		UPDATE process_instance
		SET process_status = ?, modified_by = ?, modified_on = ?
		WHERE process_inst_id = ? AND is_deleted = 0
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, status, modifiedBy, time.Now().UTC(), processInstID)
	if err != nil {
		r.logger.Error("Failed to update process instance", zap.String("process_inst_id", processInstID), zap.Error(err))
		return fmt.Errorf("failed to update process instance: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: process %s", port.ErrNotFound, processInstID)
	}
	return nil
}

// SoftDeleteByReferenceID marks every process of a draft deleted
func (r *ProcessRepository) SoftDeleteByReferenceID(ctx context.Context, referenceID string) error {
	query := `UPDATE process_instance SET is_deleted = 1, modified_on = ? WHERE reference_id = ? AND is_deleted = 0`

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, time.Now().UTC(), referenceID); err != nil {
		r.logger.Error("Failed to delete process instances", zap.String("reference_id", referenceID), zap.Error(err))
		return fmt.Errorf("failed to delete process instances: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.ProcessRepository = (*ProcessRepository)(nil)
