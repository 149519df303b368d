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

// TaskRepository implements port.TaskRepository
type TaskRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task instance repository
func NewTaskRepository(db *sql.DB, logger *zap.Logger) port.TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a task instance
func (r *TaskRepository) Create(ctx context.Context, t *entity.TaskInstance) error {
	query := `
		INSERT INTO task_instance (
			task_inst_id, process_inst_id, task_sequence, to_be_task_sequence,
			task_name, task_assigned_group, task_assigned_to, task_status,
			action_by, created_on, modified_on, is_deleted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		t.TaskInstID,
		t.ProcessInstID,
		t.TaskSequence,
		t.ToBeTaskSequence,
		t.TaskName,
		t.TaskAssignedGroup,
		t.TaskAssignedTo,
		t.TaskStatus,
		t.ActionBy,
		t.CreatedOn.UTC(),
		t.ModifiedOn.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create task", zap.String("process_inst_id", t.ProcessInstID), zap.Error(err))
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetActiveByProcessID returns the active task of a process, nil when none
func (r *TaskRepository) GetActiveByProcessID(ctx context.Context, processInstID string) (*entity.TaskInstance, error) {
	query := `
		SELECT task_inst_id, process_inst_id, task_sequence, to_be_task_sequence,
			task_name, task_assigned_group, task_assigned_to, task_status,
			action_by, created_on, modified_on
		FROM task_instance
		WHERE process_inst_id = ? AND task_status = ? AND is_deleted = 0
		ORDER BY created_on DESC, task_inst_id DESC
		LIMIT 1
	`

	var t entity.TaskInstance
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, processInstID, entity.TaskStatusActive).Scan(
		&t.TaskInstID,
		&t.ProcessInstID,
		&t.TaskSequence,
		&t.ToBeTaskSequence,
		&t.TaskName,
		&t.TaskAssignedGroup,
		&t.TaskAssignedTo,
		&t.TaskStatus,
		&t.ActionBy,
		&t.CreatedOn,
		&t.ModifiedOn,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get active task", zap.String("process_inst_id", processInstID), zap.Error(err))
		return nil, fmt.Errorf("failed to get active task: %w", err)
	}
	return &t, nil
}

// Complete marks an active task complete
func (r *TaskRepository) Complete(ctx context.Context, taskInstID, actionBy string) error {
	query := `
		UPDATE task_instance
		SET task_status = ?, action_by = ?, modified_on = ?
		WHERE task_inst_id = ? AND task_status = ? AND is_deleted = 0
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		entity.TaskStatusComplete, actionBy, time.Now().UTC(), taskInstID, entity.TaskStatusActive)
	if err != nil {
		r.logger.Error("Failed to complete task", zap.String("task_inst_id", taskInstID), zap.Error(err))
		return fmt.Errorf("failed to complete task: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: active task %s", port.ErrNotFound, taskInstID)
	}
	return nil
}

// SoftDeleteByReferenceID marks every task of a draft's processes deleted
func (r *TaskRepository) SoftDeleteByReferenceID(ctx context.Context, referenceID string) error {
	query := `
		UPDATE task_instance SET is_deleted = 1, modified_on = ?
		WHERE is_deleted = 0 AND process_inst_id IN (
			SELECT process_inst_id FROM process_instance WHERE reference_id = ?
		)
	`

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, time.Now().UTC(), referenceID); err != nil {
		r.logger.Error("Failed to delete tasks", zap.String("reference_id", referenceID), zap.Error(err))
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.TaskRepository = (*TaskRepository)(nil)
