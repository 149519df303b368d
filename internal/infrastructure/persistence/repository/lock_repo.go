package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// LockRepository implements port.LockRepository
type LockRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLockRepository creates a new request lock repository
func NewLockRepository(db *sql.DB, logger *zap.Logger) port.LockRepository {
	return &LockRepository{
		db:     db,
		logger: logger,
	}
}

// ListByReferenceID lists every lock row of a draft
func (r *LockRepository) ListByReferenceID(ctx context.Context, referenceID string) ([]*entity.RequestLock, error) {
	query := `
		SELECT lock_inst_id, reference_id, user_id, locked_by_user_id, is_locked,
			staff_user_group, request_status, modified_on
		FROM request_lock
		WHERE reference_id = ?
		ORDER BY lock_inst_id
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, referenceID)
	if err != nil {
		r.logger.Error("Failed to list locks", zap.String("reference_id", referenceID), zap.Error(err))
		return nil, fmt.Errorf("failed to list locks: %w", err)
	}
	defer rows.Close()

	var out []*entity.RequestLock
	for rows.Next() {
		var l entity.RequestLock
		if err := rows.Scan(
			&l.LockInstID,
			&l.ReferenceID,
			&l.UserID,
			&l.LockedByUserID,
			&l.IsLocked,
			&l.StaffUserGroup,
			&l.RequestStatus,
			&l.ModifiedOn,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lock: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// Create inserts a lock row
func (r *LockRepository) Create(ctx context.Context, l *entity.RequestLock) error {
	query := `
		INSERT INTO request_lock (
			lock_inst_id, reference_id, user_id, locked_by_user_id, is_locked,
			staff_user_group, request_status, modified_on
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		l.LockInstID,
		l.ReferenceID,
		l.UserID,
		l.LockedByUserID,
		l.IsLocked,
		l.StaffUserGroup,
		l.RequestStatus,
		l.ModifiedOn.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create lock", zap.String("reference_id", l.ReferenceID), zap.Error(err))
		return fmt.Errorf("failed to create lock: %w", err)
	}
	return nil
}

// UpdateByReferenceID rewrites holder, marker and intent on every row of a draft
func (r *LockRepository) UpdateByReferenceID(ctx context.Context, referenceID, lockedBy, isLocked, intent string) error {
	query := `
		UPDATE request_lock
		SET locked_by_user_id = ?, is_locked = ?, request_status = ?, modified_on = ?
		WHERE reference_id = ?
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, lockedBy, isLocked, intent, time.Now().UTC(), referenceID)
	if err != nil {
		r.logger.Error("Failed to update locks", zap.String("reference_id", referenceID), zap.Error(err))
		return fmt.Errorf("failed to update locks: %w", err)
	}
	return nil
}

// DeleteByReferenceID removes every lock row of a draft
func (r *LockRepository) DeleteByReferenceID(ctx context.Context, referenceID string) error {
	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `DELETE FROM request_lock WHERE reference_id = ?`, referenceID); err != nil {
		r.logger.Error("Failed to delete locks", zap.String("reference_id", referenceID), zap.Error(err))
		return fmt.Errorf("failed to delete locks: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.LockRepository = (*LockRepository)(nil)
