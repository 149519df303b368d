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

// MatrixRepository implements port.ApproverMatrix
type MatrixRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMatrixRepository creates a new approver matrix
func NewMatrixRepository(db *sql.DB, logger *zap.Logger) port.ApproverMatrix {
	return &MatrixRepository{
		db:     db,
		logger: logger,
	}
}

const matrixScope = `
	ulu_code = ? AND fdlu_code = ? AND process_code = ? AND role_group = ?
	AND valid_from <= ? AND valid_to >= ?`

func scopeArgs(s entity.MatrixScope) []interface{} {
	day := formatDate(s.AsOf)
	return []interface{}{s.ULUCode, s.FDLUCode, s.ProcessCode, s.RoleGroup, day, day}
}

// ListMembers lists the user ids holding the role group on the scope's date
func (r *MatrixRepository) ListMembers(ctx context.Context, scope entity.MatrixScope) ([]string, error) {
	query := `SELECT DISTINCT staff_user_id FROM approver_matrix WHERE` + matrixScope + ` ORDER BY staff_user_id`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, scopeArgs(scope)...)
	if err != nil {
		r.logger.Error("Failed to list matrix members", zap.String("role_group", scope.RoleGroup), zap.Error(err))
		return nil, fmt.Errorf("failed to list matrix members: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan matrix member: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// IsMember reports whether userID holds the role group on the scope's date
func (r *MatrixRepository) IsMember(ctx context.Context, scope entity.MatrixScope, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM approver_matrix WHERE` + matrixScope + ` AND staff_user_id = ?)`

	var ok bool
	args := append(scopeArgs(scope), userID)
	if err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		r.logger.Error("Failed to check matrix membership", zap.String("user_id", userID), zap.Error(err))
		return false, fmt.Errorf("failed to check matrix membership: %w", err)
	}
	return ok, nil
}

// Verify interface compliance
var _ port.ApproverMatrix = (*MatrixRepository)(nil)
