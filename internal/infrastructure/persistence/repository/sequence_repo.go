package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ErrSequenceExhausted is returned when a counter outgrows its digit width
var ErrSequenceExhausted = errors.New("sequence exhausted")

// SequenceRepository implements port.SequenceService on a counter table.
// Each call is a single atomic upsert so ids are unique across connections.
type SequenceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSequenceRepository creates a new sequence service
func NewSequenceRepository(db *sql.DB, logger *zap.Logger) port.SequenceService {
	return &SequenceRepository{
		db:     db,
		logger: logger,
	}
}

// Next increments the counter of pattern and returns pattern followed by the
// value zero-padded to digits
func (r *SequenceRepository) Next(ctx context.Context, pattern string, digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("invalid sequence width %d", digits)
	}

	query := `
		INSERT INTO sequence_counter (pattern, value) VALUES (?, 1)
		ON CONFLICT(pattern) DO UPDATE SET value = value + 1
		RETURNING value
	`

	var value int64
	if err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, pattern).Scan(&value); err != nil {
		r.logger.Error("Failed to advance sequence", zap.String("pattern", pattern), zap.Error(err))
		return "", fmt.Errorf("failed to advance sequence %s: %w", pattern, err)
	}

	if value >= int64(math.Pow10(digits)) {
		r.logger.Error("Sequence exhausted", zap.String("pattern", pattern), zap.Int64("value", value), zap.Int("digits", digits))
		return "", fmt.Errorf("%w: %s reached %d", ErrSequenceExhausted, pattern, value)
	}
	return fmt.Sprintf("%s%0*d", pattern, digits, value), nil
}

// Verify interface compliance
var _ port.SequenceService = (*SequenceRepository)(nil)
