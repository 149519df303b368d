package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
	"github.com/garyjia/claims-workflow/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ItemRepository implements port.ItemRepository
type ItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewItemRepository creates a new claim item repository
func NewItemRepository(db *sql.DB, logger *zap.Logger) port.ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

const itemColumns = `
	i.item_id, i.draft_id, i.rate_type, i.claim_start_date, i.claim_end_date,
	i.start_time, i.end_time, i.hours_unit, i.amount, i.wbs, i.remarks,
	i.display_index, i.is_deleted`

// ListActiveByDraftID lists the non-deleted items of a draft in display order
func (r *ItemRepository) ListActiveByDraftID(ctx context.Context, draftID string) ([]*entity.ClaimItem, error) {
	query := `SELECT ` + itemColumns + ` FROM claim_item i
		WHERE i.draft_id = ? AND i.is_deleted = 0
		ORDER BY i.display_index, i.item_id`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, draftID)
	if err != nil {
		r.logger.Error("Failed to list items", zap.String("draft_id", draftID), zap.Error(err))
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*entity.ClaimItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Upsert writes an item. The service mints a new id for every item version,
// so a conflict only happens when the same version is written twice.
func (r *ItemRepository) Upsert(ctx context.Context, item *entity.ClaimItem) error {
	query := `
		INSERT INTO claim_item (
			item_id, draft_id, rate_type, claim_start_date, claim_end_date,
			start_time, end_time, hours_unit, amount, wbs, remarks,
			display_index, is_deleted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(item_id) DO UPDATE SET
			rate_type = excluded.rate_type,
			claim_start_date = excluded.claim_start_date,
			claim_end_date = excluded.claim_end_date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			hours_unit = excluded.hours_unit,
			amount = excluded.amount,
			wbs = excluded.wbs,
			remarks = excluded.remarks,
			display_index = excluded.display_index,
			is_deleted = 0
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		item.ItemID,
		item.DraftID,
		item.RateType.String(),
		formatDate(item.ClaimStartDate),
		formatDate(item.ClaimEndDate),
		item.StartTime,
		item.EndTime,
		item.HoursUnit.String(),
		item.Amount.String(),
		item.WBS,
		item.Remarks,
		item.DisplayIndex,
	)
	if err != nil {
		r.logger.Error("Failed to upsert item", zap.String("item_id", item.ItemID), zap.Error(err))
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	return nil
}

// SoftDeleteByDraftID marks every item of a draft deleted
func (r *ItemRepository) SoftDeleteByDraftID(ctx context.Context, draftID string) error {
	query := `UPDATE claim_item SET is_deleted = 1 WHERE draft_id = ? AND is_deleted = 0`

	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, draftID); err != nil {
		r.logger.Error("Failed to delete items", zap.String("draft_id", draftID), zap.Error(err))
		return fmt.Errorf("failed to delete items: %w", err)
	}
	return nil
}

// FindIntersecting returns live items of other drafts for the same staff and
// org unit whose date range intersects [From, To]
func (r *ItemRepository) FindIntersecting(ctx context.Context, q port.HistoryQuery) ([]*entity.PersistedItem, error) {
	query := `SELECT ` + itemColumns + `, c.staff_id, c.claim_type, c.claim_request_type, c.request_status
		FROM claim_item i
		JOIN claim_request c ON c.draft_id = i.draft_id
		WHERE c.staff_id = ? AND c.ulu_code = ? AND c.fdlu_code = ?
			AND c.draft_id <> ? AND c.is_deleted = 0 AND i.is_deleted = 0
			AND i.claim_start_date <= ? AND i.claim_end_date >= ?
		ORDER BY i.claim_start_date, i.item_id`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query,
		q.StaffID, q.ULUCode, q.FDLUCode, q.ExcludeDraftID,
		formatDate(q.To), formatDate(q.From),
	)
	if err != nil {
		r.logger.Error("Failed to query item history", zap.String("staff_id", q.StaffID), zap.Error(err))
		return nil, fmt.Errorf("failed to query item history: %w", err)
	}
	defer rows.Close()

	var out []*entity.PersistedItem
	for rows.Next() {
		var (
			p      entity.PersistedItem
			status string
		)
		rest := []interface{}{&p.StaffID, &p.ClaimType, &p.ClaimRequestType, &status}
		item, err := scanItem(rows, rest...)
		if err != nil {
			return nil, err
		}
		p.ClaimItem = *item
		p.RequestStatus = workflow.State(status)
		out = append(out, &p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanItem scans the item columns followed by any extra destinations
func scanItem(row rowScanner, extra ...interface{}) (*entity.ClaimItem, error) {
	var (
		item       entity.ClaimItem
		rateType   string
		start, end string
	)
	dest := []interface{}{
		&item.ItemID,
		&item.DraftID,
		&rateType,
		&start,
		&end,
		&item.StartTime,
		&item.EndTime,
		&item.HoursUnit,
		&item.Amount,
		&item.WBS,
		&item.Remarks,
		&item.DisplayIndex,
		&item.IsDeleted,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	var err error
	if item.ClaimStartDate, err = parseDate(start); err != nil {
		return nil, fmt.Errorf("item %s has invalid start date: %w", item.ItemID, err)
	}
	if item.ClaimEndDate, err = parseDate(end); err != nil {
		return nil, fmt.Errorf("item %s has invalid end date: %w", item.ItemID, err)
	}
	item.RateType = entity.ParseRateType(rateType)
	return &item, nil
}

// Verify interface compliance
var _ port.ItemRepository = (*ItemRepository)(nil)
