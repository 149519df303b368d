package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

func day(s string) time.Time {
	t, err := parseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestItemRepository_ReplaceSemantics(t *testing.T) {
	db := openTestDB(t)
	claims := NewClaimRepository(db, zap.NewNop())
	items := NewItemRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, claims.Upsert(ctx, sampleClaim("D1")))
	for i, amount := range []int64{100, 200, 300} {
		require.NoError(t, items.Upsert(ctx, &entity.ClaimItem{
			ItemID:         "D1" + []string{"001", "002", "003"}[i],
			DraftID:        "D1",
			RateType:       entity.RateTypeMonthly,
			ClaimStartDate: day("2026-03-01"),
			ClaimEndDate:   day("2026-03-02"),
			Amount:         decimal.NewFromInt(amount),
			HoursUnit:      decimal.RequireFromString("1.5"),
			DisplayIndex:   i + 1,
		}))
	}

	// A resubmission with one item supersedes the previous three
	require.NoError(t, items.SoftDeleteByDraftID(ctx, "D1"))
	require.NoError(t, items.Upsert(ctx, &entity.ClaimItem{
		ItemID:         "D1001",
		DraftID:        "D1",
		RateType:       entity.RateTypeHourly,
		ClaimStartDate: day("2026-03-04"),
		ClaimEndDate:   day("2026-03-04"),
		StartTime:      "09:00",
		EndTime:        "12:00",
		Amount:         decimal.RequireFromString("75.25"),
		DisplayIndex:   1,
	}))

	got, err := items.ListActiveByDraftID(ctx, "D1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entity.RateTypeHourly, got[0].RateType)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("75.25")))
	assert.Equal(t, day("2026-03-04"), got[0].ClaimStartDate)
	assert.Equal(t, "09:00", got[0].StartTime)
	assert.False(t, got[0].IsDeleted)
}

func TestItemRepository_FindIntersecting(t *testing.T) {
	db := openTestDB(t)
	claims := NewClaimRepository(db, zap.NewNop())
	items := NewItemRepository(db, zap.NewNop())
	ctx := context.Background()

	seed := []struct {
		draft  string
		ulu    string
		status workflow.State
		start  string
		end    string
	}{
		{"D1", "ULU1", workflow.StatePendingApprover, "2026-03-01", "2026-03-10"},
		{"D2", "ULU1", workflow.StateRejectedClaimant, "2026-03-05", "2026-03-05"},
		{"D3", "ULU2", workflow.StatePendingApprover, "2026-03-05", "2026-03-05"}, // other org unit
		{"D4", "ULU1", workflow.StateApproved, "2026-04-01", "2026-04-02"},        // disjoint
		{"D5", "ULU1", workflow.StateDraft, "2026-03-10", "2026-03-12"},           // touches end
	}
	for _, s := range seed {
		c := sampleClaim(s.draft)
		c.ULUCode = s.ulu
		c.RequestStatus = s.status
		require.NoError(t, claims.Upsert(ctx, c))
		require.NoError(t, items.Upsert(ctx, &entity.ClaimItem{
			ItemID: s.draft + "001", DraftID: s.draft, RateType: entity.RateTypeDaily,
			ClaimStartDate: day(s.start), ClaimEndDate: day(s.end), DisplayIndex: 1,
		}))
	}

	got, err := items.FindIntersecting(ctx, port.HistoryQuery{
		StaffID:        "S001",
		ULUCode:        "ULU1",
		FDLUCode:       "FDLU1",
		From:           day("2026-03-05"),
		To:             day("2026-03-10"),
		ExcludeDraftID: "D9",
	})
	require.NoError(t, err)

	var drafts []string
	for _, p := range got {
		drafts = append(drafts, p.DraftID)
		assert.Equal(t, "S001", p.StaffID)
	}
	assert.Equal(t, []string{"D1", "D2", "D5"}, drafts)
	assert.Equal(t, workflow.StateRejectedClaimant, got[1].RequestStatus, "status is returned for the caller to filter")

	got, err = items.FindIntersecting(ctx, port.HistoryQuery{
		StaffID: "S001", ULUCode: "ULU1", FDLUCode: "FDLU1",
		From: day("2026-03-05"), To: day("2026-03-10"), ExcludeDraftID: "D1",
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
