package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateType_Comparable(t *testing.T) {
	tests := []struct {
		name string
		a, b RateType
		want bool
	}{
		{"same hourly", RateTypeHourly, RateTypeHourly, true},
		{"same daily", RateTypeDaily, RateTypeDaily, true},
		{"hourly monthly alias", RateTypeHourly, RateTypeMonthly, true},
		{"monthly hourly alias", RateTypeMonthly, RateTypeHourly, true},
		{"daily monthly", RateTypeDaily, RateTypeMonthly, false},
		{"hourly lumpsum", RateTypeHourly, RateTypeLumpSum, false},
		{"both blank", RateTypeUnknown, RateTypeUnknown, true},
		{"blank and daily", RateTypeUnknown, RateTypeDaily, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Comparable(tt.b))
		})
	}
}

func TestRateType_JSON(t *testing.T) {
	var item struct {
		RateType RateType `json:"rate_type"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"rate_type":"hourly"}`), &item))
	assert.Equal(t, RateTypeHourly, item.RateType)

	require.NoError(t, json.Unmarshal([]byte(`{"rate_type":"WEEKLY"}`), &item))
	assert.Equal(t, RateTypeUnknown, item.RateType)

	out, err := json.Marshal(struct {
		RateType RateType `json:"rate_type"`
	}{RateTypeMonthly})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rate_type":"MONTHLY"}`, string(out))
}

func TestClaimRequest_MarkSubmitted(t *testing.T) {
	c := &ClaimRequest{DraftID: "D1"}
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	c.MarkSubmitted("u-1", first)
	c.MarkSubmitted("u-2", first.Add(time.Hour))

	assert.Equal(t, "u-1", c.SubmittedBy)
	require.NotNil(t, c.SubmittedOn)
	assert.True(t, c.SubmittedOn.Equal(first))
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]ValidationResult{{Severity: SeverityWarning}}))
	assert.True(t, HasErrors([]ValidationResult{{Severity: SeverityWarning}, {Severity: SeverityError}}))
}

func TestClaimSubmission_Nominations(t *testing.T) {
	s := &ClaimSubmission{Verifier: []string{"v1"}, AdditionalApprover2: []string{"a2"}}
	n := s.Nominations()
	assert.Equal(t, []string{"v1"}, n[ParticipantVerifier])
	assert.Equal(t, []string{"a2"}, n[ParticipantAdditionalApprover2])
	_, ok := n[ParticipantAdditionalApprover1]
	assert.False(t, ok)
}
