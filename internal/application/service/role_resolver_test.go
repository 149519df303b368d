package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

func TestRoleResolver_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		batch     []entity.ClaimSubmission
		wantRole  workflow.Role
		wantField string
	}{
		{
			name:      "empty batch",
			batch:     nil,
			wantField: "",
		},
		{
			name:     "single claimant",
			batch:    []entity.ClaimSubmission{{Action: "SAVE", Role: "ESS"}},
			wantRole: workflow.RoleClaimant,
		},
		{
			name: "uniform claim assistant batch",
			batch: []entity.ClaimSubmission{
				{Action: "SUBMIT", Role: "CA"},
				{Action: "save", Role: "ca"},
			},
			wantRole: workflow.RoleClaimAssistant,
		},
		{
			name: "missing action on second claim",
			batch: []entity.ClaimSubmission{
				{Action: "SUBMIT", Role: "ESS"},
				{Role: "ESS"},
			},
			wantField: "ACTION",
		},
		{
			name:      "unknown action",
			batch:     []entity.ClaimSubmission{{Action: "PUBLISH", Role: "ESS"}},
			wantField: "ACTION",
		},
		{
			name: "mixed roles",
			batch: []entity.ClaimSubmission{
				{Action: "SUBMIT", Role: "ESS"},
				{Action: "SUBMIT", Role: "CA"},
			},
			wantField: "ROLE",
		},
		{
			name:     "unknown role is not an error",
			batch:    []entity.ClaimSubmission{{Action: "SUBMIT", Role: "JANITOR"}},
			wantRole: workflow.RoleUnknown,
		},
	}

	resolver := NewRoleResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := resolver.Resolve(tt.batch)

			shouldFail := tt.wantField != "" || len(tt.batch) == 0
			if shouldFail {
				var inputErr *port.InputError
				require.True(t, errors.As(err, &inputErr), "expected InputError, got %v", err)
				assert.Equal(t, tt.wantField, inputErr.Field)
				assert.Equal(t, workflow.RoleUnknown, role)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, role)
		})
	}
}
