package service

import (
	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/workflow"
)

// RoleResolver determines the single acting role of a submission batch
type RoleResolver struct{}

// NewRoleResolver creates a RoleResolver
func NewRoleResolver() *RoleResolver {
	return &RoleResolver{}
}

// Resolve returns the role governing the batch. Every claim must carry a known
// action and the same role; any violation fails the whole batch. An
// unrecognised role yields workflow.RoleUnknown with a nil error and the
// caller decides how to reject it.
func (r *RoleResolver) Resolve(batch []entity.ClaimSubmission) (workflow.Role, error) {
	if len(batch) == 0 {
		return workflow.RoleUnknown, port.NewInputError("", "empty submission")
	}

	for i := range batch {
		if batch[i].Action == "" {
			return workflow.RoleUnknown, port.NewInputError("ACTION", "missing on claim %d", i+1)
		}
		if workflow.ParseAction(batch[i].Action) == workflow.ActionUnknown {
			return workflow.RoleUnknown, port.NewInputError("ACTION", "unknown action %q on claim %d", batch[i].Action, i+1)
		}
	}

	role := workflow.ParseRole(batch[0].Role)
	for i := 1; i < len(batch); i++ {
		if workflow.ParseRole(batch[i].Role) != role {
			return workflow.RoleUnknown, port.NewInputError("ROLE", "claim %d role %q differs from %q", i+1, batch[i].Role, batch[0].Role)
		}
	}

	return role, nil
}
