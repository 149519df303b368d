// Package workflow advances claims through their configured approval chain.
package workflow

import (
	"context"

	"github.com/garyjia/claims-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/claims-workflow/internal/domain/workflow"
)

// AdvanceRequest is one workflow action on a persisted claim
type AdvanceRequest struct {
	Claim       *entity.ClaimRequest
	Action      domainwf.Action
	Role        domainwf.Role
	Actor       string
	Nominations map[string][]string
}

// Outcome describes the effect of an action
type Outcome struct {
	PreviousStatus domainwf.State
	Status         domainwf.State
	Process        *entity.ProcessInstance
	CompletedTask  *entity.TaskInstance
	NextTask       *entity.TaskInstance
	ProcessClosed  bool
}

// Changed returns true when the action moved the claim
func (o *Outcome) Changed() bool {
	return o.CompletedTask != nil || o.NextTask != nil || o.ProcessClosed
}

// Orchestrator is the configuration driven state machine
type Orchestrator interface {
	// Advance applies the action. It must run inside the caller's transaction
	// after the claim header and items have been persisted.
	Advance(ctx context.Context, req AdvanceRequest) (*Outcome, error)

	// AuthorizeEdit checks the actor may rewrite a persisted claim without
	// moving it. Terminal claims are immutable. Claims inside a running
	// process may only be edited by the actor of the active task.
	AuthorizeEdit(ctx context.Context, req AdvanceRequest) error

	// ActiveTask returns the active task of a draft, nil when none
	ActiveTask(ctx context.Context, draftID string) (*entity.TaskInstance, error)
}
