package workflow

import (
	"context"
	"fmt"

	"github.com/garyjia/claims-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/claims-workflow/internal/domain/workflow"
)

var nominatedGroups = map[domainwf.Group]string{
	domainwf.GroupVerifier:            entity.ParticipantVerifier,
	domainwf.GroupAdditionalApprover1: entity.ParticipantAdditionalApprover1,
	domainwf.GroupAdditionalApprover2: entity.ParticipantAdditionalApprover2,
}

// resolveAssignee picks the task owner: a nominated individual, the
// reporting manager of a compensation claimant, or the whole group
func (o *orchestratorImpl) resolveAssignee(ctx context.Context, req AdvanceRequest, def *domainwf.TaskDefinition) (string, error) {
	if role, ok := nominatedGroups[def.AssignedGroup]; ok {
		for _, userID := range req.Nominations[role] {
			if userID != "" {
				return userID, nil
			}
		}
	}

	if def.AssignedGroup == domainwf.GroupReportingManager && req.Claim.ClaimType == entity.ClaimTypeCompensation {
		return o.reportingManager(ctx, req.Claim.StaffID)
	}

	return entity.AssigneeAll, nil
}

// reportingManager walks up the reporting chain from the staff member's
// manager and returns the first active manager. The walk is bounded and
// stops on a cycle.
func (o *orchestratorImpl) reportingManager(ctx context.Context, staffID string) (string, error) {
	cur, err := o.staff.GetStaff(ctx, staffID)
	if err != nil {
		return "", fmt.Errorf("failed to look up staff %s: %w", staffID, err)
	}

	visited := map[string]bool{staffID: true}
	for depth := 0; cur != nil && depth < o.chainDepth; depth++ {
		next := cur.ReportingManagerID
		if next == "" || visited[next] {
			break
		}
		visited[next] = true

		mgr, err := o.staff.GetStaff(ctx, next)
		if err != nil {
			return "", fmt.Errorf("failed to look up staff %s: %w", next, err)
		}
		if mgr == nil {
			break
		}
		if mgr.IsActive && mgr.UserID != "" {
			return mgr.UserID, nil
		}
		cur = mgr
	}

	return "", fmt.Errorf("%w: no active reporting manager for staff %s", domainwf.ErrConfigGap, staffID)
}
