package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/claims-workflow/internal/application/dispatcher"
	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/domain/entity"
	"github.com/garyjia/claims-workflow/internal/domain/event"
)

// NotificationHandler turns workflow events into notifications.
// Delivery is best effort: failures are logged and returned to the
// dispatcher, which reports them on the async error channel only.
type NotificationHandler struct {
	notifier port.Notifier
	staff    port.StaffDirectory
	matrix   port.ApproverMatrix
	logger   Logger
	now      func() time.Time
}

// NewNotificationHandler creates a NotificationHandler
func NewNotificationHandler(notifier port.Notifier, staff port.StaffDirectory, matrix port.ApproverMatrix, logger Logger) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		staff:    staff,
		matrix:   matrix,
		logger:   logger,
		now:      time.Now,
	}
}

// Register subscribes the handler to every workflow event it notifies on
func (h *NotificationHandler) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeTaskAssigned, "notify-assignee", h.HandleTaskAssigned)
	d.SubscribeNamed(event.TypeClaimCompleted, "notify-claimant-completed", h.HandleClaimClosed)
	d.SubscribeNamed(event.TypeClaimRetracted, "notify-claimant-retracted", h.HandleClaimClosed)
}

// HandleTaskAssigned notifies the assignee, or every matrix member of the
// assigned group when the task is open to the group
func (h *NotificationHandler) HandleTaskAssigned(ctx context.Context, evt *event.Event) error {
	assignedTo := evt.GetPayloadString(event.KeyAssignedTo)
	group := evt.GetPayloadString(event.KeyAssignedGroup)
	if assignedTo == "" {
		return nil
	}

	recipients := map[string]string{}
	if assignedTo == entity.AssigneeAll {
		members, err := h.matrix.ListMembers(ctx, entity.MatrixScope{
			ULUCode:     evt.GetPayloadString(event.KeyULU),
			FDLUCode:    evt.GetPayloadString(event.KeyFDLU),
			ProcessCode: evt.GetPayloadString(event.KeyClaimType),
			RoleGroup:   group,
			AsOf:        h.now(),
		})
		if err != nil {
			return h.fail(evt, fmt.Errorf("failed to resolve recipients: %w", err))
		}
		for _, m := range members {
			recipients[m] = m
		}
	} else {
		recipients[assignedTo] = assignedTo
	}
	if len(recipients) == 0 {
		h.logger.Info("No recipients for task", "draft_id", evt.DraftID, "group", group)
		return nil
	}

	return h.send(ctx, evt, port.Notification{
		Subject:    fmt.Sprintf("Claim %s awaits your action", requestRef(evt)),
		Body:       fmt.Sprintf("Task %s on claim %s is now assigned to %s.", evt.GetPayloadString(event.KeyTaskName), requestRef(evt), group),
		Recipients: recipients,
	})
}

// HandleClaimClosed notifies the claimant that the claim left the workflow
func (h *NotificationHandler) HandleClaimClosed(ctx context.Context, evt *event.Event) error {
	staffID := evt.GetPayloadString(event.KeyStaffID)
	staff, err := h.staff.GetStaff(ctx, staffID)
	if err != nil {
		return h.fail(evt, fmt.Errorf("failed to resolve claimant: %w", err))
	}
	if staff == nil || staff.UserID == "" {
		h.logger.Info("Claimant has no user id", "draft_id", evt.DraftID, "staff_id", staffID)
		return nil
	}

	status := evt.GetPayloadString(event.KeyStatus)
	return h.send(ctx, evt, port.Notification{
		Subject:    fmt.Sprintf("Claim %s is %s", requestRef(evt), status),
		Body:       fmt.Sprintf("Your claim %s finished with status %s.", requestRef(evt), status),
		Recipients: map[string]string{staff.UserID: staff.Name},
	})
}

func (h *NotificationHandler) send(ctx context.Context, evt *event.Event, n port.Notification) error {
	if err := h.notifier.Send(ctx, n); err != nil {
		return h.fail(evt, fmt.Errorf("failed to send notification: %w", err))
	}
	h.logger.Info("Notification sent", "draft_id", evt.DraftID, "event", evt.Type.String(), "recipients", len(n.Recipients))
	return nil
}

func (h *NotificationHandler) fail(evt *event.Event, err error) error {
	h.logger.Error("Notification failed", "draft_id", evt.DraftID, "event", evt.Type.String(), "error", err)
	return err
}

func requestRef(evt *event.Event) string {
	if evt.RequestID != "" {
		return evt.RequestID
	}
	return evt.DraftID
}
