package lark

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/garyjia/claims-workflow/internal/application/port"
	"go.uber.org/zap"
)

// Notifier delivers workflow notifications as Lark text messages, one per recipient
type Notifier struct {
	sender        MessageSender
	receiveIDType string
	logger        *zap.Logger
}

// NewNotifier creates a Lark backed port.Notifier
func NewNotifier(sender MessageSender, receiveIDType string, logger *zap.Logger) *Notifier {
	if receiveIDType == "" {
		receiveIDType = DefaultReceiveIDType
	}
	return &Notifier{
		sender:        sender,
		receiveIDType: receiveIDType,
		logger:        logger,
	}
}

// Send messages every recipient. A failed recipient does not stop the others;
// all failures are joined into the returned error.
func (n *Notifier) Send(ctx context.Context, msg port.Notification) error {
	if len(msg.Recipients) == 0 {
		return nil
	}

	ids := make([]string, 0, len(msg.Recipients))
	for id := range msg.Recipients {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		text := msg.Subject + "\n" + msg.Body
		if name := msg.Recipients[id]; name != "" && name != id {
			text = fmt.Sprintf("Hi %s,\n%s", name, text)
		}
		if _, err := n.sender.SendText(ctx, n.receiveIDType, id, text); err != nil {
			errs = append(errs, fmt.Errorf("recipient %s: %w", id, err))
		}
	}

	if len(errs) > 0 {
		n.logger.Error("Notification partially failed",
			zap.String("subject", msg.Subject),
			zap.Int("failed", len(errs)),
			zap.Int("recipients", len(ids)))
		return errors.Join(errs...)
	}
	return nil
}

// LogNotifier records notifications in the log when Lark delivery is disabled
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a logging port.Notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the notification
func (n *LogNotifier) Send(_ context.Context, msg port.Notification) error {
	n.logger.Info("Notification",
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
		zap.Int("recipients", len(msg.Recipients)))
	return nil
}

// Verify interface compliance
var (
	_ port.Notifier = (*Notifier)(nil)
	_ port.Notifier = (*LogNotifier)(nil)
)
