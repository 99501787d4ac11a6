package pipeline

import (
	"context"

	"submission-disk/pkg/broker"
	"submission-disk/pkg/logger"
)

// NotificationHandler is the leaf of the pipeline. It consumes the
// notification topic plus the failed and completed sinks, changes no state
// and emits nothing. Delivery channels (email, webhooks, chat alerts) plug
// in here.
type NotificationHandler struct {
	log *logger.Logger
}

func NewNotificationHandler(log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{log: log}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, msg broker.Message) error {
	event, err := decodeEvent(msg.Payload)
	if err != nil {
		h.log.Errorf("notification: dropping undecodable message %s: %v", msg.ID, err)
		return nil
	}
	h.log.Infof("notification: submission %d notified (user=%s status=%s stage=%s)",
		event.SubmissionID, event.SubmittedBy, event.Status, event.CurrentStage)
	return nil
}

func (h *NotificationHandler) HandleCompleted(ctx context.Context, msg broker.Message) error {
	event, err := decodeEvent(msg.Payload)
	if err != nil {
		h.log.Errorf("notification: dropping undecodable message %s: %v", msg.ID, err)
		return nil
	}
	h.log.Infof("notification: submission %d completed successfully", event.SubmissionID)
	return nil
}

func (h *NotificationHandler) HandleFailed(ctx context.Context, msg broker.Message) error {
	event, err := decodeEvent(msg.Payload)
	if err != nil {
		h.log.Errorf("notification: dropping undecodable message %s: %v", msg.ID, err)
		return nil
	}
	h.log.Errorf("notification: submission %d failed at stage %s: %s",
		event.SubmissionID, event.CurrentStage, event.ErrorMessage)
	return nil
}
