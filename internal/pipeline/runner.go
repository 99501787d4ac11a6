package pipeline

import (
	"context"
	"fmt"

	"submission-disk/internal/events"
	"submission-disk/pkg/broker"
)

// Start subscribes every stage handler to its topic. The consumer loops run
// until ctx is cancelled.
func Start(ctx context.Context, sub broker.Subscriber,
	validation *ValidationHandler, storage *StorageHandler,
	processing *ProcessingHandler, notification *NotificationHandler) error {

	subscriptions := []struct {
		topic   string
		handler broker.Handler
	}{
		{events.TopicValidation, validation.Handle},
		{events.TopicStorage, storage.Handle},
		{events.TopicProcessing, processing.Handle},
		{events.TopicNotification, notification.HandleNotification},
		{events.TopicCompleted, notification.HandleCompleted},
		{events.TopicFailed, notification.HandleFailed},
	}
	for _, s := range subscriptions {
		if err := sub.Subscribe(ctx, s.topic, s.handler); err != nil {
			return fmt.Errorf("subscribe to %s: %w", s.topic, err)
		}
	}
	return nil
}
