// Package pipeline contains the event producer and the stage handlers that
// drive a submission from validation through notification.
package pipeline

import (
	"context"
	"encoding/json"
	"strconv"

	"submission-disk/internal/events"
	"submission-disk/pkg/broker"
	"submission-disk/pkg/logger"
)

// Producer publishes submission events, partitioned by the submission id so
// every event for one submission lands on the same partition. Sends are
// fire-and-forget: the status transition is already committed by the time a
// send happens, and a lost publish is recovered by redelivery, not by
// retrying here. Both outcomes are logged.
type Producer struct {
	publisher broker.Publisher
	log       *logger.Logger
}

func NewProducer(publisher broker.Publisher, log *logger.Logger) *Producer {
	return &Producer{publisher: publisher, log: log}
}

func (p *Producer) Send(ctx context.Context, topic string, event *events.SubmissionEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Errorf("marshal event for topic %s failed: submission=%d: %v", topic, event.SubmissionID, err)
		return
	}

	key := strconv.FormatInt(event.SubmissionID, 10)
	if err := p.publisher.Publish(ctx, topic, key, payload); err != nil {
		p.log.Errorf("failed to send event to topic %s: submission=%d: %v", topic, event.SubmissionID, err)
		return
	}
	p.log.Infof("sent event to topic %s: submission=%d stage=%s", topic, event.SubmissionID, event.CurrentStage)
}
