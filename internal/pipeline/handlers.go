package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"submission-disk/internal/domain/submission"
	"submission-disk/internal/events"
	"submission-disk/internal/repository"
	"submission-disk/pkg/logger"
)

// EventSender is what handlers need from the producer; *Producer satisfies it.
type EventSender interface {
	Send(ctx context.Context, topic string, event *events.SubmissionEvent)
}

func decodeEvent(payload []byte) (*events.SubmissionEvent, error) {
	var event events.SubmissionEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode submission event: %w", err)
	}
	return &event, nil
}

// failSubmission is the shared failure path of every stage: commit the FAILED
// transition (which also stamps processed_at and the error message), then
// emit to the failed topic. Commit happens strictly before the emit.
func failSubmission(ctx context.Context, repo repository.SubmissionRepository, sender EventSender,
	log *logger.Logger, event *events.SubmissionEvent, stage, message string) error {

	event.Status = submission.StatusFailed
	event.ErrorMessage = message
	event.CurrentStage = stage
	event.NextStage = events.StageFailed

	if err := repo.UpdateStatus(ctx, event.SubmissionID, submission.StatusFailed, &message); err != nil {
		log.Errorf("%s: could not mark submission %d failed: %v", stage, event.SubmissionID, err)
		return err
	}
	sender.Send(ctx, events.TopicFailed, event)
	return nil
}
