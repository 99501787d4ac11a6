package pipeline

import (
	"context"
	"errors"

	"submission-disk/internal/domain/submission"
	"submission-disk/internal/events"
	"submission-disk/internal/repository"
	"submission-disk/pkg/broker"
	apperrors "submission-disk/pkg/errors"
	"submission-disk/pkg/logger"
)

// ProcessingHandler consumes submission.processing. The actual content work
// (unpacking, analysis, automated checks) is the extension point; the handler
// owns the PROCESSING and COMPLETED transitions and the fan-out to the
// notification and completed topics.
type ProcessingHandler struct {
	repo   repository.SubmissionRepository
	sender EventSender
	log    *logger.Logger
}

func NewProcessingHandler(repo repository.SubmissionRepository, sender EventSender, log *logger.Logger) *ProcessingHandler {
	return &ProcessingHandler{repo: repo, sender: sender, log: log}
}

func (h *ProcessingHandler) Handle(ctx context.Context, msg broker.Message) error {
	event, err := decodeEvent(msg.Payload)
	if err != nil {
		h.log.Errorf("processing: dropping undecodable message %s: %v", msg.ID, err)
		return nil
	}
	h.log.Infof("processing: processing submission %d", event.SubmissionID)

	sub, err := h.repo.GetByID(ctx, event.SubmissionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.log.Warnf("processing: submission %d no longer exists, acknowledging", event.SubmissionID)
			return nil
		}
		h.log.Errorf("processing: load submission %d failed: %v", event.SubmissionID, err)
		return err
	}

	// STORED is the expected predecessor; PROCESSING means a consumer died
	// mid-work and the log redelivered, so the work is redone from scratch.
	if sub.Status != submission.StatusStored && sub.Status != submission.StatusProcessing {
		h.log.Infof("processing: submission %d already in status %s, treating as replay",
			event.SubmissionID, sub.Status)
		return nil
	}

	if sub.Status == submission.StatusStored {
		if err := h.repo.UpdateStatus(ctx, event.SubmissionID, submission.StatusProcessing, nil); err != nil {
			h.log.Errorf("processing: persist transition for submission %d failed: %v", event.SubmissionID, err)
			return err
		}
	}

	if err := h.process(ctx, event); err != nil {
		return failSubmission(ctx, h.repo, h.sender, h.log, event, events.StageProcessing,
			"Processing error: "+err.Error())
	}

	event.Status = submission.StatusCompleted
	event.CurrentStage = events.StageProcessing
	event.NextStage = events.StageNotification

	if err := h.repo.UpdateStatus(ctx, event.SubmissionID, submission.StatusCompleted, nil); err != nil {
		h.log.Errorf("processing: persist transition for submission %d failed: %v", event.SubmissionID, err)
		return err
	}
	h.sender.Send(ctx, events.TopicNotification, event)
	h.sender.Send(ctx, events.TopicCompleted, event)
	return nil
}

// process is the stage's payload work. Submission content handling (unzip,
// analysis, automated checks) plugs in here.
func (h *ProcessingHandler) process(ctx context.Context, event *events.SubmissionEvent) error {
	h.log.Infof("processing: submission %d contents processed", event.SubmissionID)
	return ctx.Err()
}
