package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"submission-disk/internal/domain/submission"
	"submission-disk/internal/events"
	"submission-disk/internal/repository"
	"submission-disk/pkg/broker"
	apperrors "submission-disk/pkg/errors"
	"submission-disk/pkg/logger"
)

// StorageHandler consumes submission.storage. The archive was written during
// ingress, so this stage only confirms the bytes are still addressable before
// handing the submission to processing. It is the extension point for moving
// archives to long-term storage or generating previews.
type StorageHandler struct {
	repo   repository.SubmissionRepository
	sender EventSender
	log    *logger.Logger
}

func NewStorageHandler(repo repository.SubmissionRepository, sender EventSender, log *logger.Logger) *StorageHandler {
	return &StorageHandler{repo: repo, sender: sender, log: log}
}

func (h *StorageHandler) Handle(ctx context.Context, msg broker.Message) error {
	event, err := decodeEvent(msg.Payload)
	if err != nil {
		h.log.Errorf("storage: dropping undecodable message %s: %v", msg.ID, err)
		return nil
	}
	h.log.Infof("storage: processing submission %d", event.SubmissionID)

	sub, err := h.repo.GetByID(ctx, event.SubmissionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.log.Warnf("storage: submission %d no longer exists, acknowledging", event.SubmissionID)
			return nil
		}
		h.log.Errorf("storage: load submission %d failed: %v", event.SubmissionID, err)
		return err
	}

	if sub.Status != submission.StatusValidated {
		h.log.Infof("storage: submission %d already in status %s, treating as replay",
			event.SubmissionID, sub.Status)
		return nil
	}

	if _, err := os.Stat(event.StoragePath); err != nil {
		return failSubmission(ctx, h.repo, h.sender, h.log, event, events.StageStorage,
			fmt.Sprintf("Storage error: %v", err))
	}
	h.log.Infof("storage: confirmed archive for submission %d at %s", event.SubmissionID, event.StoragePath)

	event.Status = submission.StatusStored
	event.CurrentStage = events.StageStorage
	event.NextStage = events.StageProcessing

	if err := h.repo.UpdateStatus(ctx, event.SubmissionID, submission.StatusStored, nil); err != nil {
		h.log.Errorf("storage: persist transition for submission %d failed: %v", event.SubmissionID, err)
		return err
	}
	h.sender.Send(ctx, events.TopicProcessing, event)
	return nil
}
