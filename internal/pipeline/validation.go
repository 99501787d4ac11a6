package pipeline

import (
	"context"
	"errors"

	"submission-disk/internal/domain/submission"
	"submission-disk/internal/events"
	"submission-disk/internal/repository"
	"submission-disk/internal/validator"
	"submission-disk/pkg/broker"
	apperrors "submission-disk/pkg/errors"
	"submission-disk/pkg/logger"
)

// ValidationHandler consumes submission.validation, runs the validator chain
// and routes the submission to storage or to the failed sink.
type ValidationHandler struct {
	repo         repository.SubmissionRepository
	sender       EventSender
	orchestrator *validator.Orchestrator
	log          *logger.Logger
}

func NewValidationHandler(repo repository.SubmissionRepository, sender EventSender,
	orchestrator *validator.Orchestrator, log *logger.Logger) *ValidationHandler {
	return &ValidationHandler{repo: repo, sender: sender, orchestrator: orchestrator, log: log}
}

func (h *ValidationHandler) Handle(ctx context.Context, msg broker.Message) error {
	event, err := decodeEvent(msg.Payload)
	if err != nil {
		h.log.Errorf("validation: dropping undecodable message %s: %v", msg.ID, err)
		return nil
	}
	h.log.Infof("validation: processing submission %d", event.SubmissionID)

	sub, err := h.repo.GetByID(ctx, event.SubmissionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.log.Warnf("validation: submission %d no longer exists, acknowledging", event.SubmissionID)
			return nil
		}
		h.log.Errorf("validation: load submission %d failed: %v", event.SubmissionID, err)
		return err
	}

	// At-least-once duplicate: the row already moved past PENDING.
	if sub.Status != submission.StatusPending {
		h.log.Infof("validation: submission %d already in status %s, treating as replay",
			event.SubmissionID, sub.Status)
		return nil
	}

	result := h.orchestrator.ValidateAll(ctx, event)
	if !result.Valid {
		message := result.ErrorMessage
		if result.ValidatorName != "" {
			message = result.ValidatorName + ": " + message
		}
		return failSubmission(ctx, h.repo, h.sender, h.log, event, events.StageValidation, message)
	}

	event.Status = submission.StatusValidated
	event.CurrentStage = events.StageValidation
	event.NextStage = events.StageStorage

	if err := h.repo.UpdateStatus(ctx, event.SubmissionID, submission.StatusValidated, nil); err != nil {
		h.log.Errorf("validation: persist transition for submission %d failed: %v", event.SubmissionID, err)
		return err
	}
	h.sender.Send(ctx, events.TopicStorage, event)
	return nil
}
