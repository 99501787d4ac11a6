package validator

import (
	"context"
	"errors"
	"fmt"

	"submission-disk/internal/events"
	"submission-disk/internal/repository"
	apperrors "submission-disk/pkg/errors"
)

const duplicateValidatorName = "DuplicateValidator"

// DuplicateValidator rejects a submission whose checksum matches an earlier
// submission with a different id. Uniqueness is enforced here, not by a
// database constraint: two concurrent uploads of the same bytes may both
// insert, and the later one is caught on this path.
type DuplicateValidator struct {
	repo repository.SubmissionRepository
}

func NewDuplicateValidator(repo repository.SubmissionRepository) *DuplicateValidator {
	return &DuplicateValidator{repo: repo}
}

func (v *DuplicateValidator) Validate(ctx context.Context, event *events.SubmissionEvent) Result {
	existing, err := v.repo.FindByChecksum(ctx, event.Checksum)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return Success(v.Name())
		}
		return Failure(v.Name(), fmt.Sprintf("Error checking for duplicates: %v", err))
	}

	if existing.ID != event.SubmissionID {
		return Failure(v.Name(), fmt.Sprintf(
			"This file has already been submitted (Submission ID: %d)", existing.ID))
	}

	return Success(v.Name())
}

func (v *DuplicateValidator) Name() string { return duplicateValidatorName }

func (v *DuplicateValidator) Order() float64 { return 10 }
