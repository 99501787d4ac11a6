package repository

import (
	"context"

	"submission-disk/internal/domain/submission"
)

// SubmissionRepository is the persistence boundary for submissions. Stage
// handlers, validators and the HTTP surface all go through this interface so
// tests can substitute in-memory fakes.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *submission.Submission) error
	GetByID(ctx context.Context, id int64) (*submission.Submission, error)
	List(ctx context.Context) ([]submission.Submission, error)
	ListByStatus(ctx context.Context, status submission.Status) ([]submission.Submission, error)
	ListBySubmitter(ctx context.Context, submittedBy string) ([]submission.Submission, error)
	// FindByChecksum returns the oldest submission with the given checksum.
	FindByChecksum(ctx context.Context, checksum string) (*submission.Submission, error)
	// UpdateStatus persists a status change. A non-nil errorMessage replaces
	// the stored one; entering a terminal status stamps processed_at.
	UpdateStatus(ctx context.Context, id int64, status submission.Status, errorMessage *string) error
	Delete(ctx context.Context, id int64) error
}
