package services

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"submission-disk/internal/domain/submission"
	"submission-disk/internal/events"
	"submission-disk/internal/pipeline"
	"submission-disk/internal/repository"
	"submission-disk/internal/storage"
	apperrors "submission-disk/pkg/errors"
	"submission-disk/pkg/logger"
)

// UploadFile is the slice of multipart.File the service needs: sequential
// reads for hashing and storing, random access for the ZIP sniff.
type UploadFile interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// SubmitInput carries one upload through ingress.
type SubmitInput struct {
	File         UploadFile
	Size         int64
	OriginalName string
	ContentType  string
	Description  string
	SubmittedBy  string
}

// SubmissionService owns ingress and the admin operations on submissions.
// Ingress commits the PENDING row before publishing; a lost publish leaves a
// PENDING row behind rather than rolling anything back, since the stored
// archive and the row are the durable record.
type SubmissionService struct {
	repo   repository.SubmissionRepository
	store  *storage.Store
	sender pipeline.EventSender
	log    *logger.Logger
}

func NewSubmissionService(repo repository.SubmissionRepository, store *storage.Store,
	sender pipeline.EventSender, log *logger.Logger) *SubmissionService {
	return &SubmissionService{repo: repo, store: store, sender: sender, log: log}
}

// Submit accepts an upload, stores the archive, creates the PENDING row and
// hands the submission to the validation stage.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (*submission.Submission, error) {
	if in.Size <= 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", apperrors.ErrInvalidInput)
	}
	if !strings.HasSuffix(strings.ToLower(in.OriginalName), ".zip") {
		return nil, fmt.Errorf("%w: only .zip files are accepted", apperrors.ErrInvalidInput)
	}

	// Sniff the archive before touching disk: the central directory must
	// parse and hold at least one entry. Deep ZIP checks run in the
	// validation stage.
	zr, err := zip.NewReader(in.File, in.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: file is not a valid ZIP archive", apperrors.ErrInvalidInput)
	}
	if len(zr.File) == 0 {
		return nil, fmt.Errorf("%w: ZIP archive contains no entries", apperrors.ErrInvalidInput)
	}

	if _, err := in.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}
	checksum, err := storage.Checksum(in.File)
	if err != nil {
		return nil, fmt.Errorf("checksum upload: %w", err)
	}
	if _, err := in.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	storedName, path, err := s.store.Save(in.File, in.OriginalName)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	sub := &submission.Submission{
		FileName:         storedName,
		OriginalFileName: in.OriginalName,
		FileSize:         in.Size,
		ContentType:      in.ContentType,
		StoragePath:      path,
		Description:      in.Description,
		SubmittedBy:      in.SubmittedBy,
		Status:           submission.StatusPending,
		Checksum:         checksum,
		SubmittedAt:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		if cleanupErr := s.store.Delete(path); cleanupErr != nil {
			s.log.Errorf("orphaned archive at %s after failed insert: %v", path, cleanupErr)
		}
		return nil, fmt.Errorf("create submission: %w", err)
	}

	event := events.FromSubmission(sub)
	event.CurrentStage = events.StageReceived
	event.NextStage = events.StageValidation
	s.sender.Send(ctx, events.TopicValidation, event)

	s.log.Infof("accepted submission %d (%s, %d bytes) from %s",
		sub.ID, sub.OriginalFileName, sub.FileSize, sub.SubmittedBy)
	return sub, nil
}

func (s *SubmissionService) GetByID(ctx context.Context, id int64) (*submission.Submission, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns submissions filtered by status or submitter. A status filter
// takes precedence when both are given.
func (s *SubmissionService) List(ctx context.Context, status, submittedBy string) ([]submission.Submission, error) {
	if status != "" {
		parsed, err := submission.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
		}
		return s.repo.ListByStatus(ctx, parsed)
	}
	if submittedBy != "" {
		return s.repo.ListBySubmitter(ctx, submittedBy)
	}
	return s.repo.List(ctx)
}

// UpdateStatus is the admin override. The target status must be reachable
// from the current one; this is the only path that can set REJECTED.
func (s *SubmissionService) UpdateStatus(ctx context.Context, id int64, status string) (*submission.Submission, error) {
	parsed, err := submission.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := sub.Status.CanTransitionTo(parsed)
	if parsed == submission.StatusRejected {
		// Rejection is the one move the pipeline never makes; admins may
		// reject anything still in flight.
		allowed = !sub.Status.IsTerminal() && sub.Status != submission.StatusRejected
	}
	if !allowed {
		return nil, fmt.Errorf("%w: cannot transition from %s to %s",
			apperrors.ErrInvalidTransition, sub.Status, parsed)
	}
	if err := s.repo.UpdateStatus(ctx, id, parsed, nil); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes the stored archive first, then the row. A missing archive is
// tolerated; a row that vanishes mid-delete is not an error either way.
func (s *SubmissionService) Delete(ctx context.Context, id int64) error {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(sub.StoragePath); err != nil {
		return fmt.Errorf("delete archive for submission %d: %w", id, err)
	}
	return s.repo.Delete(ctx, id)
}
