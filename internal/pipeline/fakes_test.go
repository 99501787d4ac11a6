package pipeline

import (
	"context"
	"sync"
	"time"

	"submission-disk/internal/domain/submission"
	"submission-disk/internal/events"
	apperrors "submission-disk/pkg/errors"
)

// fakeRepo is an in-memory SubmissionRepository.
type fakeRepo struct {
	mu     sync.Mutex
	rows   map[int64]*submission.Submission
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[int64]*submission.Submission{}, nextID: 1}
}

func (f *fakeRepo) put(sub *submission.Submission) *submission.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub.ID == 0 {
		sub.ID = f.nextID
		f.nextID++
	}
	f.rows[sub.ID] = sub
	return sub
}

func (f *fakeRepo) Create(ctx context.Context, sub *submission.Submission) error {
	if sub.Status == "" {
		sub.Status = submission.StatusPending
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	f.put(sub)
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (*submission.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *sub
	return &copied, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]submission.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []submission.Submission
	for _, sub := range f.rows {
		out = append(out, *sub)
	}
	return out, nil
}

func (f *fakeRepo) ListByStatus(ctx context.Context, status submission.Status) ([]submission.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []submission.Submission
	for _, sub := range f.rows {
		if sub.Status == status {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListBySubmitter(ctx context.Context, submittedBy string) ([]submission.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []submission.Submission
	for _, sub := range f.rows {
		if sub.SubmittedBy == submittedBy {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindByChecksum(ctx context.Context, checksum string) (*submission.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var oldest *submission.Submission
	for _, sub := range f.rows {
		if sub.Checksum == checksum && (oldest == nil || sub.ID < oldest.ID) {
			oldest = sub
		}
	}
	if oldest == nil {
		return nil, apperrors.ErrNotFound
	}
	copied := *oldest
	return &copied, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id int64, status submission.Status, errorMessage *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	sub.Status = status
	if errorMessage != nil {
		sub.ErrorMessage = *errorMessage
	}
	if status.IsTerminal() && sub.ProcessedAt == nil {
		now := time.Now().UTC()
		sub.ProcessedAt = &now
	}
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// fakeSender records every Send.
type fakeSender struct {
	mu    sync.Mutex
	sends []sentEvent
}

type sentEvent struct {
	topic string
	event events.SubmissionEvent
}

func (f *fakeSender) Send(ctx context.Context, topic string, event *events.SubmissionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentEvent{topic: topic, event: *event})
}

func (f *fakeSender) sent() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentEvent, len(f.sends))
	copy(out, f.sends)
	return out
}
