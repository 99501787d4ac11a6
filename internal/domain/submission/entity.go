package submission

import (
	"fmt"
	"time"
)

// Status is the authoritative lifecycle state of a submission.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusValidated  Status = "VALIDATED"
	StatusStored     Status = "STORED"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusRejected   Status = "REJECTED"
)

// transitions lists the states the pipeline may move a submission into.
// REJECTED is absent: only the admin surface sets it.
var transitions = map[Status][]Status{
	StatusPending:    {StatusValidated, StatusFailed},
	StatusValidated:  {StatusStored, StatusFailed},
	StatusStored:     {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// CanTransitionTo reports whether the pipeline may move from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s ends the pipeline. processed_at is set
// exactly when a submission enters one of these states.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus converts a string into a Status.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusPending, StatusValidated, StatusStored, StatusProcessing,
		StatusCompleted, StatusFailed, StatusRejected:
		return Status(value), nil
	}
	return "", fmt.Errorf("unknown submission status: %q", value)
}

// Submission represents a row in the submissions table.
type Submission struct {
	ID               int64
	FileName         string
	OriginalFileName string
	FileSize         int64
	ContentType      string
	StoragePath      string
	Description      string
	SubmittedBy      string
	Status           Status
	Checksum         string
	ErrorMessage     string
	SubmittedAt      time.Time
	ProcessedAt      *time.Time
}
