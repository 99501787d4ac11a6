package events

import (
	"time"

	"submission-disk/internal/domain/submission"
)

// Topic names, one per stage transition. submission.received is declared for
// parity with the deployed topic set but nothing publishes to it: the ingress
// event goes straight to submission.validation.
const (
	TopicReceived     = "submission.received"
	TopicValidation   = "submission.validation"
	TopicStorage      = "submission.storage"
	TopicProcessing   = "submission.processing"
	TopicNotification = "submission.notification"
	TopicFailed       = "submission.failed"
	TopicCompleted    = "submission.completed"
)

// Topics lists every topic in pipeline order.
var Topics = []string{
	TopicReceived,
	TopicValidation,
	TopicStorage,
	TopicProcessing,
	TopicNotification,
	TopicFailed,
	TopicCompleted,
}

// Stage names carried in the event envelope. These are observability strings,
// not the status machine.
const (
	StageReceived     = "RECEIVED"
	StageValidation   = "VALIDATION"
	StageStorage      = "STORAGE"
	StageProcessing   = "PROCESSING"
	StageNotification = "NOTIFICATION"
	StageFailed       = "FAILED"
)

// SubmissionEvent is the message that flows through the pipeline. It carries
// the full snapshot a handler needs so the hot path never re-reads the row
// for routing decisions; the handler remains authoritative for state.
type SubmissionEvent struct {
	SubmissionID     int64             `json:"submissionId"`
	FileName         string            `json:"fileName"`
	OriginalFileName string            `json:"originalFileName"`
	FileSize         int64             `json:"fileSize"`
	ContentType      string            `json:"contentType"`
	StoragePath      string            `json:"storagePath"`
	Description      string            `json:"description,omitempty"`
	SubmittedBy      string            `json:"submittedBy,omitempty"`
	Status           submission.Status `json:"status"`
	Checksum         string            `json:"checksum"`
	Timestamp        time.Time         `json:"timestamp"`
	ErrorMessage     string            `json:"errorMessage,omitempty"`

	// Pipeline stage tracking
	CurrentStage string `json:"currentStage"`
	NextStage    string `json:"nextStage"`
}

// FromSubmission builds the event snapshot for a freshly accepted submission.
func FromSubmission(sub *submission.Submission) *SubmissionEvent {
	return &SubmissionEvent{
		SubmissionID:     sub.ID,
		FileName:         sub.FileName,
		OriginalFileName: sub.OriginalFileName,
		FileSize:         sub.FileSize,
		ContentType:      sub.ContentType,
		StoragePath:      sub.StoragePath,
		Description:      sub.Description,
		SubmittedBy:      sub.SubmittedBy,
		Status:           sub.Status,
		Checksum:         sub.Checksum,
		Timestamp:        time.Now().UTC(),
	}
}
