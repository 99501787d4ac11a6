package httpdto

import (
	"time"

	"submission-disk/internal/domain/submission"
)

// SubmissionResponse is the public view of a submission. Storage internals
// (stored filename, path) stay server-side.
type SubmissionResponse struct {
	ID               int64      `json:"id"`
	FileName         string     `json:"fileName"`
	OriginalFileName string     `json:"originalFileName"`
	FileSize         int64      `json:"fileSize"`
	Description      string     `json:"description,omitempty"`
	SubmittedBy      string     `json:"submittedBy,omitempty"`
	Status           string     `json:"status"`
	SubmittedAt      time.Time  `json:"submittedAt"`
	ProcessedAt      *time.Time `json:"processedAt,omitempty"`
	Checksum         string     `json:"checksum"`
	ErrorMessage     string     `json:"errorMessage,omitempty"`
}

func NewSubmissionResponse(sub *submission.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:               sub.ID,
		FileName:         sub.OriginalFileName,
		OriginalFileName: sub.OriginalFileName,
		FileSize:         sub.FileSize,
		Description:      sub.Description,
		SubmittedBy:      sub.SubmittedBy,
		Status:           string(sub.Status),
		SubmittedAt:      sub.SubmittedAt,
		ProcessedAt:      sub.ProcessedAt,
		Checksum:         sub.Checksum,
		ErrorMessage:     sub.ErrorMessage,
	}
}

func NewSubmissionListResponse(subs []submission.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, NewSubmissionResponse(&subs[i]))
	}
	return out
}
