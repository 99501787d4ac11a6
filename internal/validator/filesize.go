package validator

import (
	"context"
	"fmt"
	"os"

	"submission-disk/internal/events"

	"github.com/dustin/go-humanize"
)

const fileSizeValidatorName = "FileSizeValidator"

// FileSizeValidator checks the reported size against the configured limits,
// verifies the archive exists at its storage path, and compares the on-disk
// size against the reported one (a mismatch means corruption).
type FileSizeValidator struct {
	minFileSize int64
	maxFileSize int64
}

func NewFileSizeValidator(minFileSize, maxFileSize int64) *FileSizeValidator {
	return &FileSizeValidator{minFileSize: minFileSize, maxFileSize: maxFileSize}
}

func (v *FileSizeValidator) Validate(ctx context.Context, event *events.SubmissionEvent) Result {
	fileSize := event.FileSize

	if fileSize < v.minFileSize {
		return Failure(v.Name(), fmt.Sprintf(
			"File is empty or too small (minimum: %s, received: %s)",
			humanize.IBytes(uint64(v.minFileSize)), humanize.IBytes(uint64(fileSize))))
	}

	if fileSize > v.maxFileSize {
		return Failure(v.Name(), fmt.Sprintf(
			"File too large (maximum: %s, received: %s)",
			humanize.IBytes(uint64(v.maxFileSize)), humanize.IBytes(uint64(fileSize))))
	}

	info, err := os.Stat(event.StoragePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Failure(v.Name(), "File not found at storage location")
		}
		return Failure(v.Name(), fmt.Sprintf("Error verifying file: %v", err))
	}

	if info.Size() != fileSize {
		return Failure(v.Name(), "File size mismatch detected (possible corruption)")
	}

	return Success(v.Name())
}

func (v *FileSizeValidator) Name() string { return fileSizeValidatorName }

func (v *FileSizeValidator) Order() float64 { return 3 }
