package validator

import (
	"context"
	"regexp"
	"strings"

	"submission-disk/internal/events"
)

const filenameValidatorName = "FilenameValidator"

const maxFilenameLength = 255

var (
	pathTraversalPattern = regexp.MustCompile(`[/\\]\.\.[\\/]`)
	invalidCharsPattern  = regexp.MustCompile(`[<>:"|?*\x00-\x1F]`)
)

// FilenameValidator rejects filenames that are empty, over-long, contain
// traversal sequences or forbidden characters, or do not end in .zip.
type FilenameValidator struct{}

func NewFilenameValidator() *FilenameValidator {
	return &FilenameValidator{}
}

func (v *FilenameValidator) Validate(ctx context.Context, event *events.SubmissionEvent) Result {
	originalFilename := event.OriginalFileName

	if strings.TrimSpace(originalFilename) == "" {
		return Failure(v.Name(), "Filename cannot be empty")
	}

	if len(originalFilename) > maxFilenameLength {
		return Failure(v.Name(), "Filename too long (max 255 characters)")
	}

	if pathTraversalPattern.MatchString(originalFilename) {
		return Failure(v.Name(), "Invalid filename: path traversal attempt detected")
	}

	if invalidCharsPattern.MatchString(originalFilename) {
		return Failure(v.Name(), "Invalid characters in filename")
	}

	if !strings.HasSuffix(strings.ToLower(originalFilename), ".zip") {
		return Failure(v.Name(), "Invalid file extension. Only .zip files are allowed")
	}

	return Success(v.Name())
}

func (v *FilenameValidator) Name() string { return filenameValidatorName }

func (v *FilenameValidator) Order() float64 { return 5 }
