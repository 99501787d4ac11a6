package validator

import (
	"archive/zip"
	"context"
	"fmt"
	"strings"

	"submission-disk/internal/events"
)

const fileContentValidatorName = "FileContentValidator"

// FileContentValidator walks the archive structure. It rejects archives with
// too many entries, entry names that escape the extraction root, empty
// archives, and decompression bombs (uncompressed total over compressed size
// beyond the configured ratio).
type FileContentValidator struct {
	maxEntries int
	maxRatio   int
}

func NewFileContentValidator(maxEntries, maxRatio int) *FileContentValidator {
	return &FileContentValidator{maxEntries: maxEntries, maxRatio: maxRatio}
}

func (v *FileContentValidator) Validate(ctx context.Context, event *events.SubmissionEvent) Result {
	r, err := zip.OpenReader(event.StoragePath)
	if err != nil {
		return Failure(v.Name(), fmt.Sprintf("Invalid ZIP file format: %v", err))
	}
	defer r.Close()

	if len(r.File) > v.maxEntries {
		return Failure(v.Name(), fmt.Sprintf(
			"ZIP file contains too many entries (maximum: %d)", v.maxEntries))
	}

	var totalUncompressed uint64
	for _, entry := range r.File {
		name := entry.Name
		if strings.Contains(name, "..") || strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
			return Failure(v.Name(), fmt.Sprintf("ZIP contains invalid entry path: %s", name))
		}
		if !entry.FileInfo().IsDir() {
			totalUncompressed += entry.UncompressedSize64
		}
	}

	if len(r.File) == 0 {
		return Failure(v.Name(), "ZIP file is empty")
	}

	// Declared sizes are enough to flag a bomb; nothing is decompressed here.
	totalCompressed := uint64(event.FileSize)
	if totalCompressed > 0 && totalUncompressed > 0 {
		ratio := totalUncompressed / totalCompressed
		if ratio > uint64(v.maxRatio) {
			return Failure(v.Name(), "Suspicious compression ratio detected (possible zip bomb)")
		}
	}

	return Success(v.Name())
}

func (v *FileContentValidator) Name() string { return fileContentValidatorName }

func (v *FileContentValidator) Order() float64 { return 15 }
