package validator

import (
	"context"
	"fmt"
	"strings"

	"submission-disk/internal/clamav"
	"submission-disk/internal/events"
)

const virusValidatorName = "VirusValidator"

// Scanner abstracts the clamd client so tests can substitute verdicts.
type Scanner interface {
	ScanFile(ctx context.Context, path string) (*clamav.ScanResult, error)
}

// VirusValidator runs the stored archive through the virus scanner. A
// disabled scanner passes everything; an unreachable or erroring scanner
// fails the submission (fail-closed).
type VirusValidator struct {
	scanner Scanner
	enabled bool
}

func NewVirusValidator(scanner Scanner, enabled bool) *VirusValidator {
	return &VirusValidator{scanner: scanner, enabled: enabled}
}

func (v *VirusValidator) Validate(ctx context.Context, event *events.SubmissionEvent) Result {
	if !v.enabled {
		return Success(v.Name())
	}

	result, err := v.scanner.ScanFile(ctx, event.StoragePath)
	if err != nil {
		return Failure(v.Name(), fmt.Sprintf("Virus scan failed: %v", err))
	}

	if result.Infected {
		return Failure(v.Name(), fmt.Sprintf("Virus detected: %s", strings.Join(result.Viruses, ", ")))
	}

	return Success(v.Name())
}

func (v *VirusValidator) Name() string { return virusValidatorName }

func (v *VirusValidator) Order() float64 { return 20 }
