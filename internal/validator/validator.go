// Package validator implements the submission validation chain: independent
// checks ordered by a numeric priority and executed fail-fast.
package validator

import (
	"context"

	"submission-disk/internal/events"
)

// Validator is a single validation rule. Name is stable and used for error
// attribution; Order decides execution position (lower runs first, fractional
// values allow insertion between existing validators without renumbering).
type Validator interface {
	Validate(ctx context.Context, event *events.SubmissionEvent) Result
	Name() string
	Order() float64
}

// Result is the outcome of one validation rule.
type Result struct {
	Valid         bool
	ValidatorName string
	ErrorMessage  string
}

func Success(validatorName string) Result {
	return Result{Valid: true, ValidatorName: validatorName}
}

func Failure(validatorName, errorMessage string) Result {
	return Result{Valid: false, ValidatorName: validatorName, ErrorMessage: errorMessage}
}
