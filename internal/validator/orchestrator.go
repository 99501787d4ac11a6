package validator

import (
	"context"
	"sort"

	"submission-disk/internal/events"
	"submission-disk/pkg/logger"
)

// OrchestratorName is the validator name attached to the synthetic success
// returned when every registered validator passes.
const OrchestratorName = "orchestrator"

// Orchestrator runs all registered validators in ascending order and stops at
// the first failure. It is stateless after construction: the validator list
// is sorted once and never mutated.
type Orchestrator struct {
	validators []Validator
	log        *logger.Logger
}

func NewOrchestrator(log *logger.Logger, validators ...Validator) *Orchestrator {
	sorted := make([]Validator, len(validators))
	copy(sorted, validators)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order() != sorted[j].Order() {
			return sorted[i].Order() < sorted[j].Order()
		}
		// Name tiebreak keeps execution order reproducible.
		return sorted[i].Name() < sorted[j].Name()
	})
	return &Orchestrator{validators: sorted, log: log}
}

// ValidateAll executes the chain fail-fast: the first failing result is
// returned unchanged and the remaining validators are skipped.
func (o *Orchestrator) ValidateAll(ctx context.Context, event *events.SubmissionEvent) Result {
	o.log.Infof("starting validation of submission %d with %d validator(s)",
		event.SubmissionID, len(o.validators))

	for _, v := range o.validators {
		result := v.Validate(ctx, event)
		if !result.Valid {
			o.log.Warnf("validation of submission %d failed at %s: %s",
				event.SubmissionID, result.ValidatorName, result.ErrorMessage)
			return result
		}
		o.log.Debugf("validator %s passed for submission %d", v.Name(), event.SubmissionID)
	}

	o.log.Infof("all %d validator(s) passed for submission %d", len(o.validators), event.SubmissionID)
	return Success(OrchestratorName)
}

// Validators returns the chain in execution order.
func (o *Orchestrator) Validators() []Validator {
	out := make([]Validator, len(o.validators))
	copy(out, o.validators)
	return out
}

// LogValidators dumps the registered chain, used once at startup.
func (o *Orchestrator) LogValidators() {
	o.log.Infof("registered validators (%d):", len(o.validators))
	for _, v := range o.validators {
		o.log.Infof("  - %s (order: %g)", v.Name(), v.Order())
	}
}
