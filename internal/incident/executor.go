package incident

import (
	"fmt"
	"time"

	"homeguard-engine/internal/models"

	"go.uber.org/zap"
)

// SafetyEffects the side effects protocol steps are allowed to drive.
// Implemented by the safety controller; tests supply fakes.
type SafetyEffects interface {
	ActivateLighting() int
	DeactivateLighting() int
	ActivateLockdown(reason string) bool
	DeactivateLockdown(reason string) bool
}

// Executor interprets the tagged protocol actions for one incident. Each
// step is idempotent; a failed step is recorded and never aborts the
// remaining steps.
type Executor struct {
	safety SafetyEffects
	logger *zap.Logger
}

// NewExecutor creates an executor over the safety effects
func NewExecutor(safety SafetyEffects, logger *zap.Logger) *Executor {
	return &Executor{
		safety: safety,
		logger: logger,
	}
}

// Execute runs one protocol step and returns its record
func (e *Executor) Execute(step models.ActionStep, inc *models.Incident, now time.Time) models.ActionRecord {
	record := models.ActionRecord{
		Kind:        step.Kind,
		Description: step.Description,
		Result:      models.ActionResultOK,
		Timestamp:   now,
	}

	if err := e.run(step, inc); err != nil {
		record.Result = models.ActionResultFailed
		record.Error = err.Error()
		e.logger.Error("Protocol step failed",
			zap.String("incident_id", inc.ID),
			zap.String("kind", string(step.Kind)),
			zap.Error(err),
		)
		return record
	}

	e.logger.Debug("Protocol step executed",
		zap.String("incident_id", inc.ID),
		zap.String("kind", string(step.Kind)),
	)
	return record
}

func (e *Executor) run(step models.ActionStep, inc *models.Incident) error {
	switch step.Kind {
	case models.ActionActivateLighting:
		e.safety.ActivateLighting()
	case models.ActionLockdown:
		e.safety.ActivateLockdown(inc.Reason)
	case models.ActionUnlockExits,
		models.ActionGasShutoff,
		models.ActionVentilate,
		models.ActionPowerCheck,
		models.ActionBroadcast,
		models.ActionMedicalInfo,
		models.ActionDocument:
		// device-facing actions are collaborator responsibilities;
		// recording the step is the engine's obligation
	case models.ActionNotifyContacts:
		// contact delivery happens through the alert dispatcher, which
		// records into alertsSent
	default:
		return fmt.Errorf("unknown action kind %q", step.Kind)
	}
	return nil
}
