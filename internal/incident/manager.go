package incident

import (
	"context"
	"fmt"
	"time"

	"homeguard-engine/internal/emergency"
	"homeguard-engine/internal/models"
	"homeguard-engine/internal/notifier"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertDispatcher populates alertsSent for a new incident
type AlertDispatcher interface {
	Dispatch(incident *models.Incident, emergencyLabel string) []models.AlertRecord
}

// CheckScheduler schedules the post-resolution wellbeing check
type CheckScheduler interface {
	Schedule(incidentID string, now time.Time) models.WellbeingCheck
}

// Store optional persistence collaborator for the incident log. Failures are
// logged, never surfaced: persistence is not part of the lifecycle contract.
type Store interface {
	SaveIncident(ctx context.Context, inc *models.Incident) error
	MarkResolved(ctx context.Context, inc *models.Incident) error
}

// Manager owns every incident from detection to resolution: creation with
// dedup against the active set, protocol execution, alert dispatch, and the
// resolution path with recovery planning.
type Manager struct {
	catalog    *emergency.Catalog
	executor   *Executor
	dispatcher AlertDispatcher
	safety     SafetyEffects
	checks     CheckScheduler
	store      Store // may be nil
	notifier   notifier.Notifier
	logger     *zap.Logger
	nowFn      func() time.Time

	activeByID   map[string]*models.Incident
	activeByType map[string]*models.Incident
	log          []*models.Incident // append-only
}

// NewManager wires the lifecycle manager
func NewManager(
	catalog *emergency.Catalog,
	dispatcher AlertDispatcher,
	safety SafetyEffects,
	checks CheckScheduler,
	store Store,
	n notifier.Notifier,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		catalog:      catalog,
		executor:     NewExecutor(safety, logger),
		dispatcher:   dispatcher,
		safety:       safety,
		checks:       checks,
		store:        store,
		notifier:     n,
		logger:       logger,
		nowFn:        time.Now,
		activeByID:   make(map[string]*models.Incident),
		activeByType: make(map[string]*models.Incident),
	}
}

// Trigger opens an incident of the given type, or deduplicates onto the
// already-active incident of that type. Returns the incident and whether a
// new one was created.
func (m *Manager) Trigger(typeID, reason string, details map[string]interface{}) (*models.Incident, bool, error) {
	etype, err := m.catalog.Get(typeID)
	if err != nil {
		return nil, false, err
	}

	now := m.nowFn()

	// dedup: at most one active incident per type
	if existing, ok := m.activeByType[typeID]; ok {
		existing.Updates = append(existing.Updates, models.IncidentUpdate{
			Reason:    reason,
			Timestamp: now,
		})
		existing.Reason = reason
		m.logger.Info("Incident update appended (type already active)",
			zap.String("incident_id", existing.ID),
			zap.String("type_id", typeID),
			zap.String("reason", reason),
		)
		return existing, false, nil
	}

	inc := &models.Incident{
		ID:              uuid.New().String(),
		TypeID:          typeID,
		Severity:        etype.BaseSeverity,
		Status:          models.IncidentActive,
		Reason:          reason,
		Details:         details,
		TriggeredAt:     now,
		ActionsExecuted: []models.ActionRecord{},
		AlertsSent:      []models.AlertRecord{},
		Updates:         []models.IncidentUpdate{},
	}

	// synchronous response protocol; failed steps are recorded, not fatal
	for _, step := range etype.ResponseProtocol {
		inc.ActionsExecuted = append(inc.ActionsExecuted, m.executor.Execute(step, inc, now))
	}

	inc.AlertsSent = m.dispatcher.Dispatch(inc, etype.Label)

	m.activeByID[inc.ID] = inc
	m.activeByType[typeID] = inc
	m.log = append(m.log, inc)

	if m.store != nil {
		if err := m.store.SaveIncident(context.Background(), inc); err != nil {
			m.logger.Error("Failed to persist incident",
				zap.String("incident_id", inc.ID),
				zap.Error(err),
			)
		}
	}

	m.logger.Info("Incident created",
		zap.String("incident_id", inc.ID),
		zap.String("type_id", typeID),
		zap.Int("severity", inc.Severity),
		zap.String("reason", reason),
	)
	m.notifier.Publish(notifier.KindIncidentCreated, inc)

	return inc, true, nil
}

// Resolve closes an active incident: stamps resolvedAt/responseTimeMs exactly
// once, turns off emergency lighting, schedules the wellbeing check, lifts
// lockdown when it was the last active incident, and returns the recovery
// plan (nil when the type defines no recovery steps).
func (m *Manager) Resolve(incidentID, resolution string) (*models.Incident, *models.RecoveryPlan, error) {
	inc, ok := m.activeByID[incidentID]
	if !ok {
		for _, logged := range m.log {
			if logged.ID == incidentID {
				return nil, nil, fmt.Errorf("incident %s already resolved: %w", incidentID, models.ErrInvalidTransition)
			}
		}
		return nil, nil, fmt.Errorf("incident %s: %w", incidentID, models.ErrNotFound)
	}

	now := m.nowFn()
	if resolution == "" {
		resolution = "Manually resolved"
	}

	inc.Status = models.IncidentResolved
	ts := now
	inc.ResolvedAt = &ts
	inc.Resolution = &resolution
	rt := now.Sub(inc.TriggeredAt).Milliseconds()
	if rt < 0 {
		rt = 0
	}
	inc.ResponseTimeMs = &rt

	delete(m.activeByID, incidentID)
	delete(m.activeByType, inc.TypeID)

	m.safety.DeactivateLighting()

	check := m.checks.Schedule(inc.ID, now)
	m.notifier.Publish(notifier.KindWellbeingScheduled, check)

	if len(m.activeByID) == 0 {
		m.safety.DeactivateLockdown("all incidents resolved")
	}

	var plan *models.RecoveryPlan
	if etype, err := m.catalog.Get(inc.TypeID); err == nil && len(etype.RecoverySteps) > 0 {
		plan = &models.RecoveryPlan{
			IncidentID: inc.ID,
			TypeID:     inc.TypeID,
			CreatedAt:  now,
		}
		for i, desc := range etype.RecoverySteps {
			plan.Steps = append(plan.Steps, models.RecoveryStep{
				Seq:         i + 1,
				Description: desc,
				Status:      models.RecoveryStepPending,
			})
		}
	}

	if m.store != nil {
		if err := m.store.MarkResolved(context.Background(), inc); err != nil {
			m.logger.Error("Failed to persist resolution",
				zap.String("incident_id", inc.ID),
				zap.Error(err),
			)
		}
	}

	m.logger.Info("Incident resolved",
		zap.String("incident_id", inc.ID),
		zap.String("type_id", inc.TypeID),
		zap.String("resolution", resolution),
		zap.Int64("response_time_ms", rt),
	)
	m.notifier.Publish(notifier.KindIncidentResolved, inc)

	return inc, plan, nil
}

// ActiveByType returns the active incident of a type, if any
func (m *Manager) ActiveByType(typeID string) (*models.Incident, bool) {
	inc, ok := m.activeByType[typeID]
	return inc, ok
}

// ActiveCount number of currently active incidents
func (m *Manager) ActiveCount() int {
	return len(m.activeByID)
}

// Active returns snapshots of all active incidents, oldest first
func (m *Manager) Active() []models.Incident {
	var out []models.Incident
	for _, inc := range m.log {
		if inc.Status == models.IncidentActive {
			if _, ok := m.activeByID[inc.ID]; ok {
				out = append(out, *inc)
			}
		}
	}
	return out
}

// History returns the incident log newest first, up to limit (0 = all)
func (m *Manager) History(limit int) []models.Incident {
	n := len(m.log)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.Incident, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, *m.log[i])
	}
	return out
}

// TotalCount size of the append-only incident log
func (m *Manager) TotalCount() int {
	return len(m.log)
}

// CountByType incident totals per emergency type across the whole log
func (m *Manager) CountByType() map[string]int {
	out := make(map[string]int)
	for _, inc := range m.log {
		out[inc.TypeID]++
	}
	return out
}

// AverageResponseMs mean response time across resolved incidents (0 if none)
func (m *Manager) AverageResponseMs() int64 {
	var sum, n int64
	for _, inc := range m.log {
		if inc.ResponseTimeMs != nil {
			sum += *inc.ResponseTimeMs
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// SetClock replaces the manager's time source
func (m *Manager) SetClock(fn func() time.Time) {
	m.nowFn = fn
}

// ClearActive drops the active set on engine stop; the log is retained
func (m *Manager) ClearActive() {
	m.activeByID = make(map[string]*models.Incident)
	m.activeByType = make(map[string]*models.Incident)
}
