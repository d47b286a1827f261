package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"homeguard-engine/internal/alert"
	"homeguard-engine/internal/config"
	"homeguard-engine/internal/consumer"
	"homeguard-engine/internal/correlation"
	"homeguard-engine/internal/emergency"
	"homeguard-engine/internal/incident"
	"homeguard-engine/internal/models"
	"homeguard-engine/internal/notifier"
	"homeguard-engine/internal/power"
	"homeguard-engine/internal/registry"
	"homeguard-engine/internal/safety"
	"homeguard-engine/internal/wellbeing"

	"go.uber.org/zap"
)

// overdueCheckAge pending wellbeing checks older than this are reported by
// the wellbeing poll.
const overdueCheckAge = 5 * time.Minute

// StateCache optional Redis mirror of live engine state
type StateCache interface {
	WriteActiveIncidents(ctx context.Context, incidents []models.Incident) error
	WriteLatestWarning(ctx context.Context, w consumer.WarningEntry) error
}

// Statistics side-effect-free rollup of engine state
type Statistics struct {
	TotalIncidents      int            `json:"total_incidents"`
	ActiveIncidents     int            `json:"active_incidents"`
	IncidentsByType     map[string]int `json:"incidents_by_type"`
	AverageResponseMs   int64          `json:"average_response_ms"`
	SensorsTotal        int            `json:"sensors_total"`
	SensorsOnline       int            `json:"sensors_online"`
	TotalSensorTriggers int            `json:"total_sensor_triggers"`
	EventsBuffered      int            `json:"events_buffered"`
	LockdownActive      bool           `json:"lockdown_active"`
	PanicActive         bool           `json:"panic_active"`
	PendingWellbeing    int            `json:"pending_wellbeing"`
	CompletedWellbeing  int            `json:"completed_wellbeing"`
}

// Engine the single-writer arena around all engine state. Every external
// entry point and every timer tick acquires the one mutex, giving
// run-to-completion semantics: no operation observes another mid-flight.
type Engine struct {
	mu sync.Mutex

	config     *config.Config
	logger     *zap.Logger
	registry   *registry.SensorRegistry
	buffer     *correlation.Buffer
	catalog    *emergency.Catalog
	incidents  *incident.Manager
	dispatcher *alert.Dispatcher
	safety     *safety.Controller
	power      *power.Supervisor
	wellbeing  *wellbeing.Scheduler
	notifier   notifier.Notifier
	cache      StateCache // may be nil

	nowFn  func() time.Time
	cancel context.CancelFunc
}

// NewEngine builds the engine and its subsystems from configuration. store
// and cache may be nil (the engine runs collaborator-free); n must not be.
func NewEngine(cfg *config.Config, store incident.Store, cache StateCache, n notifier.Notifier, logger *zap.Logger) (*Engine, error) {
	catalog := emergency.NewCatalog(logger)
	rules := correlation.DefaultRules()
	if cfg.Engine.CatalogFile != "" {
		var err error
		catalog, err = emergency.NewCatalogFromFile(cfg.Engine.CatalogFile, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		rules, err = correlation.LoadRulesFile(cfg.Engine.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}
	}

	window := time.Duration(cfg.Engine.CorrelationWindowMS) * time.Millisecond
	safetyCtl := safety.NewController(safety.DefaultLights(), cfg.Engine.LightingMinBattery, n, logger)
	dispatcher := alert.NewDispatcher(alert.DefaultChannels(), alert.NewDefaultContactBook(), logger)
	scheduler := wellbeing.NewScheduler(logger)

	e := &Engine{
		config:     cfg,
		logger:     logger,
		registry:   registry.NewDefaultSensorRegistry(logger),
		buffer:     correlation.NewBuffer(window, rules, logger),
		catalog:    catalog,
		dispatcher: dispatcher,
		safety:     safetyCtl,
		power:      power.NewSupervisor(time.Duration(cfg.Engine.GeneratorStartDelaySec)*time.Second, cfg.Engine.GeneratorMinFuel, logger),
		wellbeing:  scheduler,
		notifier:   n,
		cache:      cache,
		nowFn:      time.Now,
	}
	e.incidents = incident.NewManager(catalog, dispatcher, safetyCtl, scheduler, store, n, logger)
	e.incidents.SetClock(func() time.Time { return e.nowFn() })

	return e, nil
}

// Start launches the correlation, power and wellbeing tickers
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	go e.runTicker(ctx, time.Duration(e.config.Engine.CorrelationTickSec)*time.Second, e.CorrelationTick)
	go e.runTicker(ctx, time.Duration(e.config.Engine.PowerPollSec)*time.Second, e.PowerTick)
	go e.runTicker(ctx, time.Duration(e.config.Engine.WellbeingPollSec)*time.Second, e.wellbeingTick)

	e.logger.Info("Engine started",
		zap.Int("correlation_tick_sec", e.config.Engine.CorrelationTickSec),
		zap.Int("power_poll_sec", e.config.Engine.PowerPollSec),
	)
}

func (e *Engine) runTicker(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// Stop cancels the timers and resets transient state. The incident log, the
// sensor registry and historical statistics are retained.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffer.Clear()
	e.incidents.ClearActive()
	e.safety.Reset()
	e.power.Reset()

	e.logger.Info("Engine stopped, transient state cleared")
}

// ReportSensorEvent validates the sensor, marks it triggered and buffers the
// event for correlation.
func (e *Engine) ReportSensorEvent(sensorID, eventType string, payload map[string]interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.nowFn()
	record, err := e.registry.MarkTriggered(sensorID, now)
	if err != nil {
		return err
	}

	e.buffer.Add(models.SensorEvent{
		SensorID:   record.ID,
		SensorType: record.Type,
		Location:   record.Location,
		Floor:      record.Floor,
		EventType:  eventType,
		Payload:    payload,
		Timestamp:  now,
	})

	e.logger.Debug("Sensor event buffered",
		zap.String("sensor_id", sensorID),
		zap.String("event_type", eventType),
		zap.Int("buffered", e.buffer.Len()),
	)
	return nil
}

// CorrelationTick prunes the buffer and scans it; matches open incidents and
// leftover single-sensor events emit their one-shot warning.
func (e *Engine) CorrelationTick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.nowFn()
	matches, warnings := e.buffer.Scan(now)

	for _, w := range warnings {
		entry := consumer.WarningEntry{
			SensorID:  w.Event.SensorID,
			EventType: w.Event.EventType,
			Location:  w.Event.Location,
			Message:   w.Message,
			Timestamp: now,
		}
		e.notifier.Publish(notifier.KindSensorWarning, entry)
		if e.cache != nil {
			if err := e.cache.WriteLatestWarning(context.Background(), entry); err != nil {
				e.logger.Error("Failed to cache warning", zap.Error(err))
			}
		}
	}

	for _, m := range matches {
		sensorIDs := make([]string, 0, len(m.Events))
		for _, ev := range m.Events {
			sensorIDs = append(sensorIDs, ev.SensorID)
		}
		details := map[string]interface{}{
			"rule_id": m.RuleID,
			"sensors": sensorIDs,
		}
		if _, _, err := e.incidents.Trigger(m.EmergencyType, m.Reason, details); err != nil {
			e.logger.Error("Failed to open incident from correlation match",
				zap.String("rule_id", m.RuleID),
				zap.Error(err),
			)
		}
	}

	if len(matches) > 0 {
		e.syncActiveCache()
	}
}

// TriggerEmergency forces an incident open without sensor correlation
func (e *Engine) TriggerEmergency(typeID, reason string, details map[string]interface{}) (*models.Incident, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	inc, _, err := e.incidents.Trigger(typeID, reason, details)
	if err != nil {
		return nil, err
	}
	e.syncActiveCache()
	return inc, nil
}

// ResolveEmergency closes an active incident and returns the recovery plan
// (nil when the type has no recovery steps).
func (e *Engine) ResolveEmergency(incidentID, resolution string) (*models.Incident, *models.RecoveryPlan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	inc, plan, err := e.incidents.Resolve(incidentID, resolution)
	if err != nil {
		return nil, nil, err
	}
	e.syncActiveCache()
	return inc, plan, nil
}

// TriggerPanicButton opens a medical incident tagged with the panic source
// and raises the global panic flag.
func (e *Engine) TriggerPanicButton(source string, details map[string]interface{}) (*models.Incident, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	merged := map[string]interface{}{
		"panicButton": true,
		"source":      source,
	}
	for k, v := range details {
		merged[k] = v
	}

	inc, _, err := e.incidents.Trigger(models.EmergencyMedical,
		fmt.Sprintf("Panic button pressed (%s)", source), merged)
	if err != nil {
		return nil, err
	}

	e.safety.SetPanic(true)
	e.notifier.Publish(notifier.KindPanicButton, map[string]interface{}{
		"source":      source,
		"incident_id": inc.ID,
		"timestamp":   e.nowFn(),
	})
	e.syncActiveCache()
	return inc, nil
}

// DeactivatePanicButton clears the panic flag only; the medical incident
// stays active until resolved.
func (e *Engine) DeactivatePanicButton() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.safety.SetPanic(false)
}

// ActivateLockdown enters lockdown; idempotent
func (e *Engine) ActivateLockdown(reason string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.safety.ActivateLockdown(reason)
}

// DeactivateLockdown lifts lockdown; idempotent
func (e *Engine) DeactivateLockdown(reason string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.safety.DeactivateLockdown(reason)
}

// HandlePowerFailure engages the backup systems and opens the power-failure
// incident.
func (e *Engine) HandlePowerFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.nowFn()
	if !e.power.PowerFailure(now) {
		return
	}

	e.notifier.Publish(notifier.KindPowerFailure, e.power.Status())
	if _, _, err := e.incidents.Trigger(models.EmergencyPowerFailure,
		"Utility power lost, backup systems engaged", nil); err != nil {
		e.logger.Error("Failed to open power-failure incident", zap.Error(err))
	}
	e.syncActiveCache()
}

// HandlePowerRestored returns the backup systems to standby and auto-resolves
// the power-failure incident if one is active.
func (e *Engine) HandlePowerRestored() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.nowFn()
	if !e.power.PowerRestored(now) {
		return
	}

	e.notifier.Publish(notifier.KindPowerRestored, e.power.Status())
	if inc, ok := e.incidents.ActiveByType(models.EmergencyPowerFailure); ok {
		if _, _, err := e.incidents.Resolve(inc.ID, "Utility power restored"); err != nil {
			e.logger.Error("Failed to auto-resolve power-failure incident", zap.Error(err))
		}
	}
	e.syncActiveCache()
}

// PowerTick promotes a starting generator once its delay elapsed
func (e *Engine) PowerTick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.power.Tick(e.nowFn()) {
		e.notifier.Publish(notifier.KindGeneratorStarted, e.power.Status())
	}
}

// RespondToWellbeingCheck completes a pending check
func (e *Engine) RespondToWellbeingCheck(checkID, response string) (models.WellbeingCheck, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	check, err := e.wellbeing.Respond(checkID, response, e.nowFn())
	if err != nil {
		return models.WellbeingCheck{}, err
	}
	e.notifier.Publish(notifier.KindWellbeingCompleted, check)
	return check, nil
}

// wellbeingTick reports pending checks that have gone unanswered
func (e *Engine) wellbeingTick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n := e.wellbeing.OverdueCount(e.nowFn(), overdueCheckAge); n > 0 {
		e.logger.Warn("Wellbeing checks overdue",
			zap.Int("count", n),
		)
	}
}

// AddContact / RemoveContact pass-through to the contact book
func (e *Engine) AddContact(contact models.EmergencyContact) (models.EmergencyContact, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dispatcher.Contacts().Add(contact)
}

func (e *Engine) RemoveContact(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dispatcher.Contacts().Remove(id)
}

// LoadContacts replaces the contact book (startup load from the repository)
func (e *Engine) LoadContacts(contacts []models.EmergencyContact) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dispatcher.Contacts().Replace(contacts)
}

// GetActiveEmergencies returns the active incidents, oldest first
func (e *Engine) GetActiveEmergencies() []models.Incident {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.incidents.Active()
}

// GetIncidentHistory returns the incident log newest first (limit 0 = all)
func (e *Engine) GetIncidentHistory(limit int) []models.Incident {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.incidents.History(limit)
}

// GetSensorStatus returns the sensor registry snapshot
func (e *Engine) GetSensorStatus() []models.SensorRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Snapshot()
}

// GetPowerBackupStatus returns the backup-system snapshot
func (e *Engine) GetPowerBackupStatus() models.PowerBackupStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.power.Status()
}

// GetPendingWellbeingChecks returns pending checks in scheduling order
func (e *Engine) GetPendingWellbeingChecks() []models.WellbeingCheck {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wellbeing.Pending()
}

// GetStatistics returns the full statistics rollup
func (e *Engine) GetStatistics() Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Statistics{
		TotalIncidents:      e.incidents.TotalCount(),
		ActiveIncidents:     e.incidents.ActiveCount(),
		IncidentsByType:     e.incidents.CountByType(),
		AverageResponseMs:   e.incidents.AverageResponseMs(),
		SensorsTotal:        len(e.registry.Snapshot()),
		SensorsOnline:       e.registry.OnlineCount(),
		TotalSensorTriggers: e.registry.TotalTriggers(),
		EventsBuffered:      e.buffer.Len(),
		LockdownActive:      e.safety.LockdownActive(),
		PanicActive:         e.safety.PanicActive(),
		PendingWellbeing:    len(e.wellbeing.Pending()),
		CompletedWellbeing:  len(e.wellbeing.Completed()),
	}
}

// LockdownActive reports the lockdown flag
func (e *Engine) LockdownActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.safety.LockdownActive()
}

// PanicActive reports the panic flag
func (e *Engine) PanicActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.safety.PanicActive()
}

// syncActiveCache mirrors the active set into Redis; callers hold the mutex
func (e *Engine) syncActiveCache() {
	if e.cache == nil {
		return
	}
	if err := e.cache.WriteActiveIncidents(context.Background(), e.incidents.Active()); err != nil {
		e.logger.Error("Failed to cache active incidents", zap.Error(err))
	}
}
