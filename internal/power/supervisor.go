package power

import (
	"time"

	"homeguard-engine/internal/models"

	"go.uber.org/zap"
)

// healthLevelFloor every unit must be above this battery/fuel percent for
// overall health to be optimal.
const healthLevelFloor = 50

// Supervisor failover state machine across the UPS, battery bank and
// generator. Pure in-memory state: the engine owns the power-failure incident
// and the outbound notifications.
type Supervisor struct {
	units       map[string]*models.BackupUnit
	order       []string
	gridOnline  bool
	lastFailure *time.Time
	startDelay  time.Duration
	minFuel     int
	logger      *zap.Logger
}

// NewSupervisor creates a supervisor with the default unit inventory
func NewSupervisor(startDelay time.Duration, minFuel int, logger *zap.Logger) *Supervisor {
	s := &Supervisor{
		units:      make(map[string]*models.BackupUnit),
		gridOnline: true,
		startDelay: startDelay,
		minFuel:    minFuel,
		logger:     logger,
	}
	for _, u := range []models.BackupUnit{
		{Name: models.BackupUPS, Status: models.BackupStandby, Level: 100},
		{Name: models.BackupBattery, Status: models.BackupStandby, Level: 100},
		{Name: models.BackupGenerator, Status: models.BackupStandby, Level: 85, AutoStart: true},
	} {
		unit := u
		s.units[unit.Name] = &unit
		s.order = append(s.order, unit.Name)
	}
	return s
}

// SetGeneratorAutoStart toggles generator auto-start
func (s *Supervisor) SetGeneratorAutoStart(enabled bool) {
	s.units[models.BackupGenerator].AutoStart = enabled
}

// SetLevel adjusts a unit's battery/fuel level (simulation input)
func (s *Supervisor) SetLevel(name string, level int) {
	if u, ok := s.units[name]; ok {
		u.Level = level
	}
}

// PowerFailure transitions all units onto backup. Returns false when the grid
// is already down (no double failover).
func (s *Supervisor) PowerFailure(now time.Time) bool {
	if !s.gridOnline {
		return false
	}
	s.gridOnline = false
	ts := now
	s.lastFailure = &ts

	s.units[models.BackupUPS].Status = models.BackupActive
	s.units[models.BackupBattery].Status = models.BackupDischarging

	gen := s.units[models.BackupGenerator]
	if gen.AutoStart && gen.Level > s.minFuel {
		readyAt := now.Add(s.startDelay)
		gen.Status = models.BackupStarting
		gen.ReadyAt = &readyAt
		s.logger.Info("Generator auto-start scheduled",
			zap.Time("ready_at", readyAt),
			zap.Int("fuel", gen.Level),
		)
	} else {
		s.logger.Warn("Generator not auto-starting",
			zap.Bool("auto_start", gen.AutoStart),
			zap.Int("fuel", gen.Level),
		)
	}

	s.logger.Info("Power failure: backup systems engaged")
	return true
}

// PowerRestored returns all units to standby. Returns false when the grid was
// never down.
func (s *Supervisor) PowerRestored(now time.Time) bool {
	if s.gridOnline {
		return false
	}
	s.gridOnline = true

	for _, u := range s.units {
		u.Status = models.BackupStandby
		u.ReadyAt = nil
	}

	s.logger.Info("Power restored: backup systems on standby")
	return true
}

// Tick promotes a starting generator to running once its start delay elapsed.
// Returns true on the transition (the engine emits the generator-started
// notification).
func (s *Supervisor) Tick(now time.Time) bool {
	gen := s.units[models.BackupGenerator]
	if gen.Status != models.BackupStarting || gen.ReadyAt == nil {
		return false
	}
	if now.Before(*gen.ReadyAt) {
		return false
	}
	gen.Status = models.BackupRunning
	gen.ReadyAt = nil

	s.logger.Info("Generator running",
		zap.Int("fuel", gen.Level),
	)
	return true
}

// GridOnline reports utility power state
func (s *Supervisor) GridOnline() bool {
	return s.gridOnline
}

// Status side-effect-free snapshot. Health is optimal only when every unit's
// level exceeds 50 percent.
func (s *Supervisor) Status() models.PowerBackupStatus {
	health := models.BackupHealthOptimal
	units := make([]models.BackupUnit, 0, len(s.order))
	for _, name := range s.order {
		u := s.units[name]
		if u.Level <= healthLevelFloor {
			health = models.BackupHealthDegraded
		}
		units = append(units, *u)
	}
	return models.PowerBackupStatus{
		Health:      health,
		GridOnline:  s.gridOnline,
		Units:       units,
		LastFailure: s.lastFailure,
	}
}

// Reset clears transient failover state on engine stop; levels and the
// failure history survive.
func (s *Supervisor) Reset() {
	s.gridOnline = true
	for _, u := range s.units {
		u.Status = models.BackupStandby
		u.ReadyAt = nil
	}
}
