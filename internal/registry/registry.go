package registry

import (
	"fmt"
	"sort"
	"time"

	"homeguard-engine/internal/models"

	"go.uber.org/zap"
)

// SensorRegistry static catalog of sensor identities with online/trigger
// statistics. Not safe for concurrent use on its own; callers serialize
// access through the engine.
type SensorRegistry struct {
	sensors map[string]*models.SensorRecord
	logger  *zap.Logger
}

// NewSensorRegistry creates an empty registry
func NewSensorRegistry(logger *zap.Logger) *SensorRegistry {
	return &SensorRegistry{
		sensors: make(map[string]*models.SensorRecord),
		logger:  logger,
	}
}

// NewDefaultSensorRegistry creates a registry seeded with the default
// simulated floor plan.
func NewDefaultSensorRegistry(logger *zap.Logger) *SensorRegistry {
	r := NewSensorRegistry(logger)
	for _, s := range defaultSensors() {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a sensor record
func (r *SensorRegistry) Register(record models.SensorRecord) {
	if record.Status == "" {
		record.Status = models.SensorOnline
	}
	r.sensors[record.ID] = &record
}

// Get looks up one sensor
func (r *SensorRegistry) Get(id string) (*models.SensorRecord, error) {
	s, ok := r.sensors[id]
	if !ok {
		return nil, fmt.Errorf("sensor %s: %w", id, models.ErrNotFound)
	}
	return s, nil
}

// MarkTriggered records an accepted event against a sensor: increments the
// trigger count, stamps lastTriggered and bumps the sensor online.
func (r *SensorRegistry) MarkTriggered(id string, now time.Time) (*models.SensorRecord, error) {
	s, ok := r.sensors[id]
	if !ok {
		return nil, fmt.Errorf("sensor %s: %w", id, models.ErrNotFound)
	}

	s.TriggerCount++
	ts := now
	s.LastTriggered = &ts
	s.Status = models.SensorOnline

	r.logger.Debug("Sensor triggered",
		zap.String("sensor_id", id),
		zap.String("sensor_type", s.Type),
		zap.Int("trigger_count", s.TriggerCount),
	)

	return s, nil
}

// MarkOffline flips a sensor offline
func (r *SensorRegistry) MarkOffline(id string) error {
	s, ok := r.sensors[id]
	if !ok {
		return fmt.Errorf("sensor %s: %w", id, models.ErrNotFound)
	}
	s.Status = models.SensorOffline
	return nil
}

// Snapshot returns all sensor records ordered by id (side-effect-free read)
func (r *SensorRegistry) Snapshot() []models.SensorRecord {
	out := make([]models.SensorRecord, 0, len(r.sensors))
	for _, s := range r.sensors {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OnlineCount returns how many sensors are currently online
func (r *SensorRegistry) OnlineCount() int {
	n := 0
	for _, s := range r.sensors {
		if s.Status == models.SensorOnline {
			n++
		}
	}
	return n
}

// TotalTriggers sums trigger counts across all sensors
func (r *SensorRegistry) TotalTriggers() int {
	n := 0
	for _, s := range r.sensors {
		n += s.TriggerCount
	}
	return n
}

// defaultSensors is the simulated floor plan used when no external sensor
// inventory is wired in.
func defaultSensors() []models.SensorRecord {
	return []models.SensorRecord{
		{ID: "smoke-kitchen", Type: models.SensorSmoke, Location: "kitchen", Floor: 1},
		{ID: "smoke-hall-2f", Type: models.SensorSmoke, Location: "hallway", Floor: 2},
		{ID: "temp-kitchen", Type: models.SensorTemperature, Location: "kitchen", Floor: 1},
		{ID: "flood-basement", Type: models.SensorFlood, Location: "basement", Floor: 0},
		{ID: "flood-laundry", Type: models.SensorFlood, Location: "laundry", Floor: 0},
		{ID: "flood-bathroom-2f", Type: models.SensorFlood, Location: "bathroom", Floor: 2},
		{ID: "motion-entrance", Type: models.SensorMotion, Location: "entrance", Floor: 1},
		{ID: "glass-living", Type: models.SensorGlassBreak, Location: "living_room", Floor: 1},
		{ID: "gas-kitchen", Type: models.SensorGas, Location: "kitchen", Floor: 1},
		{ID: "air-kitchen", Type: models.SensorAirQuality, Location: "kitchen", Floor: 1},
		{ID: "co-garage", Type: models.SensorCO, Location: "garage", Floor: 0},
		{ID: "air-garage", Type: models.SensorAirQuality, Location: "garage", Floor: 0},
		{ID: "wind-roof", Type: models.SensorWind, Location: "roof", Floor: 3},
		{ID: "pressure-roof", Type: models.SensorPressure, Location: "roof", Floor: 3},
		{ID: "vib-foundation-n", Type: models.SensorVibration, Location: "foundation_north", Floor: 0},
		{ID: "vib-foundation-s", Type: models.SensorVibration, Location: "foundation_south", Floor: 0},
	}
}
