package correlation

import (
	"fmt"
	"os"

	"homeguard-engine/internal/models"

	"gopkg.in/yaml.v3"
)

// MatchKind explicit predicate shape of a rule. all_of requires one event per
// listed combo (distinct events); count requires events from a minimum number
// of distinct sensors of one type.
type MatchKind string

const (
	MatchAllOf MatchKind = "all_of"
	MatchCount MatchKind = "count"
)

// Combo one sensor-type + event-type requirement of an all_of rule
type Combo struct {
	SensorType string `yaml:"sensor_type"`
	EventType  string `yaml:"event_type"`
}

// Rule maps a combination of sensor events inside the correlation window to
// an emergency type.
type Rule struct {
	ID            string    `yaml:"id"`
	Match         MatchKind `yaml:"match"`
	AllOf         []Combo   `yaml:"all_of,omitempty"`
	SensorType    string    `yaml:"sensor_type,omitempty"` // count rules
	EventType     string    `yaml:"event_type,omitempty"`  // count rules, optional
	MinCount      int       `yaml:"min_count,omitempty"`   // count rules, distinct sensors
	EmergencyType string    `yaml:"emergency_type"`
}

// Validate rejects structurally broken rules before they reach the buffer
func (r Rule) Validate() error {
	if r.ID == "" || r.EmergencyType == "" {
		return fmt.Errorf("rule %q: missing id or emergency_type: %w", r.ID, models.ErrValidation)
	}
	switch r.Match {
	case MatchAllOf:
		if len(r.AllOf) < 2 {
			return fmt.Errorf("rule %q: all_of needs at least two combos: %w", r.ID, models.ErrValidation)
		}
	case MatchCount:
		if r.SensorType == "" || r.MinCount < 2 {
			return fmt.Errorf("rule %q: count needs sensor_type and min_count >= 2: %w", r.ID, models.ErrValidation)
		}
	default:
		return fmt.Errorf("rule %q: unknown match kind %q: %w", r.ID, r.Match, models.ErrValidation)
	}
	return nil
}

// DefaultRules the built-in correlation patterns
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:    "fire-smoke-heat",
			Match: MatchAllOf,
			AllOf: []Combo{
				{SensorType: models.SensorSmoke, EventType: "smoke"},
				{SensorType: models.SensorTemperature, EventType: "heat"},
			},
			EmergencyType: models.EmergencyFire,
		},
		{
			ID:            "flood-multi-sensor",
			Match:         MatchCount,
			SensorType:    models.SensorFlood,
			EventType:     "water_detected",
			MinCount:      2,
			EmergencyType: models.EmergencyFlood,
		},
		{
			ID:    "gas-leak-confirmed",
			Match: MatchAllOf,
			AllOf: []Combo{
				{SensorType: models.SensorGas, EventType: "gas_detected"},
				{SensorType: models.SensorAirQuality, EventType: "poor_air"},
			},
			EmergencyType: models.EmergencyGasLeak,
		},
		{
			ID:    "co-confirmed",
			Match: MatchAllOf,
			AllOf: []Combo{
				{SensorType: models.SensorCO, EventType: "co_detected"},
				{SensorType: models.SensorAirQuality, EventType: "poor_air"},
			},
			EmergencyType: models.EmergencyCarbonMonoxide,
		},
		{
			ID:    "intruder-motion-glass",
			Match: MatchAllOf,
			AllOf: []Combo{
				{SensorType: models.SensorMotion, EventType: "motion"},
				{SensorType: models.SensorGlassBreak, EventType: "glass_break"},
			},
			EmergencyType: models.EmergencyIntruder,
		},
		{
			ID:    "storm-wind-pressure",
			Match: MatchAllOf,
			AllOf: []Combo{
				{SensorType: models.SensorWind, EventType: "high_wind"},
				{SensorType: models.SensorPressure, EventType: "pressure_drop"},
			},
			EmergencyType: models.EmergencyStorm,
		},
		{
			ID:            "earthquake-multi-vibration",
			Match:         MatchCount,
			SensorType:    models.SensorVibration,
			EventType:     "vibration",
			MinCount:      2,
			EmergencyType: models.EmergencyEarthquake,
		},
	}
}

// LoadRulesFile reads the rules section of a YAML config file. Loaded rules
// replace the default set entirely.
func LoadRulesFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if len(file.Rules) == 0 {
		return DefaultRules(), nil
	}

	for _, r := range file.Rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	return file.Rules, nil
}
