package models

import (
	"time"
)

// SensorStatus online/offline state of a registered sensor
type SensorStatus string

const (
	SensorOnline  SensorStatus = "online"
	SensorOffline SensorStatus = "offline"
)

// Sensor type identifiers used by the default floor plan and correlation rules
const (
	SensorSmoke       = "smoke_detector"
	SensorTemperature = "temperature_extreme"
	SensorFlood       = "flood_sensor"
	SensorMotion      = "motion_detector"
	SensorGlassBreak  = "glass_break"
	SensorGas         = "gas_detector"
	SensorAirQuality  = "air_quality"
	SensorCO          = "co_detector"
	SensorWind        = "wind_gauge"
	SensorPressure    = "pressure_gauge"
	SensorVibration   = "vibration_sensor"
)

// SensorEvent a raw event reported by one sensor. Ephemeral: owned by the
// correlation buffer until consumed by a rule match or pruned.
type SensorEvent struct {
	SensorID   string                 `json:"sensor_id"`
	SensorType string                 `json:"sensor_type"`
	Location   string                 `json:"location"`
	Floor      int                    `json:"floor"`
	EventType  string                 `json:"event_type"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// SensorRecord long-lived registry entry for one sensor
type SensorRecord struct {
	ID            string       `json:"id"`
	Type          string       `json:"type"`
	Location      string       `json:"location"`
	Floor         int          `json:"floor"`
	Status        SensorStatus `json:"status"`
	LastTriggered *time.Time   `json:"last_triggered,omitempty"`
	TriggerCount  int          `json:"trigger_count"`
}
