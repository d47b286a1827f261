package models

// LightStatus state of one emergency light
type LightStatus string

const (
	LightReady LightStatus = "ready"
	LightOn    LightStatus = "on"
)

// EmergencyLight one battery-backed emergency light
type EmergencyLight struct {
	ID       string      `json:"id"`
	Location string      `json:"location"`
	Floor    int         `json:"floor"`
	Battery  int         `json:"battery"` // percent
	Status   LightStatus `json:"status"`
}
