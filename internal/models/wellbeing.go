package models

import (
	"time"
)

// CheckStatus state of a wellbeing check
type CheckStatus string

const (
	CheckPending   CheckStatus = "pending"
	CheckCompleted CheckStatus = "completed"
)

// WellbeingCheck a post-incident occupant check-in. Moves from the pending
// list to the completed list on response; never deleted.
type WellbeingCheck struct {
	ID          string      `json:"id"`
	IncidentID  string      `json:"incident_id"`
	ScheduledAt time.Time   `json:"scheduled_at"`
	Status      CheckStatus `json:"status"`
	Response    *string     `json:"response,omitempty"`
	RespondedAt *time.Time  `json:"responded_at,omitempty"`
}
