package models

import (
	"time"
)

// IncidentStatus lifecycle state of an incident
type IncidentStatus string

const (
	IncidentActive   IncidentStatus = "active"
	IncidentResolved IncidentStatus = "resolved"
)

// Action execution results
const (
	ActionResultOK     = "ok"
	ActionResultFailed = "failed"
)

// ActionRecord one executed (or failed) protocol step on an incident
type ActionRecord struct {
	Kind        ActionKind `json:"kind"`
	Description string     `json:"description"`
	Result      string     `json:"result"` // ok / failed
	Error       string     `json:"error,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

// AlertRecord one alert delivery recorded on an incident
type AlertRecord struct {
	ChannelID string    `json:"channel_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// IncidentUpdate a deduplicated re-trigger appended to an active incident
type IncidentUpdate struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Incident the central mutable entity tracked by the lifecycle manager.
// Severity is fixed at creation; ResolvedAt/Resolution/ResponseTimeMs are set
// exactly once, at resolution.
type Incident struct {
	ID              string                 `json:"id"`
	TypeID          string                 `json:"type_id"`
	Severity        int                    `json:"severity"`
	Status          IncidentStatus         `json:"status"`
	Reason          string                 `json:"reason"`
	Details         map[string]interface{} `json:"details,omitempty"`
	TriggeredAt     time.Time              `json:"triggered_at"`
	ResolvedAt      *time.Time             `json:"resolved_at,omitempty"`
	Resolution      *string                `json:"resolution,omitempty"`
	ResponseTimeMs  *int64                 `json:"response_time_ms,omitempty"`
	ActionsExecuted []ActionRecord         `json:"actions_executed"`
	AlertsSent      []AlertRecord          `json:"alerts_sent"`
	Updates         []IncidentUpdate       `json:"updates"`
}

// Recovery step states
const (
	RecoveryStepPending = "pending"
)

// RecoveryStep one post-resolution remediation task
type RecoveryStep struct {
	Seq         int    `json:"seq"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// RecoveryPlan ordered remediation tasks issued when an incident resolves.
// Nil when the emergency type defines no recovery steps.
type RecoveryPlan struct {
	IncidentID string         `json:"incident_id"`
	TypeID     string         `json:"type_id"`
	Steps      []RecoveryStep `json:"steps"`
	CreatedAt  time.Time      `json:"created_at"`
}
