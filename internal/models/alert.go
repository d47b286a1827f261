package models

// Alert channel identifiers, in dispatch order
const (
	ChannelDisplay = "display"
	ChannelApp     = "app"
	ChannelSiren   = "siren"
	ChannelVoice   = "voice"
	ChannelSMS     = "sms"

	// Contact notification is itself a channel entry on alertsSent
	ChannelContactNotification = "contact_notification"
)

// AlertChannel configuration: a channel fires only for incidents whose
// severity is at or above its threshold.
type AlertChannel struct {
	ID                string `json:"id"`
	PriorityThreshold int    `json:"priority_threshold"`
}

// EmergencyContact one entry of the contact book; lower priority is
// contacted first.
type EmergencyContact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Number   string `json:"number"`
	Type     string `json:"type"` // family, neighbor, security, medical
	Priority int    `json:"priority"`
}
