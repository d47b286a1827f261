package alert

import (
	"fmt"
	"strings"
	"time"

	"homeguard-engine/internal/models"

	"go.uber.org/zap"
)

// contactThreshold incidents at or above this severity also notify the
// contact book, modeled as the sms channel threshold.
const contactThreshold = 4

// Dispatcher selects alert channels per incident severity, formats the
// channel-specific message and records every delivery.
type Dispatcher struct {
	channels []models.AlertChannel
	contacts *ContactBook
	logger   *zap.Logger
	nowFn    func() time.Time
}

// NewDispatcher creates a dispatcher over the given channels and contacts
func NewDispatcher(channels []models.AlertChannel, contacts *ContactBook, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		contacts: contacts,
		logger:   logger,
		nowFn:    time.Now,
	}
}

// DefaultChannels the built-in channel set, in dispatch order
func DefaultChannels() []models.AlertChannel {
	return []models.AlertChannel{
		{ID: models.ChannelDisplay, PriorityThreshold: 1},
		{ID: models.ChannelApp, PriorityThreshold: 2},
		{ID: models.ChannelSiren, PriorityThreshold: 3},
		{ID: models.ChannelVoice, PriorityThreshold: 3},
		{ID: models.ChannelSMS, PriorityThreshold: contactThreshold},
	}
}

// Contacts exposes the contact book for the CRUD pass-through
func (d *Dispatcher) Contacts() *ContactBook {
	return d.contacts
}

// Dispatch fires every channel whose threshold the incident severity meets,
// in fixed order, and returns the delivery records. Severity >= 4 also
// notifies the contact book in ascending priority order.
func (d *Dispatcher) Dispatch(incident *models.Incident, emergencyLabel string) []models.AlertRecord {
	now := d.nowFn()
	var records []models.AlertRecord

	for _, ch := range d.channels {
		if incident.Severity < ch.PriorityThreshold {
			continue
		}
		records = append(records, models.AlertRecord{
			ChannelID: ch.ID,
			Message:   d.formatMessage(ch.ID, incident, emergencyLabel),
			Timestamp: now,
		})
		d.logger.Info("Alert dispatched",
			zap.String("incident_id", incident.ID),
			zap.String("channel", ch.ID),
			zap.Int("severity", incident.Severity),
		)
	}

	if incident.Severity >= contactThreshold {
		for _, c := range d.contacts.List() {
			records = append(records, models.AlertRecord{
				ChannelID: models.ChannelContactNotification,
				Message: fmt.Sprintf("Notified %s (%s, priority %d) at %s: %s emergency in progress",
					c.Name, c.Type, c.Priority, c.Number, emergencyLabel),
				Timestamp: now,
			})
			d.logger.Info("Emergency contact notified",
				zap.String("incident_id", incident.ID),
				zap.String("contact_id", c.ID),
				zap.Int("priority", c.Priority),
			)
		}
	}

	return records
}

// formatMessage renders the channel-specific template
func (d *Dispatcher) formatMessage(channelID string, incident *models.Incident, label string) string {
	switch channelID {
	case models.ChannelSMS:
		return fmt.Sprintf("EMERGENCY: %s (severity %d/5). %s. If at risk call 911.",
			strings.ToUpper(label), incident.Severity, incident.Reason)
	case models.ChannelVoice:
		return fmt.Sprintf("Attention. A %s emergency has been detected. %s. Please follow safety instructions.",
			label, incident.Reason)
	case models.ChannelSiren:
		return fmt.Sprintf("Siren pattern %s engaged", sirenPattern(incident.Severity))
	case models.ChannelApp:
		return fmt.Sprintf("%s emergency active (severity %d/5): %s", label, incident.Severity, incident.Reason)
	case models.ChannelDisplay:
		return fmt.Sprintf("[%s] %s: %s", severityColor(incident.Severity), strings.ToUpper(label), incident.Reason)
	default:
		return fmt.Sprintf("%s emergency: %s", label, incident.Reason)
	}
}

// severityColor color code for display panels, keyed by severity
func severityColor(severity int) string {
	switch {
	case severity >= 5:
		return "RED"
	case severity == 4:
		return "ORANGE"
	case severity == 3:
		return "YELLOW"
	default:
		return "BLUE"
	}
}

func sirenPattern(severity int) string {
	if severity >= 5 {
		return "continuous"
	}
	return "intermittent"
}
