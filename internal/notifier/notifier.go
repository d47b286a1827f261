package notifier

import (
	"encoding/json"
	"fmt"

	"homeguard-engine/pkg/mqtt"

	"go.uber.org/zap"
)

// Notification kinds published to collaborators
const (
	KindIncidentCreated      = "incident_created"
	KindIncidentResolved     = "incident_resolved"
	KindSensorWarning        = "sensor_warning"
	KindLockdownActivated    = "lockdown_activated"
	KindLockdownDeactivated  = "lockdown_deactivated"
	KindPanicButton          = "panic_button"
	KindGeneratorStarted     = "generator_started"
	KindPowerFailure         = "power_failure"
	KindPowerRestored        = "power_restored"
	KindWellbeingScheduled   = "wellbeing_check_scheduled"
	KindWellbeingCompleted   = "wellbeing_check_completed"
)

// Notifier outbound notification sink. Publishing is fire-and-forget: a
// failed delivery is a collaborator concern and never blocks the engine.
type Notifier interface {
	Publish(kind string, payload interface{})
}

// LogNotifier writes notifications to the service log only
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Publish logs the notification with its payload
func (n *LogNotifier) Publish(kind string, payload interface{}) {
	n.logger.Info("Notification",
		zap.String("kind", kind),
		zap.Any("payload", payload),
	)
}

// MQTTNotifier publishes notifications as JSON to <prefix>/<kind> topics
type MQTTNotifier struct {
	client *mqtt.Client
	prefix string
	qos    byte
	logger *zap.Logger
}

// NewMQTTNotifier creates an MQTT-backed notifier
func NewMQTTNotifier(client *mqtt.Client, prefix string, qos byte, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		client: client,
		prefix: prefix,
		qos:    qos,
		logger: logger,
	}
}

// Publish serializes the payload and publishes it. Errors are logged and
// swallowed.
func (n *MQTTNotifier) Publish(kind string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("Failed to marshal notification",
			zap.String("kind", kind),
			zap.Error(err),
		)
		return
	}

	topic := fmt.Sprintf("%s/%s", n.prefix, kind)
	if err := n.client.Publish(topic, n.qos, false, data); err != nil {
		n.logger.Error("Failed to publish notification",
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}

// MultiNotifier fans one notification out to several sinks
type MultiNotifier []Notifier

// Publish forwards to every sink
func (m MultiNotifier) Publish(kind string, payload interface{}) {
	for _, n := range m {
		n.Publish(kind, payload)
	}
}
