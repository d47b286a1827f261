package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"homeguard-engine/internal/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "homeguard-engine/pkg/redis"
)

// EventReporter the engine entry point fed by the stream
type EventReporter interface {
	ReportSensorEvent(sensorID, eventType string, payload map[string]interface{}) error
}

// SensorEventMessage wire shape of one stream entry's data field
type SensorEventMessage struct {
	SensorID  string                 `json:"sensor_id"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Metrics message-processing counters
type Metrics struct {
	mu sync.RWMutex

	MessagesProcessed int64
	MessagesSucceeded int64
	MessagesFailed    int64
	StartTime         time.Time
}

// GetSnapshot returns a copy of the counters
func (m *Metrics) GetSnapshot() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Metrics{
		MessagesProcessed: m.MessagesProcessed,
		MessagesSucceeded: m.MessagesSucceeded,
		MessagesFailed:    m.MessagesFailed,
		StartTime:         m.StartTime,
	}
}

func (m *Metrics) incrProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesProcessed++
}

func (m *Metrics) incrSucceeded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesSucceeded++
}

func (m *Metrics) incrFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesFailed++
}

// StreamConsumer reads raw sensor events from the inbound Redis Stream and
// feeds them to the engine one at a time, preserving run-to-completion
// semantics (the engine serializes internally).
type StreamConsumer struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
	metrics     *Metrics

	lastID string
}

// NewStreamConsumer creates the consumer
func NewStreamConsumer(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) *StreamConsumer {
	return &StreamConsumer{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
		metrics:     &Metrics{StartTime: time.Now()},
		lastID:      "$",
	}
}

// Metrics returns the processing counters
func (c *StreamConsumer) Metrics() Metrics {
	return c.metrics.GetSnapshot()
}

// Start runs the consume loop until the context is cancelled. Read failures
// back off exponentially; message failures are logged and skipped.
func (c *StreamConsumer) Start(ctx context.Context, reporter EventReporter) error {
	stream := c.config.Streams.SensorEvents
	c.logger.Info("Sensor event consumer started",
		zap.String("stream", stream),
	)

	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Sensor event consumer stopped")
			return nil
		default:
			if err := c.consumeOnce(ctx, stream, reporter); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Error("Failed to consume sensor stream",
					zap.Error(err),
					zap.Duration("backoff", backoff),
				)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoff):
					backoff *= 2
					if backoff > maxBackoff {
						backoff = maxBackoff
					}
				}
			} else {
				backoff = time.Second
			}
		}
	}
}

// consumeOnce reads one batch and hands each event to the engine
func (c *StreamConsumer) consumeOnce(ctx context.Context, stream string, reporter EventReporter) error {
	messages, err := rediscommon.ReadFromStream(ctx, c.redisClient, stream, c.lastID, 16, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, msg := range messages {
		c.lastID = msg.ID
		c.metrics.incrProcessed()

		event, err := parseMessage(msg.Values)
		if err != nil {
			c.metrics.incrFailed()
			c.logger.Error("Failed to parse sensor event",
				zap.String("stream_id", msg.ID),
				zap.Error(err),
			)
			continue
		}

		if err := reporter.ReportSensorEvent(event.SensorID, event.EventType, event.Payload); err != nil {
			c.metrics.incrFailed()
			c.logger.Warn("Sensor event rejected",
				zap.String("stream_id", msg.ID),
				zap.String("sensor_id", event.SensorID),
				zap.Error(err),
			)
			continue
		}
		c.metrics.incrSucceeded()
	}

	return nil
}

func parseMessage(values map[string]interface{}) (*SensorEventMessage, error) {
	raw, ok := values["data"]
	if !ok {
		return nil, fmt.Errorf("stream entry has no data field")
	}
	data, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("stream data field is not a string")
	}

	var msg SensorEventMessage
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sensor event: %w", err)
	}
	if msg.SensorID == "" || msg.EventType == "" {
		return nil, fmt.Errorf("sensor event missing sensor_id or event_type")
	}
	return &msg, nil
}
