package consumer

import (
	"context"
	"sync"
	"testing"
	"time"

	"homeguard-engine/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	rediscommon "homeguard-engine/pkg/redis"
)

// fakeReporter collects reported events
type fakeReporter struct {
	mu     sync.Mutex
	events []SensorEventMessage
	done   chan struct{}
	want   int
}

func newFakeReporter(want int) *fakeReporter {
	return &fakeReporter{done: make(chan struct{}), want: want}
}

func (f *fakeReporter) ReportSensorEvent(sensorID, eventType string, payload map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, SensorEventMessage{SensorID: sensorID, EventType: eventType, Payload: payload})
	if len(f.events) == f.want {
		close(f.done)
	}
	return nil
}

func TestStreamConsumer_DeliversEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{}
	cfg.Streams.SensorEvents = "homeguard:sensor:events"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// publish before the consumer starts, then read from the beginning
	_, err := rediscommon.PublishJSONToStream(ctx, redisClient, cfg.Streams.SensorEvents,
		SensorEventMessage{SensorID: "smoke-kitchen", EventType: "smoke"})
	require.NoError(t, err)
	_, err = rediscommon.PublishJSONToStream(ctx, redisClient, cfg.Streams.SensorEvents,
		SensorEventMessage{SensorID: "temp-kitchen", EventType: "heat"})
	require.NoError(t, err)

	consumer := NewStreamConsumer(cfg, redisClient, zap.NewNop())
	consumer.lastID = "0"

	reporter := newFakeReporter(2)
	go func() {
		_ = consumer.Start(ctx, reporter)
	}()

	select {
	case <-reporter.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for events")
	}
	cancel()

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	require.Len(t, reporter.events, 2)
	assert.Equal(t, "smoke-kitchen", reporter.events[0].SensorID)
	assert.Equal(t, "heat", reporter.events[1].EventType)

	m := consumer.Metrics()
	assert.Equal(t, int64(2), m.MessagesProcessed)
	assert.Equal(t, int64(2), m.MessagesSucceeded)
	assert.Equal(t, int64(0), m.MessagesFailed)
}

func TestStreamConsumer_SkipsMalformedEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{}
	cfg.Streams.SensorEvents = "homeguard:sensor:events"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// malformed entry first, valid entry second
	err := redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: cfg.Streams.SensorEvents,
		Values: map[string]interface{}{"data": "not json"},
	}).Err()
	require.NoError(t, err)
	_, err = rediscommon.PublishJSONToStream(ctx, redisClient, cfg.Streams.SensorEvents,
		SensorEventMessage{SensorID: "flood-basement", EventType: "water_detected"})
	require.NoError(t, err)

	consumer := NewStreamConsumer(cfg, redisClient, zap.NewNop())
	consumer.lastID = "0"

	reporter := newFakeReporter(1)
	go func() {
		_ = consumer.Start(ctx, reporter)
	}()

	select {
	case <-reporter.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for events")
	}
	cancel()

	m := consumer.Metrics()
	assert.Equal(t, int64(2), m.MessagesProcessed)
	assert.Equal(t, int64(1), m.MessagesSucceeded)
	assert.Equal(t, int64(1), m.MessagesFailed)
}
