package correlation

import (
	"testing"
	"time"

	"homeguard-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testWindow = 30 * time.Second

func newTestBuffer() *Buffer {
	return NewBuffer(testWindow, DefaultRules(), zap.NewNop())
}

func sensorEvent(id, sensorType, eventType, location string, ts time.Time) models.SensorEvent {
	return models.SensorEvent{
		SensorID:   id,
		SensorType: sensorType,
		Location:   location,
		EventType:  eventType,
		Timestamp:  ts,
	}
}

func TestScan_SmokePlusHeatMatchesFire(t *testing.T) {
	b := newTestBuffer()
	now := time.Now()

	b.Add(sensorEvent("smoke-kitchen", models.SensorSmoke, "smoke", "kitchen", now.Add(-10*time.Second)))
	b.Add(sensorEvent("temp-kitchen", models.SensorTemperature, "heat", "kitchen", now.Add(-2*time.Second)))

	matches, warnings := b.Scan(now)

	require.Len(t, matches, 1)
	assert.Equal(t, models.EmergencyFire, matches[0].EmergencyType)
	assert.Equal(t, "fire-smoke-heat", matches[0].RuleID)
	assert.Len(t, matches[0].Events, 2)
	assert.Contains(t, matches[0].Reason, "smoke-kitchen")
	assert.Contains(t, matches[0].Reason, "kitchen")
	assert.Empty(t, warnings)

	// consumed events must not re-fire on the next tick
	matches, _ = b.Scan(now.Add(time.Second))
	assert.Empty(t, matches)
	assert.Equal(t, 0, b.Len())
}

func TestScan_PairOutsideWindowDoesNotMatch(t *testing.T) {
	b := newTestBuffer()
	now := time.Now()

	b.Add(sensorEvent("smoke-kitchen", models.SensorSmoke, "smoke", "kitchen", now.Add(-40*time.Second)))
	b.Add(sensorEvent("temp-kitchen", models.SensorTemperature, "heat", "kitchen", now))

	matches, _ := b.Scan(now)

	assert.Empty(t, matches)
	// the stale smoke event was pruned, only the heat event remains
	assert.Equal(t, 1, b.Len())
}

func TestScan_TwoFloodSensorsMatchFlood(t *testing.T) {
	b := newTestBuffer()
	now := time.Now()

	b.Add(sensorEvent("flood-basement", models.SensorFlood, "water_detected", "basement", now.Add(-5*time.Second)))
	b.Add(sensorEvent("flood-laundry", models.SensorFlood, "water_detected", "laundry", now.Add(-1*time.Second)))

	matches, warnings := b.Scan(now)

	require.Len(t, matches, 1)
	assert.Equal(t, models.EmergencyFlood, matches[0].EmergencyType)
	assert.Empty(t, warnings)
}

func TestScan_SameFloodSensorTwiceDoesNotMatch(t *testing.T) {
	b := newTestBuffer()
	now := time.Now()

	// count rules require distinct sensors
	b.Add(sensorEvent("flood-basement", models.SensorFlood, "water_detected", "basement", now.Add(-5*time.Second)))
	b.Add(sensorEvent("flood-basement", models.SensorFlood, "water_detected", "basement", now.Add(-1*time.Second)))

	matches, warnings := b.Scan(now)

	assert.Empty(t, matches)
	assert.Len(t, warnings, 2)
}

func TestScan_SingleEventWarnsExactlyOnce(t *testing.T) {
	b := newTestBuffer()
	now := time.Now()

	b.Add(sensorEvent("flood-basement", models.SensorFlood, "water_detected", "basement", now))

	_, warnings := b.Scan(now)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "flood-basement")

	// second scan: same event still buffered, no repeat warning
	_, warnings = b.Scan(now.Add(time.Second))
	assert.Empty(t, warnings)
}

func TestScan_WarnedEventStillUsableByLaterMatch(t *testing.T) {
	b := newTestBuffer()
	now := time.Now()

	b.Add(sensorEvent("flood-basement", models.SensorFlood, "water_detected", "basement", now))
	_, warnings := b.Scan(now)
	require.Len(t, warnings, 1)

	b.Add(sensorEvent("flood-laundry", models.SensorFlood, "water_detected", "laundry", now.Add(5*time.Second)))
	matches, _ := b.Scan(now.Add(6 * time.Second))

	require.Len(t, matches, 1)
	assert.Equal(t, models.EmergencyFlood, matches[0].EmergencyType)
}

func TestScan_IntruderPattern(t *testing.T) {
	b := newTestBuffer()
	now := time.Now()

	b.Add(sensorEvent("motion-entrance", models.SensorMotion, "motion", "entrance", now.Add(-3*time.Second)))
	b.Add(sensorEvent("glass-living", models.SensorGlassBreak, "glass_break", "living_room", now.Add(-1*time.Second)))

	matches, _ := b.Scan(now)

	require.Len(t, matches, 1)
	assert.Equal(t, models.EmergencyIntruder, matches[0].EmergencyType)
}

func TestScan_WrongEventTypeDoesNotMatch(t *testing.T) {
	b := newTestBuffer()
	now := time.Now()

	// motion test event, not an intrusion pattern
	b.Add(sensorEvent("motion-entrance", models.SensorMotion, "heartbeat", "entrance", now))
	b.Add(sensorEvent("glass-living", models.SensorGlassBreak, "glass_break", "living_room", now))

	matches, _ := b.Scan(now)
	assert.Empty(t, matches)
}

func TestClear_DropsEverything(t *testing.T) {
	b := newTestBuffer()
	now := time.Now()

	b.Add(sensorEvent("smoke-kitchen", models.SensorSmoke, "smoke", "kitchen", now))
	require.Equal(t, 1, b.Len())

	b.Clear()
	assert.Equal(t, 0, b.Len())
}
