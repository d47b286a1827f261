package registry

import (
	"testing"
	"time"

	"homeguard-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMarkTriggered_IncrementsAndStamps(t *testing.T) {
	r := NewDefaultSensorRegistry(zap.NewNop())
	now := time.Now()

	s, err := r.MarkTriggered("smoke-kitchen", now)
	require.NoError(t, err)
	assert.Equal(t, 1, s.TriggerCount)
	require.NotNil(t, s.LastTriggered)
	assert.Equal(t, now, *s.LastTriggered)
	assert.Equal(t, models.SensorOnline, s.Status)

	s, err = r.MarkTriggered("smoke-kitchen", now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, s.TriggerCount)
}

func TestMarkTriggered_UnknownSensor(t *testing.T) {
	r := NewDefaultSensorRegistry(zap.NewNop())

	_, err := r.MarkTriggered("no-such-sensor", time.Now())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMarkTriggered_BumpsOfflineSensorOnline(t *testing.T) {
	r := NewDefaultSensorRegistry(zap.NewNop())
	require.NoError(t, r.MarkOffline("co-garage"))

	s, err := r.MarkTriggered("co-garage", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.SensorOnline, s.Status)
}

func TestSnapshot_SortedAndDetached(t *testing.T) {
	r := NewSensorRegistry(zap.NewNop())
	r.Register(models.SensorRecord{ID: "b", Type: models.SensorSmoke})
	r.Register(models.SensorRecord{ID: "a", Type: models.SensorFlood})

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].ID)
	assert.Equal(t, "b", snap[1].ID)

	// mutating the snapshot must not touch the registry
	snap[0].TriggerCount = 99
	s, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 0, s.TriggerCount)
}

func TestCounters(t *testing.T) {
	r := NewDefaultSensorRegistry(zap.NewNop())
	total := len(r.Snapshot())
	assert.Equal(t, total, r.OnlineCount())

	_, err := r.MarkTriggered("flood-basement", time.Now())
	require.NoError(t, err)
	_, err = r.MarkTriggered("flood-laundry", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 2, r.TotalTriggers())

	require.NoError(t, r.MarkOffline("wind-roof"))
	assert.Equal(t, total-1, r.OnlineCount())
}
