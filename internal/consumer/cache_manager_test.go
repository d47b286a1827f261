package consumer

import (
	"context"
	"testing"
	"time"

	"homeguard-engine/internal/config"
	"homeguard-engine/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, *CacheManager) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cfg := &config.Config{}
	cfg.Cache.ActiveIncidentsKey = "homeguard:incidents:active"
	cfg.Cache.LatestWarningKey = "homeguard:warnings:latest"
	cfg.Cache.TTLSec = 30

	return mr, redisClient, NewCacheManager(cfg, redisClient, zap.NewNop())
}

func TestWriteAndReadActiveIncidents(t *testing.T) {
	mr, _, cache := setupTestRedis(t)
	ctx := context.Background()

	incidents := []models.Incident{
		{
			ID:          "inc-1",
			TypeID:      models.EmergencyFire,
			Severity:    5,
			Status:      models.IncidentActive,
			Reason:      "smoke and heat",
			TriggeredAt: time.Now().UTC(),
		},
	}

	require.NoError(t, cache.WriteActiveIncidents(ctx, incidents))

	got, err := cache.ReadActiveIncidents(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inc-1", got[0].ID)
	assert.Equal(t, 5, got[0].Severity)

	// TTL applied
	ttl := mr.TTL("homeguard:incidents:active")
	assert.Greater(t, ttl, time.Duration(0))
}

func TestReadActiveIncidents_NotCached(t *testing.T) {
	_, _, cache := setupTestRedis(t)

	_, err := cache.ReadActiveIncidents(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestActiveIncidents_SnapshotExpires(t *testing.T) {
	mr, _, cache := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.WriteActiveIncidents(ctx, []models.Incident{}))
	mr.FastForward(31 * time.Second)

	_, err := cache.ReadActiveIncidents(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestWriteAndReadLatestWarning(t *testing.T) {
	_, _, cache := setupTestRedis(t)
	ctx := context.Background()

	w := WarningEntry{
		SensorID:  "flood-basement",
		EventType: "water_detected",
		Location:  "basement",
		Message:   "single sensor, no correlated pattern yet",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, cache.WriteLatestWarning(ctx, w))

	got, err := cache.ReadLatestWarning(ctx)
	require.NoError(t, err)
	assert.Equal(t, "flood-basement", got.SensorID)
	assert.Equal(t, "basement", got.Location)
}

func TestParseMessage(t *testing.T) {
	msg, err := parseMessage(map[string]interface{}{
		"data": `{"sensor_id":"smoke-kitchen","event_type":"smoke","payload":{"level":0.8}}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "smoke-kitchen", msg.SensorID)
	assert.Equal(t, "smoke", msg.EventType)
	assert.Equal(t, 0.8, msg.Payload["level"])
}

func TestParseMessage_Malformed(t *testing.T) {
	cases := []struct {
		name   string
		values map[string]interface{}
	}{
		{"no data field", map[string]interface{}{"other": "x"}},
		{"data not string", map[string]interface{}{"data": 42}},
		{"invalid json", map[string]interface{}{"data": "{"}},
		{"missing sensor id", map[string]interface{}{"data": `{"event_type":"smoke"}`}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseMessage(tc.values)
			assert.Error(t, err)
		})
	}
}
