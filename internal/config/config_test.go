package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30000, cfg.Engine.CorrelationWindowMS)
	assert.Equal(t, 5, cfg.Engine.CorrelationTickSec)
	assert.Equal(t, 5, cfg.Engine.LightingMinBattery)
	assert.Equal(t, "homeguard:sensor:events", cfg.Streams.SensorEvents)
	assert.Equal(t, "homeguard:incidents:active", cfg.Cache.ActiveIncidentsKey)
	assert.Equal(t, 30, cfg.Cache.TTLSec)
	assert.False(t, cfg.Persistence.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CORRELATION_WINDOW_MS", "10000")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("PERSISTENCE_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Engine.CorrelationWindowMS)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Persistence.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("CORRELATION_WINDOW_MS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30000, cfg.Engine.CorrelationWindowMS)
}
