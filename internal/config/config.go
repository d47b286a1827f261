package config

import (
	"os"
	"strconv"

	"homeguard-engine/pkg/database"
	"homeguard-engine/pkg/mqtt"
	"homeguard-engine/pkg/redis"
)

// Config engine service configuration
type Config struct {
	Database database.Config
	Redis    redis.Config
	MQTT     mqtt.Config

	Engine struct {
		// Correlation
		CorrelationWindowMS int // sliding window for multi-sensor matching, default 30000
		CorrelationTickSec  int // scan cadence, default 5

		// Polls
		PowerPollSec     int // power/equipment poll cadence, default 10
		WellbeingPollSec int // overdue-check poll cadence, default 30

		// Power backup
		GeneratorStartDelaySec int // auto-start delay, default 5
		GeneratorMinFuel       int // fuel floor for auto-start, default 10

		// Safety
		LightingMinBattery int // usable battery floor for emergency lights, default 5

		// Optional catalog/rules override file (YAML)
		CatalogFile string
	}

	Cache struct {
		ActiveIncidentsKey string // snapshot of the active incident set
		LatestWarningKey   string // latest single-sensor warning
		TTLSec             int    // default 30
	}

	Streams struct {
		SensorEvents string // inbound sensor-event stream
	}

	Notify struct {
		TopicPrefix string // MQTT topic prefix, default "homeguard/events"
		Enabled     bool   // false disables the MQTT notifier entirely
	}

	Persistence struct {
		Enabled bool // false runs the engine without Postgres
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load builds the configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "homeguard")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "homeguard-engine")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 1))

	cfg.Engine.CorrelationWindowMS = getEnvInt("CORRELATION_WINDOW_MS", 30000)
	cfg.Engine.CorrelationTickSec = getEnvInt("CORRELATION_TICK_SEC", 5)
	cfg.Engine.PowerPollSec = getEnvInt("POWER_POLL_SEC", 10)
	cfg.Engine.WellbeingPollSec = getEnvInt("WELLBEING_POLL_SEC", 30)
	cfg.Engine.GeneratorStartDelaySec = getEnvInt("GENERATOR_START_DELAY_SEC", 5)
	cfg.Engine.GeneratorMinFuel = getEnvInt("GENERATOR_MIN_FUEL", 10)
	cfg.Engine.LightingMinBattery = getEnvInt("LIGHTING_MIN_BATTERY", 5)
	cfg.Engine.CatalogFile = getEnv("CATALOG_FILE", "")

	cfg.Cache.ActiveIncidentsKey = getEnv("CACHE_ACTIVE_INCIDENTS_KEY", "homeguard:incidents:active")
	cfg.Cache.LatestWarningKey = getEnv("CACHE_LATEST_WARNING_KEY", "homeguard:warnings:latest")
	cfg.Cache.TTLSec = getEnvInt("CACHE_TTL_SEC", 30)

	cfg.Streams.SensorEvents = getEnv("STREAM_SENSOR_EVENTS", "homeguard:sensor:events")

	cfg.Notify.TopicPrefix = getEnv("NOTIFY_TOPIC_PREFIX", "homeguard/events")
	cfg.Notify.Enabled = getEnvBool("NOTIFY_ENABLED", false)

	cfg.Persistence.Enabled = getEnvBool("PERSISTENCE_ENABLED", false)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
