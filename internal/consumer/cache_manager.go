package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"homeguard-engine/internal/config"
	"homeguard-engine/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheManager mirrors the engine's live state into Redis so dashboards and
// collaborators can read it without calling into the engine. Values carry a
// TTL; stale state expires on its own.
type CacheManager struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewCacheManager creates a cache manager
func NewCacheManager(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) *CacheManager {
	return &CacheManager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (c *CacheManager) ttl() time.Duration {
	return time.Duration(c.config.Cache.TTLSec) * time.Second
}

// WriteActiveIncidents replaces the active-incident snapshot
func (c *CacheManager) WriteActiveIncidents(ctx context.Context, incidents []models.Incident) error {
	jsonData, err := json.Marshal(incidents)
	if err != nil {
		return fmt.Errorf("failed to marshal active incidents: %w", err)
	}

	key := c.config.Cache.ActiveIncidentsKey
	if err := c.redisClient.Set(ctx, key, jsonData, c.ttl()).Err(); err != nil {
		return fmt.Errorf("failed to cache active incidents: %w", err)
	}

	c.logger.Debug("Active incidents cached",
		zap.Int("count", len(incidents)),
	)
	return nil
}

// ReadActiveIncidents reads the snapshot back (collaborator side)
func (c *CacheManager) ReadActiveIncidents(ctx context.Context) ([]models.Incident, error) {
	val, err := c.redisClient.Get(ctx, c.config.Cache.ActiveIncidentsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("active incidents not cached: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read active incidents: %w", err)
	}

	var incidents []models.Incident
	if err := json.Unmarshal([]byte(val), &incidents); err != nil {
		return nil, fmt.Errorf("failed to unmarshal active incidents: %w", err)
	}
	return incidents, nil
}

// WarningEntry the cached shape of a single-sensor warning
type WarningEntry struct {
	SensorID  string    `json:"sensor_id"`
	EventType string    `json:"event_type"`
	Location  string    `json:"location"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// WriteLatestWarning stores the most recent single-sensor warning
func (c *CacheManager) WriteLatestWarning(ctx context.Context, w WarningEntry) error {
	jsonData, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal warning: %w", err)
	}

	key := c.config.Cache.LatestWarningKey
	if err := c.redisClient.Set(ctx, key, jsonData, c.ttl()).Err(); err != nil {
		return fmt.Errorf("failed to cache warning: %w", err)
	}
	return nil
}

// ReadLatestWarning reads the most recent warning, if still cached
func (c *CacheManager) ReadLatestWarning(ctx context.Context) (*WarningEntry, error) {
	val, err := c.redisClient.Get(ctx, c.config.Cache.LatestWarningKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("no warning cached: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read warning: %w", err)
	}

	var w WarningEntry
	if err := json.Unmarshal([]byte(val), &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal warning: %w", err)
	}
	return &w, nil
}
