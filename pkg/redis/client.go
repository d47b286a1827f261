package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// Client alias so callers do not import go-redis directly
type Client = redis.Client

// Config Redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a Redis client
func NewRedisClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping tests the Redis connection
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Close closes the Redis connection
func Close(client *redis.Client) error {
	return client.Close()
}
