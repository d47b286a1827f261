package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// StreamMessage one entry read from a Redis Stream
type StreamMessage struct {
	Stream string
	ID     string
	Values map[string]interface{}
}

// PublishJSONToStream serializes data and XADDs it under a "data" field,
// with a "timestamp" field in unix milliseconds.
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream string, data interface{}) (string, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(jsonBytes),
			"timestamp": time.Now().UnixMilli(),
		},
	}).Result()
}

// ReadFromStream blocks up to `block` waiting for entries after lastID.
// Returns an empty slice on timeout.
func ReadFromStream(ctx context.Context, client *redis.Client, stream, lastID string, count int64, block time.Duration) ([]StreamMessage, error) {
	res, err := client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   count,
		Block:   block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var messages []StreamMessage
	for _, s := range res {
		for _, m := range s.Messages {
			messages = append(messages, StreamMessage{
				Stream: s.Stream,
				ID:     m.ID,
				Values: m.Values,
			})
		}
	}
	return messages, nil
}
