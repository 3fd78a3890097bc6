package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores JSON encoded values in a Redis instance shared between
// dashboard replicas.
type Redis[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis[T any](client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *Redis[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis[T]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Redis[T]) Get(ctx context.Context, key string) (T, bool) {
	var value T

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return value, false
	}
	if err != nil {
		c.logger.Warn("redis cache get failed", "key", key, "error", err)
		return value, false
	}

	if err := json.Unmarshal(data, &value); err != nil {
		c.logger.Warn("redis cache entry undecodable", "key", key, "error", err)
		return value, false
	}
	return value, true
}

func (c *Redis[T]) Set(ctx context.Context, key string, value T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("redis cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache set failed", "key", key, "error", err)
	}
}
