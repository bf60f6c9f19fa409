package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// RedisCache keeps AI result suggestions in Redis until an admin reviews them
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisCacheConfig holds Redis cache configuration
type RedisCacheConfig struct {
	Addr      string // e.g., "localhost:6379"
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration // e.g., 48 * time.Hour
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisCacheConfig, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "maestro"
	}

	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    config.TTL,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

func (c *RedisCache) key(tipID string) string {
	return fmt.Sprintf("%s:suggestion:%s", c.prefix, tipID)
}

// Set caches the latest suggestion for a tip, replacing any earlier one
func (c *RedisCache) Set(ctx context.Context, suggestion *models.ResultSuggestion) error {
	key := c.key(suggestion.TipID)

	data, err := json.Marshal(suggestion)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestion: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	c.logger.Debug().
		Str("key", key).
		Dur("ttl", c.ttl).
		Msg("cached result suggestion")

	return nil
}

// Get retrieves the cached suggestion for a tip
func (c *RedisCache) Get(ctx context.Context, tipID string) (*models.ResultSuggestion, error) {
	data, err := c.client.Get(ctx, c.key(tipID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("suggestion for %s: %w", tipID, models.ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	var suggestion models.ResultSuggestion
	if err := json.Unmarshal(data, &suggestion); err != nil {
		return nil, fmt.Errorf("failed to unmarshal suggestion: %w", err)
	}

	return &suggestion, nil
}

// Delete drops the suggestion for a tip, typically once it is settled or removed
func (c *RedisCache) Delete(ctx context.Context, tipID string) error {
	if err := c.client.Del(ctx, c.key(tipID)).Err(); err != nil {
		return fmt.Errorf("failed to delete from Redis: %w", err)
	}
	return nil
}

// Ping checks Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
