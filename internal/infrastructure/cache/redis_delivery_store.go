package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/uxinsight/backend/internal/domain/integration"
)

const defaultDeliveryKeyPrefix = "insight:webhook:delivery:"

// RedisDeliveryStore shares webhook delivery ids across instances
type RedisDeliveryStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDeliveryStore creates a store on an existing client. An empty
// prefix selects the default.
func NewRedisDeliveryStore(client *redis.Client, keyPrefix string) *RedisDeliveryStore {
	if keyPrefix == "" {
		keyPrefix = defaultDeliveryKeyPrefix
	}
	return &RedisDeliveryStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed records key with SET NX so exactly one caller wins
func (s *RedisDeliveryStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record webhook delivery: %w", err)
	}
	return ok, nil
}

// IsProcessed reports whether key is recorded
func (s *RedisDeliveryStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check webhook delivery: %w", err)
	}
	return n > 0, nil
}

// Close closes the Redis client
func (s *RedisDeliveryStore) Close() error {
	return s.client.Close()
}

var _ integration.DeliveryStore = (*RedisDeliveryStore)(nil)
