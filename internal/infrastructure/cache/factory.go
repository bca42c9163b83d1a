package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/uxinsight/backend/internal/domain/integration"
	"github.com/uxinsight/backend/internal/infrastructure/config"
)

// SyncLockerFactory creates sync lockers based on configuration
type SyncLockerFactory struct {
	redisConfig           config.RedisConfig
	syncConfig            config.SyncConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SyncLockerFactoryOption is a functional option for configuring the factory
type SyncLockerFactoryOption func(*SyncLockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SyncLockerFactoryOption {
	return func(f *SyncLockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory locker when Redis is unavailable
// Default is false: a redis backend that cannot connect is a startup error
func WithInMemoryFallback(allow bool) SyncLockerFactoryOption {
	return func(f *SyncLockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSyncLockerFactory creates a new factory
func NewSyncLockerFactory(redisCfg config.RedisConfig, syncCfg config.SyncConfig, opts ...SyncLockerFactoryOption) *SyncLockerFactory {
	f := &SyncLockerFactory{
		redisConfig: redisCfg,
		syncConfig:  syncCfg,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// NewRedisClient opens and pings a Redis client
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// CreateLocker creates the locker selected by sync.lock_backend.
// The returned close func releases the Redis client, if any.
func (f *SyncLockerFactory) CreateLocker() (integration.SyncLocker, func() error, error) {
	noop := func() error { return nil }

	if f.syncConfig.LockBackend != "redis" {
		f.logger.Info("using in-memory sync locker")
		return NewInMemorySyncLocker(), noop, nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis sync locker", zap.String("addr", f.redisConfig.Addr()), zap.Duration("ttl", f.syncConfig.LockTTL))
		return NewRedisSyncLocker(client, f.syncConfig.LockTTL, WithLockLogger(f.logger)), client.Close, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("redis required for sync locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory sync locker. "+
		"Concurrent syncs across instances are then guarded by the database only.",
		zap.Error(err),
	)
	return NewInMemorySyncLocker(), noop, nil
}

// CreateDeliveryStore creates the webhook delivery store on the same backend
// as the sync locker, with its own Redis client.
func (f *SyncLockerFactory) CreateDeliveryStore() (integration.DeliveryStore, error) {
	if f.syncConfig.LockBackend != "redis" {
		return NewInMemoryDeliveryStore(), nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err == nil {
		return NewRedisDeliveryStore(client, ""), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for webhook deduplication but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, webhook deliveries are deduplicated per instance only", zap.Error(err))
	return NewInMemoryDeliveryStore(), nil
}
