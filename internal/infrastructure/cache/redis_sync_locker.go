package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/uxinsight/backend/internal/domain/integration"
)

const (
	defaultSyncLockPrefix = "sync:lock:"
	defaultRetryInterval  = 25 * time.Millisecond
)

// releaseScript deletes the key only when it still carries the caller's token,
// so an expired holder cannot free a lock someone else has since taken.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSyncLocker implements integration.SyncLocker using Redis SET NX with expiry.
// This is suitable for multi-instance deployments sharing one database.
type RedisSyncLocker struct {
	client        redis.UniversalClient
	keyPrefix     string
	ttl           time.Duration
	retryInterval time.Duration
	logger        *zap.Logger
}

// RedisSyncLockerOption configures a RedisSyncLocker
type RedisSyncLockerOption func(*RedisSyncLocker)

// WithLockKeyPrefix overrides the key prefix
func WithLockKeyPrefix(prefix string) RedisSyncLockerOption {
	return func(l *RedisSyncLocker) {
		if prefix != "" {
			l.keyPrefix = prefix
		}
	}
}

// WithLockRetryInterval sets how often a blocked Acquire polls
func WithLockRetryInterval(d time.Duration) RedisSyncLockerOption {
	return func(l *RedisSyncLocker) {
		if d > 0 {
			l.retryInterval = d
		}
	}
}

// WithLockLogger sets the logger used for release failures
func WithLockLogger(logger *zap.Logger) RedisSyncLockerOption {
	return func(l *RedisSyncLocker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewRedisSyncLocker creates a locker on an existing client
func NewRedisSyncLocker(client redis.UniversalClient, ttl time.Duration, opts ...RedisSyncLockerOption) *RedisSyncLocker {
	l := &RedisSyncLocker{
		client:        client,
		keyPrefix:     defaultSyncLockPrefix,
		ttl:           ttl,
		retryInterval: defaultRetryInterval,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire implements integration.SyncLocker
func (l *RedisSyncLocker) Acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	key := l.keyPrefix + id.String()
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, integration.ErrSyncLockNotAcquired
			}
			return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
		}
		if ok {
			return l.releaseFunc(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, integration.ErrSyncLockNotAcquired
		case <-ticker.C:
		}
	}
}

func (l *RedisSyncLocker) releaseFunc(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's context may already be cancelled; release on a fresh one
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				// the key still expires after the lock ttl
				l.logger.Warn("failed to release sync lock",
					zap.String("key", key),
					zap.Duration("ttl", l.ttl),
					zap.Error(err),
				)
			}
		})
	}
}

var _ integration.SyncLocker = (*RedisSyncLocker)(nil)
