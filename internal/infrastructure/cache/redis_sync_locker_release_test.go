package cache

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedisSyncLocker_ReleaseFailureIsLogged(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	core, recorded := observer.New(zap.WarnLevel)
	locker := NewRedisSyncLocker(client, time.Minute, WithLockLogger(zap.New(core)))

	release := locker.releaseFunc("sync:lock:abc", "token")
	release()
	release()

	entries := recorded.FilterMessage("failed to release sync lock").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "sync:lock:abc", fields["key"])
	assert.NotEmpty(t, fields["error"])
}

func TestRedisSyncLocker_DefaultLoggerIsNop(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisSyncLocker(client, time.Minute, WithLockLogger(nil))
	require.NotNil(t, locker.logger)
	assert.NotPanics(t, func() { locker.logger.Warn("noop") })
}
