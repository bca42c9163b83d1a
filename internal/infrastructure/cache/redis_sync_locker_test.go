//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/uxinsight/backend/internal/domain/integration"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisSyncLocker(t *testing.T) {
	client := startRedis(t)
	locker := NewRedisSyncLocker(client, time.Minute, WithLockRetryInterval(5*time.Millisecond))
	ctx := context.Background()
	id := uuid.New()

	release, err := locker.Acquire(ctx, id)
	require.NoError(t, err)

	ttl, err := client.TTL(ctx, defaultSyncLockPrefix+id.String()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(short, id)
	assert.ErrorIs(t, err, integration.ErrSyncLockNotAcquired)

	release()
	release()

	again, err := locker.Acquire(ctx, id)
	require.NoError(t, err)
	again()
}

func TestRedisSyncLocker_ReleaseKeepsForeignLock(t *testing.T) {
	client := startRedis(t)
	locker := NewRedisSyncLocker(client, 50*time.Millisecond)
	ctx := context.Background()
	id := uuid.New()
	key := defaultSyncLockPrefix + id.String()

	stale, err := locker.Acquire(ctx, id)
	require.NoError(t, err)

	// the first holder's lock expires and someone else takes it
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, client.Set(ctx, key, "other-holder", time.Minute).Err())

	stale()

	val, err := client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "other-holder", val)
}

func TestRedisDeliveryStore(t *testing.T) {
	client := startRedis(t)
	store := NewRedisDeliveryStore(client, "")
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "int-1:evt-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkProcessed(ctx, "int-1:evt-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	seen, err := store.IsProcessed(ctx, "int-1:evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	ttl, err := client.TTL(ctx, defaultDeliveryKeyPrefix+"int-1:evt-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
