package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uxinsight/backend/internal/domain/integration"
	"github.com/uxinsight/backend/internal/infrastructure/config"
)

func TestInMemorySyncLocker_Exclusive(t *testing.T) {
	locker := NewInMemorySyncLocker()
	id := uuid.New()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for n := 0; n < 20; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), id)
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			cur := inside.Add(1)
			for {
				prev := maxInside.Load()
				if cur <= prev || maxInside.CompareAndSwap(prev, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, locker.Len())
}

func TestInMemorySyncLocker_ContextExpiry(t *testing.T) {
	locker := NewInMemorySyncLocker()
	id := uuid.New()

	release, err := locker.Acquire(context.Background(), id)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, id)
	assert.ErrorIs(t, err, integration.ErrSyncLockNotAcquired)

	// other ids are independent
	other, err := locker.Acquire(context.Background(), uuid.New())
	require.NoError(t, err)
	other()

	release()
	release() // idempotent
	assert.Equal(t, 0, locker.Len())

	again, err := locker.Acquire(context.Background(), id)
	require.NoError(t, err)
	again()
}

func TestSyncLockerFactory(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		f := NewSyncLockerFactory(config.RedisConfig{}, config.SyncConfig{LockBackend: "memory"})
		locker, closeFn, err := f.CreateLocker()
		require.NoError(t, err)
		assert.IsType(t, &InMemorySyncLocker{}, locker)
		assert.NoError(t, closeFn())
	})

	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("redis unavailable without fallback", func(t *testing.T) {
		f := NewSyncLockerFactory(unreachable, config.SyncConfig{LockBackend: "redis"})
		_, _, err := f.CreateLocker()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required")
	})

	t.Run("redis unavailable with fallback", func(t *testing.T) {
		f := NewSyncLockerFactory(unreachable, config.SyncConfig{LockBackend: "redis"}, WithInMemoryFallback(true))
		locker, _, err := f.CreateLocker()
		require.NoError(t, err)
		assert.IsType(t, &InMemorySyncLocker{}, locker)
	})

	t.Run("delivery store follows the lock backend", func(t *testing.T) {
		store, err := NewSyncLockerFactory(config.RedisConfig{}, config.SyncConfig{LockBackend: "memory"}).CreateDeliveryStore()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryDeliveryStore{}, store)
		assert.NoError(t, store.Close())

		_, err = NewSyncLockerFactory(unreachable, config.SyncConfig{LockBackend: "redis"}).CreateDeliveryStore()
		require.Error(t, err)

		store, err = NewSyncLockerFactory(unreachable, config.SyncConfig{LockBackend: "redis"}, WithInMemoryFallback(true)).CreateDeliveryStore()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryDeliveryStore{}, store)
		assert.NoError(t, store.Close())
	})
}
