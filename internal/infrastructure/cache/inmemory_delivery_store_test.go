package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDeliveryStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryDeliveryStore()
	defer store.Close()

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "int-1:evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkProcessed(ctx, "int-1:evt-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	seen, err := store.IsProcessed(ctx, "int-1:evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	other, err := store.IsProcessed(ctx, "int-2:evt-1")
	require.NoError(t, err)
	assert.False(t, other)

	clock = clock.Add(time.Hour)
	seen, err = store.IsProcessed(ctx, "int-1:evt-1")
	require.NoError(t, err)
	assert.False(t, seen, "records expire after ttl")

	first, err = store.MarkProcessed(ctx, "int-1:evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first, "an expired record can be marked again")
}

func TestInMemoryDeliveryStore_Sweep(t *testing.T) {
	store := NewInMemoryDeliveryStore()
	defer store.Close()

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Len())

	clock = clock.Add(2 * time.Minute)
	store.sweep()
	assert.Equal(t, 1, store.Len())

	seen, _ := store.IsProcessed(ctx, "long")
	assert.True(t, seen)
}

func TestInMemoryDeliveryStore_ConcurrentMark(t *testing.T) {
	store := NewInMemoryDeliveryStore()
	defer store.Close()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(context.Background(), "same", time.Hour)
			if err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}

func TestInMemoryDeliveryStore_CloseTwice(t *testing.T) {
	store := NewInMemoryDeliveryStore()
	for i := 0; i < 2; i++ {
		assert.NoError(t, store.Close(), fmt.Sprintf("close #%d", i+1))
	}
}
