package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryInFlightGuard_Acquire(t *testing.T) {
	guard := NewInMemoryInFlightGuard()
	defer guard.Close()

	ctx := context.Background()

	t.Run("acquires free key", func(t *testing.T) {
		token, ok, err := guard.Acquire(ctx, "shop:a:product:1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NotEmpty(t, token)
	})

	t.Run("rejects held key", func(t *testing.T) {
		_, ok, err := guard.Acquire(ctx, "shop:a:product:2", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		token, ok, err := guard.Acquire(ctx, "shop:a:product:2", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok, "held key should not be acquired twice")
		assert.Empty(t, token)
	})

	t.Run("re-acquires after release", func(t *testing.T) {
		token, ok, _ := guard.Acquire(ctx, "shop:a:product:3", time.Hour)
		require.True(t, ok)
		require.NoError(t, guard.Release(ctx, "shop:a:product:3", token))

		_, ok, err := guard.Acquire(ctx, "shop:a:product:3", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("re-acquires after expiration", func(t *testing.T) {
		_, ok, _ := guard.Acquire(ctx, "shop:a:product:4", 10*time.Millisecond)
		require.True(t, ok)

		time.Sleep(20 * time.Millisecond)

		_, ok, err := guard.Acquire(ctx, "shop:a:product:4", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "expired key should be acquirable")
	})

	t.Run("release with wrong token keeps key held", func(t *testing.T) {
		_, ok, _ := guard.Acquire(ctx, "shop:a:product:5", time.Hour)
		require.True(t, ok)
		require.NoError(t, guard.Release(ctx, "shop:a:product:5", "someone-else"))

		_, ok, err := guard.Acquire(ctx, "shop:a:product:5", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("release of unknown key is a no-op", func(t *testing.T) {
		assert.NoError(t, guard.Release(ctx, "never-held", "token"))
	})
}

func TestInMemoryInFlightGuard_StaleReleaseAfterReacquire(t *testing.T) {
	guard := NewInMemoryInFlightGuard()
	defer guard.Close()

	ctx := context.Background()
	key := "shop:a:product:1"

	first, ok, err := guard.Acquire(ctx, key, 20*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	second, ok, err := guard.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "expired lease should be re-acquirable")
	require.NotEqual(t, first, second)

	// The first holder finishes late; its release must not free the new lease
	require.NoError(t, guard.Release(ctx, key, first))

	_, ok, err = guard.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "key must stay held by the second lease")

	require.NoError(t, guard.Release(ctx, key, second))
	_, ok, err = guard.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryInFlightGuard_Concurrent(t *testing.T) {
	guard := NewInMemoryInFlightGuard()
	defer guard.Close()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := guard.Acquire(context.Background(), "shop:a:product:1", time.Hour); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}

func TestInMemoryInFlightGuard_Cleanup(t *testing.T) {
	guard := NewInMemoryInFlightGuard()
	defer guard.Close()

	ctx := context.Background()
	_, _, _ = guard.Acquire(ctx, "short", time.Millisecond)
	_, _, _ = guard.Acquire(ctx, "long", time.Hour)
	time.Sleep(5 * time.Millisecond)

	guard.cleanup()
	assert.Equal(t, 1, guard.Size())
}

func TestInMemoryInFlightGuard_CloseIsIdempotent(t *testing.T) {
	guard := NewInMemoryInFlightGuard()
	assert.NoError(t, guard.Close())
	assert.NoError(t, guard.Close())
}
