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

func TestInMemoryRunLock_TryAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("second acquire fails while held", func(t *testing.T) {
		lock := NewInMemoryRunLock()

		release, ok, err := lock.TryAcquire(ctx, "sync", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, lock.IsHeld("sync"))

		_, ok, err = lock.TryAcquire(ctx, "sync", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "overlapping run must be rejected")

		release()
		assert.False(t, lock.IsHeld("sync"))

		_, ok, err = lock.TryAcquire(ctx, "sync", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("keys are independent", func(t *testing.T) {
		lock := NewInMemoryRunLock()

		_, ok, _ := lock.TryAcquire(ctx, "a", time.Minute)
		require.True(t, ok)
		_, ok, _ = lock.TryAcquire(ctx, "b", time.Minute)
		assert.True(t, ok)
	})

	t.Run("expired holder is replaced", func(t *testing.T) {
		lock := NewInMemoryRunLock()
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		lock.clock = func() time.Time { return now }

		staleRelease, ok, _ := lock.TryAcquire(ctx, "sync", time.Minute)
		require.True(t, ok)

		now = now.Add(2 * time.Minute)
		_, ok, _ = lock.TryAcquire(ctx, "sync", time.Minute)
		require.True(t, ok)

		// the stale holder must not release the new holder's lock
		staleRelease()
		assert.True(t, lock.IsHeld("sync"))
	})

	t.Run("release is idempotent", func(t *testing.T) {
		lock := NewInMemoryRunLock()

		release, ok, _ := lock.TryAcquire(ctx, "sync", time.Minute)
		require.True(t, ok)
		release()
		release()

		release2, ok, _ := lock.TryAcquire(ctx, "sync", time.Minute)
		require.True(t, ok)
		release()
		assert.True(t, lock.IsHeld("sync"))
		release2()
	})
}

func TestInMemoryRunLock_Concurrent(t *testing.T) {
	lock := NewInMemoryRunLock()
	var winners atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := lock.TryAcquire(context.Background(), "sync", time.Minute); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}
