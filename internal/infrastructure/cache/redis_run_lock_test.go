package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// newTestRedisLock connects to STOCKSYNC_TEST_REDIS_ADDR or skips
func newTestRedisLock(t *testing.T) *RedisRunLock {
	t.Helper()
	addr := os.Getenv("STOCKSYNC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOCKSYNC_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())

	lock := NewRedisRunLockWithClient(client, "test:lock:"+t.Name()+":", nil)
	t.Cleanup(func() { _ = lock.Close() })
	return lock
}

func TestRedisRunLock_TryAcquire(t *testing.T) {
	lock := newTestRedisLock(t)
	ctx := context.Background()

	release, ok, err := lock.TryAcquire(ctx, "sync", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.TryAcquire(ctx, "sync", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release()

	release2, ok, err := lock.TryAcquire(ctx, "sync", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	release2()
}

func TestRedisRunLock_ReleaseOnlyOwnToken(t *testing.T) {
	lock := newTestRedisLock(t)
	ctx := context.Background()

	staleRelease, ok, err := lock.TryAcquire(ctx, "sync", 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(100 * time.Millisecond)

	release, ok, err := lock.TryAcquire(ctx, "sync", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	staleRelease()

	exists, err := lock.GetClient().Exists(ctx, lock.keyPrefix+"sync").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
}

// scriptFailureHook answers SET NX locally and fails every script call
type scriptFailureHook struct{}

func (scriptFailureHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("dial disabled")
	}
}

func (scriptFailureHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		switch cmd.Name() {
		case "set":
			if c, ok := cmd.(*redis.BoolCmd); ok {
				c.SetVal(true)
			}
			return nil
		default:
			err := errors.New("connection reset by peer")
			cmd.SetErr(err)
			return err
		}
	}
}

func (scriptFailureHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisRunLock_ReleaseFailureIsLogged(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(scriptFailureHook{})
	t.Cleanup(func() { _ = client.Close() })

	core, logs := observer.New(zap.WarnLevel)
	lock := NewRedisRunLockWithClient(client, "", zap.New(core))

	release, ok, err := lock.TryAcquire(context.Background(), "sync", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	release()
	release()

	entries := logs.FilterMessage("Failed to release run-lock").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "lock:sync", entries[0].ContextMap()["key"])
	assert.Contains(t, entries[0].ContextMap()["error"], "connection reset")
}
