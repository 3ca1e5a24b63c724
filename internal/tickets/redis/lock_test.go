package redis

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"eventx-ticketing/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client backed by miniredis.
func setupTestRedis(t *testing.T) (*SeatLock, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewSeatLock(client, 5*time.Second, logger.NewWithWriter(io.Discard)), mr
}

func TestAcquireAndRelease(t *testing.T) {
	lock, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "event-1", 4, "owner-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("seat_lock:event-1:4"))

	ok, err = lock.Acquire(ctx, "event-1", 4, "owner-b")
	require.NoError(t, err)
	assert.False(t, ok, "second owner must not take a held seat")

	// Another seat and another event are independent.
	ok, err = lock.Acquire(ctx, "event-1", 5, "owner-b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = lock.Acquire(ctx, "event-2", 4, "owner-b")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, lock.Release(ctx, "event-1", 4, "owner-a"))
	assert.False(t, mr.Exists("seat_lock:event-1:4"))
}

func TestReleaseOnlyByOwner(t *testing.T) {
	lock, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "event-1", 1, "owner-a")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx, "event-1", 1, "owner-b"))
	assert.True(t, mr.Exists("seat_lock:event-1:1"), "foreign release must not drop the lock")

	// Releasing an absent lock is a no-op.
	require.NoError(t, lock.Release(ctx, "event-1", 99, "owner-a"))
}

func TestLockExpires(t *testing.T) {
	lock, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "event-1", 2, "owner-a")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(6 * time.Second)

	ok, err = lock.Acquire(ctx, "event-1", 2, "owner-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseAfterExpiryKeepsNewOwner(t *testing.T) {
	lock, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "event-1", 3, "owner-a")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(6 * time.Second)
	ok, err = lock.Acquire(ctx, "event-1", 3, "owner-b")
	require.NoError(t, err)
	require.True(t, ok)

	// owner-a finishes late; its release must not drop owner-b's lock.
	require.NoError(t, lock.Release(ctx, "event-1", 3, "owner-a"))
	got, err := mr.Get("seat_lock:event-1:3")
	require.NoError(t, err)
	assert.Equal(t, "owner-b", got)

	require.NoError(t, lock.Release(ctx, "event-1", 3, "owner-b"))
	assert.False(t, mr.Exists("seat_lock:event-1:3"))
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	lock, _ := setupTestRedis(t)
	ctx := context.Background()

	const attempts = 50
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ok, err := lock.Acquire(ctx, "event-hot", 1, fmt.Sprintf("owner-%d", n))
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}
