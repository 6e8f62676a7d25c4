package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vgp_platform/internal/common"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return m, rdb
}

func TestRedisLockerBlocksSecondHolder(t *testing.T) {
	_, rdb := newRedis(t)
	a := NewRedisLocker(rdb, "session_lock:", 30*time.Second)
	b := NewRedisLocker(rdb, "session_lock:", 30*time.Second)

	unlock, err := a.Lock(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = b.Lock(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrLockFailed)

	other, err := b.Lock(context.Background(), "s2")
	require.NoError(t, err)
	other()

	unlock()
	unlock2, err := b.Lock(context.Background(), "s1")
	require.NoError(t, err)
	unlock2()
}

func TestRedisLockerSerializesWorkers(t *testing.T) {
	_, rdb := newRedis(t)
	l := NewRedisLocker(rdb, "session_lock:", 30*time.Second)

	var mu sync.Mutex
	inside, maxInside := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "s1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)
}

func TestRedisLockerReleaseKeepsNewerHolder(t *testing.T) {
	m, rdb := newRedis(t)
	a := NewRedisLocker(rdb, "session_lock:", time.Second)
	b := NewRedisLocker(rdb, "session_lock:", time.Minute)

	staleUnlock, err := a.Lock(context.Background(), "s1")
	require.NoError(t, err)

	m.FastForward(2 * time.Second)
	require.False(t, m.Exists("session_lock:s1"))

	unlock, err := b.Lock(context.Background(), "s1")
	require.NoError(t, err)
	held, err := m.Get("session_lock:s1")
	require.NoError(t, err)

	staleUnlock()
	got, err := m.Get("session_lock:s1")
	require.NoError(t, err, "the expired holder must not delete the new lock")
	assert.Equal(t, held, got)

	unlock()
	assert.False(t, m.Exists("session_lock:s1"))
}
