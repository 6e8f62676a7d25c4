// Package lock serializes work per key. KeyedMutex covers a single process;
// RedisLocker extends the guarantee across API replicas.
package lock

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vgp_platform/internal/common"
)

// Locker acquires an exclusive lock on key. The returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex holds one lock per key and forgets keys nobody is waiting on.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: map[string]*entry{}}
}

func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e, false)
		return nil, fmt.Errorf("lock %s: %v: %w", key, ctx.Err(), common.ErrLockFailed)
	}

	var once sync.Once
	return func() { once.Do(func() { k.release(key, e, true) }) }, nil
}

func (k *KeyedMutex) release(key string, e *entry, held bool) {
	if held {
		<-e.ch
	}
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// RedisLocker is a SET NX PX lock with a compare-and-delete release. TTL
// bounds how long a crashed holder can block a key.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(rdb *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl, retry: 25 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	value := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, value, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %v: %w", key, err, common.ErrServiceUnavailable)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %v: %w", key, ctx.Err(), common.ErrLockFailed)
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done; release regardless.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			deleted, err := releaseScript.Run(releaseCtx, l.rdb, []string{redisKey}, value).Int64()
			if err != nil {
				log.Printf("ERROR: Failed to release lock %s: %v", redisKey, err)
			} else if deleted == 0 {
				log.Printf("WARN: Lock %s expired before release", redisKey)
			}
		})
	}, nil
}
