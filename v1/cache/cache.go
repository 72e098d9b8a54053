package cache

import (
	"context"
	"time"

	"github.com/verganas/quotelock/v1/spinlock"
)

// Cache defines the basic operations for a cache layer.
//
// T represents the type of values stored in the cache.
type Cache[T any] interface {
	// Get retrieves a value for the given key. The boolean return
	// indicates whether the key was found. An error is returned if
	// retrieving the value fails.
	Get(ctx context.Context, key string) (T, bool, error)
	// Set stores the value for the given key for the specified TTL.
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	// Invalidate removes the key from the cache.
	Invalidate(ctx context.Context, key string) error
}

type item[T any] struct {
	value     T
	expiresAt time.Time
}

// SpinCache is an in-memory cache whose map is guarded by a spin lock
// instead of a mutex. Hold times are a single map access, exactly the short
// critical section the lock is built for. Expired entries are dropped lazily
// on access; there is no background sweeper.
type SpinCache[T any] struct {
	lock  spinlock.SpinLock
	items map[string]item[T]
}

// NewSpin returns a new SpinCache.
func NewSpin[T any]() *SpinCache[T] {
	return &SpinCache[T]{items: make(map[string]item[T])}
}

// Get implements Cache.Get.
func (c *SpinCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	default:
	}
	c.lock.Lock()
	it, ok := c.items[key]
	if ok && !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		delete(c.items, key)
		ok = false
	}
	_ = c.lock.Unlock()
	if !ok {
		return zero, false, nil
	}
	return it.value, true, nil
}

// Set implements Cache.Set. A zero or negative ttl stores the value without
// expiry.
func (c *SpinCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	it := item[T]{value: value}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}
	c.lock.Lock()
	c.items[key] = it
	_ = c.lock.Unlock()
	return nil
}

// Invalidate implements Cache.Invalidate.
func (c *SpinCache[T]) Invalidate(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	c.lock.Lock()
	delete(c.items, key)
	_ = c.lock.Unlock()
	return nil
}

// Len reports the number of entries currently held, including entries that
// have expired but not yet been dropped.
func (c *SpinCache[T]) Len() int {
	c.lock.Lock()
	n := len(c.items)
	_ = c.lock.Unlock()
	return n
}
