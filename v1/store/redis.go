package store

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	qerrors "github.com/verganas/quotelock/v1/errors"
)

const defaultRedisOpTimeout = 5 * time.Second

// Redis implements Store using a Redis backend. Values are JSON-encoded.
type Redis[T any] struct {
	client  *redis.Client
	timeout time.Duration
}

// RedisOption configures a Redis store.
type RedisOption func(*redisOptions)

type redisOptions struct {
	timeout time.Duration
}

// WithTimeout sets the operation timeout for Redis calls.
func WithTimeout(d time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.timeout = d
	}
}

// NewRedis returns a new Redis store using the provided client.
func NewRedis[T any](client *redis.Client, opts ...RedisOption) *Redis[T] {
	o := redisOptions{timeout: defaultRedisOpTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Redis[T]{client: client, timeout: o.timeout}
}

func mapRedisErr(err error) error {
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return qerrors.ErrTimeout
	}
	if stdErrors.Is(err, redis.ErrClosed) {
		return qerrors.ErrConnectionClosed
	}
	return err
}

// Get implements Store.Get.
func (s *Redis[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, mapRedisErr(err)
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	data, err := s.client.Get(cctx, key).Bytes()
	if err == redis.Nil {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, mapRedisErr(err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Set implements Store.Set.
func (s *Redis[T]) Set(ctx context.Context, key string, value T) error {
	if err := ctx.Err(); err != nil {
		return mapRedisErr(err)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(cctx, key, data, 0).Err(); err != nil {
		return mapRedisErr(err)
	}
	return nil
}

// Keys implements Store.Keys using SCAN to iterate over keys.
func (s *Redis[T]) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, mapRedisErr(err)
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var cursor uint64
	var keys []string
	for {
		batch, next, err := s.client.Scan(cctx, cursor, "*", 100).Result()
		if err != nil {
			return nil, mapRedisErr(err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}
	return keys, nil
}

// Batch implements Batcher.Batch using a Redis transaction pipeline.
func (s *Redis[T]) Batch(ctx context.Context) (Batch[T], error) {
	return &redisBatch[T]{s: s, sets: make(map[string]T)}, nil
}

type redisBatch[T any] struct {
	s       *Redis[T]
	sets    map[string]T
	deletes []string
}

func (b *redisBatch[T]) Set(ctx context.Context, key string, value T) error {
	b.sets[key] = value
	return nil
}

func (b *redisBatch[T]) Delete(ctx context.Context, key string) error {
	b.deletes = append(b.deletes, key)
	return nil
}

func (b *redisBatch[T]) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return mapRedisErr(err)
	}
	cctx, cancel := context.WithTimeout(ctx, b.s.timeout)
	defer cancel()
	pipe := b.s.client.TxPipeline()
	for k, v := range b.sets {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		pipe.Set(cctx, k, data, 0)
	}
	if len(b.deletes) > 0 {
		pipe.Del(cctx, b.deletes...)
	}
	if _, err := pipe.Exec(cctx); err != nil {
		return mapRedisErr(err)
	}
	return nil
}
