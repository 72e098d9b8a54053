package store

import (
	"context"
	"sync"
)

// Store abstracts the storage a quote corpus is loaded from at startup.
//
// T represents the type of values held in the store.
type Store[T any] interface {
	// Get retrieves the value for a key from the storage.
	// The boolean return indicates whether the key was found.
	Get(ctx context.Context, key string) (T, bool, error)
	// Set stores the value for a key into the storage.
	Set(ctx context.Context, key string, value T) error
	// Keys returns the list of keys available in the store. It is used to
	// enumerate the corpus during startup population.
	Keys(ctx context.Context) ([]string, error)
}

// Batch allows grouping multiple operations before committing them to the
// underlying storage. Seeding a corpus goes through a batch when the store
// supports one.
type Batch[T any] interface {
	Set(ctx context.Context, key string, value T) error
	Delete(ctx context.Context, key string) error
	Commit(ctx context.Context) error
}

// Batcher is implemented by stores that support batch operations.
type Batcher[T any] interface {
	Batch(ctx context.Context) (Batch[T], error)
}

// InMemory is a simple Store implementation backed by a map.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewInMemory returns a new in-memory store.
func NewInMemory[T any]() *InMemory[T] {
	return &InMemory[T]{items: make(map[string]T)}
}

// Get implements Store.Get.
func (s *InMemory[T]) Get(ctx context.Context, key string) (T, bool, error) {
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}

// Set implements Store.Set.
func (s *InMemory[T]) Set(ctx context.Context, key string, value T) error {
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
	return nil
}

// Keys implements Store.Keys.
func (s *InMemory[T]) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	return keys, nil
}

// Batch implements Batcher.Batch.
func (s *InMemory[T]) Batch(ctx context.Context) (Batch[T], error) {
	return &inMemoryBatch[T]{s: s, sets: make(map[string]T)}, nil
}

type inMemoryBatch[T any] struct {
	s       *InMemory[T]
	sets    map[string]T
	deletes []string
}

func (b *inMemoryBatch[T]) Set(ctx context.Context, key string, value T) error {
	b.sets[key] = value
	return nil
}

func (b *inMemoryBatch[T]) Delete(ctx context.Context, key string) error {
	b.deletes = append(b.deletes, key)
	return nil
}

func (b *inMemoryBatch[T]) Commit(ctx context.Context) error {
	b.s.mu.Lock()
	for k, v := range b.sets {
		b.s.items[k] = v
	}
	for _, k := range b.deletes {
		delete(b.s.items, k)
	}
	b.s.mu.Unlock()
	return nil
}

// Seed writes values into the store under the provided keys, using a single
// batch when the store supports one.
func Seed[T any](ctx context.Context, s Store[T], values map[string]T) error {
	if batcher, ok := s.(Batcher[T]); ok {
		batch, err := batcher.Batch(ctx)
		if err != nil {
			return err
		}
		for k, v := range values {
			if err := batch.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return batch.Commit(ctx)
	}
	for k, v := range values {
		if err := s.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}
