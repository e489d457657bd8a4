package repositories

import (
	"context"
	"sync"
)

// MemoryRepository keeps values in process memory.
type MemoryRepository struct {
	lock   sync.RWMutex
	values map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		values: make(map[string]string),
	}
}

func (r *MemoryRepository) Close(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, key string) (string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	value, ok := r.values[key]
	if !ok {
		return "", &ErrNotFound{}
	}
	return value, nil
}

func (r *MemoryRepository) Set(ctx context.Context, key string, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.values[key] = value
	return nil
}
