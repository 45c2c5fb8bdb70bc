package profile

import (
	"context"
	"maps"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string]map[string]any
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]map[string]any)}
}

func (r *memoryRepository) Get(_ context.Context, userID string) (map[string]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields, ok := r.store[userID]
	if !ok {
		return map[string]any{}, nil
	}
	return maps.Clone(fields), nil
}

func (r *memoryRepository) Set(_ context.Context, userID string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[userID] = maps.Clone(fields)
	return nil
}
