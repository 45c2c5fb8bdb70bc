package favorites

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	store    map[string]map[string]Entry // userID -> movieID -> Entry
	watchers map[string]map[int]func([]Entry)
	nextID   int

	// notifyMu serializes snapshot delivery so watchers observe writes in order.
	notifyMu sync.Mutex
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		store:    make(map[string]map[string]Entry),
		watchers: make(map[string]map[int]func([]Entry)),
	}
}

func (r *memoryRepository) List(_ context.Context, userID string) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(userID), nil
}

func (r *memoryRepository) Put(_ context.Context, userID string, entry Entry) error {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	userStore, ok := r.store[userID]
	if !ok {
		userStore = make(map[string]Entry)
		r.store[userID] = userStore
	}
	userStore[entry.MovieID] = entry
	r.mu.Unlock()

	r.notify(userID)
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, userID, movieID string) error {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	if userStore, ok := r.store[userID]; ok {
		delete(userStore, movieID)
	}
	r.mu.Unlock()

	r.notify(userID)
	return nil
}

func (r *memoryRepository) Watch(ctx context.Context, userID string, fn func([]Entry)) error {
	r.notifyMu.Lock()
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	if r.watchers[userID] == nil {
		r.watchers[userID] = make(map[int]func([]Entry))
	}
	r.watchers[userID][id] = fn
	initial := r.snapshotLocked(userID)
	r.mu.Unlock()
	fn(initial)
	r.notifyMu.Unlock()

	<-ctx.Done()

	r.mu.Lock()
	delete(r.watchers[userID], id)
	if len(r.watchers[userID]) == 0 {
		delete(r.watchers, userID)
	}
	r.mu.Unlock()
	return nil
}

// notify must be called with notifyMu held.
func (r *memoryRepository) notify(userID string) {
	r.mu.RLock()
	snapshot := r.snapshotLocked(userID)
	fns := make([]func([]Entry), 0, len(r.watchers[userID]))
	for _, fn := range r.watchers[userID] {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func (r *memoryRepository) snapshotLocked(userID string) []Entry {
	entries := make([]Entry, 0, len(r.store[userID]))
	for _, entry := range r.store[userID] {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].MovieID < entries[j].MovieID })
	return entries
}
