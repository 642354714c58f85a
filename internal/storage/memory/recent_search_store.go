package memory

import (
	"context"
	"sync"

	"holdermap/internal/storage"
)

// RecentSearchStore is an in-memory implementation of storage.RecentSearchStore.
type RecentSearchStore struct {
	mu    sync.RWMutex
	lists map[string][]string
}

// NewRecentSearchStore creates a new in-memory recent search store.
func NewRecentSearchStore() *RecentSearchStore {
	return &RecentSearchStore{lists: make(map[string][]string)}
}

// Load returns the list stored under key.
func (s *RecentSearchStore) Load(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, ok := s.lists[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]string{}, list...), nil
}

// Save replaces the list stored under key.
func (s *RecentSearchStore) Save(_ context.Context, key string, addresses []string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists[key] = append([]string{}, addresses...)
	return nil
}

var _ storage.RecentSearchStore = (*RecentSearchStore)(nil)
