package memory

import (
	"context"
	"sort"
	"sync"

	"holdermap/internal/domain"
	"holdermap/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu     sync.RWMutex
	byMint map[string][]*domain.Snapshot // sorted by FetchedAt ASC
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{byMint: make(map[string][]*domain.Snapshot)}
}

// Record adds a snapshot. Returns ErrDuplicateKey if (mint, fetched_at) exists.
func (s *SnapshotStore) Record(_ context.Context, snap *domain.Snapshot) error {
	if snap == nil || snap.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byMint[snap.Mint]
	for _, existing := range list {
		if existing.FetchedAt == snap.FetchedAt {
			return storage.ErrDuplicateKey
		}
	}

	list = append(list, copySnapshot(snap, true))
	sort.Slice(list, func(i, j int) bool {
		return list[i].FetchedAt < list[j].FetchedAt
	})
	s.byMint[snap.Mint] = list
	return nil
}

// Latest returns the newest snapshot of mint including balances.
func (s *SnapshotStore) Latest(_ context.Context, mint string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byMint[mint]
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(list[len(list)-1], true), nil
}

// History returns up to limit snapshots of mint, newest first, without balances.
func (s *SnapshotStore) History(_ context.Context, mint string, limit int) ([]*domain.Snapshot, error) {
	if limit <= 0 {
		limit = storage.DefaultHistoryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byMint[mint]
	result := make([]*domain.Snapshot, 0, min(limit, len(list)))
	for i := len(list) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, copySnapshot(list[i], false))
	}
	return result, nil
}

func copySnapshot(snap *domain.Snapshot, withBalances bool) *domain.Snapshot {
	c := *snap
	c.Balances = nil
	if withBalances && snap.Balances != nil {
		c.Balances = append([]domain.RankedBalance(nil), snap.Balances...)
	}
	return &c
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
