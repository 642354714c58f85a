package storage

import (
	"context"

	"holdermap/internal/domain"
)

// RecentSearchKey is the key the recent search list is persisted under.
const RecentSearchKey = "token-storage"

// RecentSearchStore persists ordered address lists by key.
type RecentSearchStore interface {
	// Load returns the list stored under key. Returns ErrNotFound if nothing was saved.
	Load(ctx context.Context, key string) ([]string, error)

	// Save replaces the list stored under key.
	Save(ctx context.Context, key string, addresses []string) error
}

// SnapshotStore provides access to holder distribution snapshots.
type SnapshotStore interface {
	// Record adds a snapshot. Returns ErrDuplicateKey if (mint, fetched_at) exists.
	Record(ctx context.Context, s *domain.Snapshot) error

	// Latest returns the newest snapshot of mint including balances.
	// Returns ErrNotFound if none exist.
	Latest(ctx context.Context, mint string) (*domain.Snapshot, error)

	// History returns up to limit snapshots of mint, newest first, without balances.
	History(ctx context.Context, mint string, limit int) ([]*domain.Snapshot, error)
}
