package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"holdermap/internal/observability"
	"holdermap/internal/storage"
)

// RecentSearchStore is a PostgreSQL implementation of storage.RecentSearchStore.
// Lists are kept as JSONB arrays in recent_searches, one row per key.
type RecentSearchStore struct {
	pool *Pool
}

// NewRecentSearchStore creates a new PostgreSQL recent search store.
func NewRecentSearchStore(pool *Pool) *RecentSearchStore {
	return &RecentSearchStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RecentSearchStore = (*RecentSearchStore)(nil)

// Load returns the list stored under key. Returns ErrNotFound if absent.
func (s *RecentSearchStore) Load(ctx context.Context, key string) (addresses []string, err error) {
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "recent_searches_load", time.Since(start).Seconds(), err)
	}()

	var raw []byte
	err = s.pool.QueryRow(ctx, `
		SELECT addresses
		FROM recent_searches
		WHERE key = $1
	`, key).Scan(&raw)
	if err != nil {
		return nil, translate("load recent searches", err)
	}

	if err = json.Unmarshal(raw, &addresses); err != nil {
		return nil, fmt.Errorf("decode recent searches: %w", err)
	}
	if addresses == nil {
		addresses = []string{}
	}
	return addresses, nil
}

// Save replaces the list stored under key.
// Uses upsert to handle initial insert and subsequent updates.
func (s *RecentSearchStore) Save(ctx context.Context, key string, addresses []string) (err error) {
	if key == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "recent_searches_save", time.Since(start).Seconds(), err)
	}()

	if addresses == nil {
		addresses = []string{}
	}
	raw, err := json.Marshal(addresses)
	if err != nil {
		return fmt.Errorf("encode recent searches: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO recent_searches (key, addresses, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET addresses = EXCLUDED.addresses,
		    updated_at = NOW()
	`, key, raw)
	return translate("save recent searches", err)
}
