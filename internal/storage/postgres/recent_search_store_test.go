package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdermap/internal/storage"
)

func TestRecentSearchStore_LoadMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRecentSearchStore(pool)
	_, err := store.Load(context.Background(), storage.RecentSearchKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecentSearchStore_SaveOverwrites(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRecentSearchStore(pool)

	require.NoError(t, store.Save(ctx, storage.RecentSearchKey, []string{"mintA"}))
	require.NoError(t, store.Save(ctx, storage.RecentSearchKey, []string{"mintB", "mintA"}))

	got, err := store.Load(ctx, storage.RecentSearchKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"mintB", "mintA"}, got)

	require.NoError(t, store.Save(ctx, storage.RecentSearchKey, nil))
	got, err = store.Load(ctx, storage.RecentSearchKey)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecentSearchStore_InvalidKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	err := NewRecentSearchStore(pool).Save(context.Background(), "", []string{"a"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
