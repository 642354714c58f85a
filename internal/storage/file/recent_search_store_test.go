package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdermap/internal/storage"
)

func TestRecentSearchStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewRecentSearchStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Load(ctx, storage.RecentSearchKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Save(ctx, storage.RecentSearchKey, []string{"b", "a"}))

	got, err := store.Load(ctx, storage.RecentSearchKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got)

	raw, err := os.ReadFile(filepath.Join(dir, "token-storage.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"recentSearches":["b","a"]},"version":0}`, string(raw))
}

func TestRecentSearchStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewRecentSearchStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "k", []string{"x"}))

	second, err := NewRecentSearchStore(dir)
	require.NoError(t, err)
	got, err := second.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)
}

func TestRecentSearchStore_EmptyList(t *testing.T) {
	store, err := NewRecentSearchStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", nil))
	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)
}

func TestRecentSearchStore_InvalidKey(t *testing.T) {
	store, err := NewRecentSearchStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", ".."} {
		assert.ErrorIs(t, store.Save(context.Background(), key, nil), storage.ErrInvalidInput, key)
	}
}

func TestRecentSearchStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.json"), []byte("{"), 0o644))

	store, err := NewRecentSearchStore(dir)
	require.NoError(t, err)
	_, err = store.Load(context.Background(), "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}
