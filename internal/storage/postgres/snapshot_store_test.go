package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdermap/internal/domain"
	"holdermap/internal/storage"
)

func testSnapshot(mint string, fetchedAt int64) *domain.Snapshot {
	return &domain.Snapshot{
		Mint:        mint,
		FetchedAt:   fetchedAt,
		HolderCount: 3,
		Supply:      600,
		Top10Share:  1,
		Balances: []domain.RankedBalance{
			{Rank: 1, Address: "holder1", Balance: 300, Kind: "wallet"},
			{Rank: 2, Address: "holder2", Balance: 200, Kind: "program"},
			{Rank: 3, Address: "holder3", Balance: 100, Kind: "wallet"},
		},
	}
}

func TestSnapshotStore_RecordAndLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	require.NoError(t, store.Record(ctx, testSnapshot("SnapMint1", 1700000000000)))
	require.NoError(t, store.Record(ctx, testSnapshot("SnapMint1", 1700000060000)))

	latest, err := store.Latest(ctx, "SnapMint1")
	require.NoError(t, err)

	assert.Equal(t, int64(1700000060000), latest.FetchedAt)
	assert.Equal(t, 3, latest.HolderCount)
	assert.InDelta(t, 600.0, latest.Supply, 0.0001)
	require.Len(t, latest.Balances, 3)
	assert.Equal(t, "holder2", latest.Balances[1].Address)
	assert.Equal(t, "program", latest.Balances[1].Kind)
}

func TestSnapshotStore_RecordDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	require.NoError(t, store.Record(ctx, testSnapshot("SnapDup", 1700000000000)))

	err := store.Record(ctx, testSnapshot("SnapDup", 1700000000000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// failed transaction leaves no extra balance rows
	latest, err := store.Latest(ctx, "SnapDup")
	require.NoError(t, err)
	assert.Len(t, latest.Balances, 3)
}

func TestSnapshotStore_History(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	for i := int64(0); i < 4; i++ {
		require.NoError(t, store.Record(ctx, testSnapshot("SnapHist", 1700000000000+i*1000)))
	}

	history, err := store.History(ctx, "SnapHist", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(1700000003000), history[0].FetchedAt)
	assert.Equal(t, int64(1700000002000), history[1].FetchedAt)
	assert.Nil(t, history[0].Balances)

	empty, err := store.History(ctx, "Unknown", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSnapshotStore_LatestNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewSnapshotStore(pool).Latest(context.Background(), "NoSuchMint")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
