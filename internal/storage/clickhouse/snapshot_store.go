package clickhouse

import (
	"context"
	"fmt"
	"time"

	"holdermap/internal/domain"
	"holdermap/internal/observability"
	"holdermap/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
// Each snapshot is stored as one row per ranked holder in holder_snapshots;
// a snapshot without holders is stored as a single rank-0 row.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Record adds a snapshot. Returns ErrDuplicateKey if (mint, fetched_at) exists.
func (s *SnapshotStore) Record(ctx context.Context, snap *domain.Snapshot) (err error) {
	if snap == nil || snap.Mint == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "snapshot_record", time.Since(start).Seconds(), err)
	}()

	// MergeTree does not enforce uniqueness; check explicitly
	exists, err := s.exists(ctx, snap.Mint, snap.FetchedAt)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO holder_snapshots (
			mint, fetched_at, holder_count, supply, top10_share,
			rank, address, balance, kind
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	rows := snap.Balances
	if len(rows) == 0 {
		rows = []domain.RankedBalance{{Rank: 0}}
	}
	for _, b := range rows {
		err = batch.Append(
			snap.Mint, uint64(snap.FetchedAt), uint32(snap.HolderCount),
			snap.Supply, snap.Top10Share,
			uint32(b.Rank), b.Address, b.Balance, b.Kind,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// Latest returns the newest snapshot of mint including balances.
func (s *SnapshotStore) Latest(ctx context.Context, mint string) (*domain.Snapshot, error) {
	history, err := s.History(ctx, mint, 1)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, storage.ErrNotFound
	}
	snap := history[0]

	rows, err := s.conn.Query(ctx, `
		SELECT rank, address, balance, kind
		FROM holder_snapshots
		WHERE mint = ? AND fetched_at = ? AND rank > 0
		ORDER BY rank ASC
	`, mint, uint64(snap.FetchedAt))
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rank uint32
			b    domain.RankedBalance
		)
		if err := rows.Scan(&rank, &b.Address, &b.Balance, &b.Kind); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		b.Rank = int(rank)
		snap.Balances = append(snap.Balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return snap, nil
}

// History returns up to limit snapshots of mint, newest first, without balances.
func (s *SnapshotStore) History(ctx context.Context, mint string, limit int) ([]*domain.Snapshot, error) {
	if limit <= 0 {
		limit = storage.DefaultHistoryLimit
	}

	rows, err := s.conn.Query(ctx, `
		SELECT fetched_at, any(holder_count), any(supply), any(top10_share)
		FROM holder_snapshots
		WHERE mint = ?
		GROUP BY fetched_at
		ORDER BY fetched_at DESC
		LIMIT ?
	`, mint, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Snapshot, 0)
	for rows.Next() {
		var (
			fetchedAt   uint64
			holderCount uint32
			snap        = &domain.Snapshot{Mint: mint}
		)
		if err := rows.Scan(&fetchedAt, &holderCount, &snap.Supply, &snap.Top10Share); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.FetchedAt = int64(fetchedAt)
		snap.HolderCount = int(holderCount)
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

func (s *SnapshotStore) exists(ctx context.Context, mint string, fetchedAt int64) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count() FROM holder_snapshots
		WHERE mint = ? AND fetched_at = ?
	`, mint, uint64(fetchedAt)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
