package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"holdermap/internal/domain"
	"holdermap/internal/observability"
	"holdermap/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// Uses two tables:
//   - token_snapshots: one row per (mint, fetched_at)
//   - snapshot_balances: ranked holder rows of each snapshot
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Record adds a snapshot and its balances in one transaction.
// Returns ErrDuplicateKey if (mint, fetched_at) exists.
func (s *SnapshotStore) Record(ctx context.Context, snap *domain.Snapshot) (err error) {
	if snap == nil || snap.Mint == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "snapshot_record", time.Since(start).Seconds(), err)
	}()

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO token_snapshots (
				mint, fetched_at, holder_count, supply, top10_share
			) VALUES ($1, $2, $3, $4, $5)
		`, snap.Mint, snap.FetchedAt, snap.HolderCount, snap.Supply, snap.Top10Share)
		if err != nil {
			return err
		}

		if len(snap.Balances) == 0 {
			return nil
		}
		rows := make([][]interface{}, len(snap.Balances))
		for i, b := range snap.Balances {
			rows[i] = []interface{}{snap.Mint, snap.FetchedAt, b.Rank, b.Address, b.Balance, b.Kind}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"snapshot_balances"},
			[]string{"mint", "fetched_at", "rank", "address", "balance", "kind"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
	return translate("record snapshot", err)
}

// Latest returns the newest snapshot of mint including balances.
func (s *SnapshotStore) Latest(ctx context.Context, mint string) (*domain.Snapshot, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT mint, fetched_at, holder_count, supply, top10_share
		FROM token_snapshots
		WHERE mint = $1
		ORDER BY fetched_at DESC
		LIMIT 1
	`, mint)
	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, translate("get latest snapshot", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT rank, address, balance, kind
		FROM snapshot_balances
		WHERE mint = $1 AND fetched_at = $2
		ORDER BY rank ASC
	`, snap.Mint, snap.FetchedAt)
	if err != nil {
		return nil, fmt.Errorf("query snapshot balances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b domain.RankedBalance
		if err := rows.Scan(&b.Rank, &b.Address, &b.Balance, &b.Kind); err != nil {
			return nil, fmt.Errorf("scan snapshot balance: %w", err)
		}
		snap.Balances = append(snap.Balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot balances: %w", err)
	}
	return snap, nil
}

// History returns up to limit snapshots of mint, newest first, without balances.
func (s *SnapshotStore) History(ctx context.Context, mint string, limit int) ([]*domain.Snapshot, error) {
	if limit <= 0 {
		limit = storage.DefaultHistoryLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT mint, fetched_at, holder_count, supply, top10_share
		FROM token_snapshots
		WHERE mint = $1
		ORDER BY fetched_at DESC
		LIMIT $2
	`, mint, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshot history: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Snapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}

// scanSnapshot scans a single row into Snapshot.
func scanSnapshot(row pgx.Row) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := row.Scan(
		&snap.Mint,
		&snap.FetchedAt,
		&snap.HolderCount,
		&snap.Supply,
		&snap.Top10Share,
	)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
