package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"holdermap/internal/config"
	"holdermap/internal/storage"
	chstore "holdermap/internal/storage/clickhouse"
	"holdermap/internal/storage/file"
	"holdermap/internal/storage/memory"
	"holdermap/internal/storage/migrations"
	pgstore "holdermap/internal/storage/postgres"
)

// serverStores holds the persistence backends chosen from config.
type serverStores struct {
	recent       storage.RecentSearchStore
	snapshots    storage.SnapshotStore
	recentKind   string
	snapshotKind string
}

// createStores picks backends: recent searches go to PostgreSQL, then a state
// directory, then memory; snapshots go to ClickHouse, then PostgreSQL, then memory.
func createStores(ctx context.Context, cfg *config.Config, useMemory bool, logger zerolog.Logger) (*serverStores, func(), error) {
	stores := &serverStores{
		recent:       memory.NewRecentSearchStore(),
		snapshots:    memory.NewSnapshotStore(),
		recentKind:   "memory",
		snapshotKind: "memory",
	}
	if useMemory {
		return stores, func() {}, nil
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.StateDir != "" {
		fs, err := file.NewRecentSearchStore(cfg.StateDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open state dir: %w", err)
		}
		stores.recent, stores.recentKind = fs, "file"
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool, logger); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		stores.recent, stores.recentKind = pgstore.NewRecentSearchStore(pool), "postgres"
		stores.snapshots, stores.snapshotKind = pgstore.NewSnapshotStore(pool), "postgres"
	}

	if cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		stores.snapshots, stores.snapshotKind = chstore.NewSnapshotStore(conn), "clickhouse"
	}

	return stores, cleanup, nil
}
