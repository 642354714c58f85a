// Package main runs the holder explorer: the token store, the dashboard
// pages, the JSON API and the websocket state stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"holdermap/internal/config"
	"holdermap/internal/dashboard"
	"holdermap/internal/holders"
	"holdermap/internal/observability"
	"holdermap/internal/solana"
	"holdermap/internal/tokenstore"
)

func main() {
	// Parse flags (config values as defaults)
	envFile := flag.String("env-file", ".env", "Dotenv file to load before reading the environment")
	httpAddr := flag.String("http-addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	rpcURL := flag.String("rpc-url", "", "Solana JSON-RPC URL (overrides RPC_URL)")
	holderQuery := flag.String("holder-query", "", "Holder query: program-accounts-v2, program-accounts or largest-accounts")
	linkHolders := flag.Int("link-holders", -1, "Number of top holders scanned for connections, 0 disables (overrides LINK_HOLDERS)")
	useMemory := flag.Bool("use-memory", false, "Keep recent searches and snapshots in memory only")
	watch := flag.Bool("watch", false, "Refresh the displayed token on new on-chain activity (overrides WATCH_TOKEN)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *rpcURL != "" {
		cfg.RPCURL = *rpcURL
	}
	if *holderQuery != "" {
		cfg.HolderQuery = *holderQuery
	}
	if *linkHolders >= 0 {
		cfg.LinkHolders = *linkHolders
	}
	if *watch {
		cfg.WatchToken = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat).
		With().Str("component", "server").Logger()
	logger.Info().Interface("config", cfg.Redacted()).Msg("starting holdermap")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *useMemory, logger); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, useMemory bool, logger zerolog.Logger) error {
	stores, cleanup, err := createStores(ctx, cfg, useMemory, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	mode, err := holders.ParseQueryMode(cfg.HolderQuery)
	if err != nil {
		return err
	}

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint(), solana.WithTimeout(cfg.RPCTimeout), solana.WithLogger(logger))
	meta := solana.NewMetadataClient(cfg.MetadataEndpoint(), &http.Client{Timeout: cfg.RPCTimeout})
	fetcher := holders.NewFetcher(rpc, mode, logger)

	opts := []tokenstore.Option{
		tokenstore.WithRecentSearchStore(stores.recent),
		tokenstore.WithSnapshotStore(stores.snapshots),
		tokenstore.WithTimeout(cfg.RPCTimeout),
	}
	if cfg.LinkHolders > 0 {
		opts = append(opts, tokenstore.WithLinker(holders.NewLinker(rpc, cfg.LinkHolders, logger)))
	}
	store := tokenstore.New(fetcher, meta, logger, opts...)
	defer store.Close()

	if err := store.Restore(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to restore recent searches")
	}

	if cfg.WatchToken {
		stopWatch, err := startWatcher(ctx, cfg, store, logger)
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer stopWatch()
	}

	if cfg.LogLevel != "debug" && cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv, err := dashboard.New(store, logger, dashboard.WithSnapshotStore(stores.snapshots))
	if err != nil {
		return err
	}

	logger.Info().
		Str("addr", cfg.HTTPAddr).
		Str("holder_query", string(mode)).
		Int("link_holders", cfg.LinkHolders).
		Str("recent_store", stores.recentKind).
		Str("snapshot_store", stores.snapshotKind).
		Bool("watch_token", cfg.WatchToken).
		Msg("dashboard ready")
	return srv.Run(ctx, cfg.HTTPAddr)
}

// startWatcher connects to the provider websocket and refreshes the
// published token on activity. The returned function stops it.
func startWatcher(ctx context.Context, cfg *config.Config, store *tokenstore.Store, logger zerolog.Logger) (func(), error) {
	endpoint := cfg.WSEndpoint()
	if endpoint == "" {
		var err error
		if endpoint, err = solana.WSEndpoint(cfg.RPCEndpoint()); err != nil {
			return nil, err
		}
	}

	ws, err := solana.NewWSClient(ctx, endpoint, nil, logger)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := tokenstore.NewWatcher(store, ws, cfg.WatchDebounce, logger).Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("watcher stopped")
		}
	}()

	return func() {
		cancel()
		<-done
		ws.Close()
	}, nil
}
