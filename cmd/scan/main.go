// Package main fetches one token from the terminal and prints its holder
// summary, risk signals and top holders. The graph layout can be written
// as SVG for inspection.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"holdermap/internal/config"
	"holdermap/internal/domain"
	"holdermap/internal/graph"
	"holdermap/internal/holders"
	"holdermap/internal/observability"
	"holdermap/internal/risk"
	"holdermap/internal/solana"
	"holdermap/internal/storage/file"
	"holdermap/internal/tokenstore"
)

func main() {
	// Parse flags
	envFile := flag.String("env-file", ".env", "Dotenv file to load before reading the environment")
	mint := flag.String("mint", "", "Token mint address to scan (required)")
	holderQuery := flag.String("holder-query", "", "Holder query mode (overrides HOLDER_QUERY)")
	linkHolders := flag.Int("link-holders", -1, "Number of top holders scanned for connections (overrides LINK_HOLDERS)")
	top := flag.Int("top", 10, "Number of top holders to print")
	jsonOut := flag.Bool("json", false, "Print the token data as JSON")
	svgPath := flag.String("svg", "", "Write the holder graph as SVG to this path")
	remember := flag.Bool("remember", false, "Add the mint to the persisted recent searches (requires STATE_DIR)")
	flag.Parse()

	if *mint == "" {
		fmt.Fprintln(os.Stderr, "Error: --mint is required")
		flag.Usage()
		os.Exit(2)
	}
	if *top < 0 {
		fmt.Fprintln(os.Stderr, "Error: --top must not be negative")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *holderQuery != "" {
		cfg.HolderQuery = *holderQuery
	}
	if *linkHolders >= 0 {
		cfg.LinkHolders = *linkHolders
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat).
		With().Str("component", "scan").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(cfg, *remember, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.FetchTokenData(ctx, *mint); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", tokenstore.Message(err))
		os.Exit(1)
	}
	data := store.State().TokenData

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Token *domain.TokenMetadata `json:"token"`
			Risk  risk.Signals          `json:"risk"`
		}{data, risk.Assess(data)}); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			os.Exit(1)
		}
	} else {
		printSummary(os.Stdout, data, *top)
	}

	if *svgPath != "" {
		if err := writeSVG(ctx, *svgPath, data); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing graph: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Graph written to %s\n", *svgPath)
	}
}

// newStore wires a token store the same way the server does, without
// snapshot recording. With remember set, recent searches go to STATE_DIR.
func newStore(cfg *config.Config, remember bool, logger zerolog.Logger) (*tokenstore.Store, error) {
	mode, err := holders.ParseQueryMode(cfg.HolderQuery)
	if err != nil {
		return nil, err
	}

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint(), solana.WithTimeout(cfg.RPCTimeout), solana.WithLogger(logger))
	meta := solana.NewMetadataClient(cfg.MetadataEndpoint(), &http.Client{Timeout: cfg.RPCTimeout})

	opts := []tokenstore.Option{tokenstore.WithTimeout(cfg.RPCTimeout)}
	if cfg.LinkHolders > 0 {
		opts = append(opts, tokenstore.WithLinker(holders.NewLinker(rpc, cfg.LinkHolders, logger)))
	}
	if remember {
		if cfg.StateDir == "" {
			return nil, errors.New("--remember requires STATE_DIR")
		}
		recent, err := file.NewRecentSearchStore(cfg.StateDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tokenstore.WithRecentSearchStore(recent))
	}

	store := tokenstore.New(holders.NewFetcher(rpc, mode, logger), meta, logger, opts...)
	if remember {
		if err := store.Restore(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("failed to restore recent searches")
		}
	}
	return store, nil
}

func printSummary(w io.Writer, m *domain.TokenMetadata, top int) {
	bold := color.New(color.Bold)

	bold.Fprintf(w, "%s ($%s)\n", m.Name, m.Symbol)
	fmt.Fprintf(w, "  Mint:         %s\n", m.Address)
	fmt.Fprintf(w, "  Total Supply: %.2fM\n", m.TotalSupply/1e6)
	fmt.Fprintf(w, "  Holders:      %d\n", len(m.Holders))
	fmt.Fprintf(w, "  Decimals:     %d\n", m.Decimals)

	signals := risk.Assess(m)
	fmt.Fprintln(w)
	bold.Fprintln(w, "Risk Signals")
	printRating(w, "Centralization", signals.Centralization)
	printRating(w, "Liquidity Lock", signals.Liquidity)
	printRating(w, "Transfer Spikes", signals.Transfers)

	fmt.Fprintln(w)
	bold.Fprintln(w, "Top Holders")
	for i, h := range risk.TopHolders(m, top) {
		fmt.Fprintf(w, "  %3d  %-44s  %16.2f  %6.2f%%\n", i+1, h.Address, h.Balance, h.Percent)
	}
}

func printRating(w io.Writer, name string, r risk.Rating) {
	fmt.Fprintf(w, "  %-16s ", name)
	severityColor(r.Label.Severity()).Fprintf(w, "%s", r.Label)
	fmt.Fprintf(w, " (%.2f)\n", r.Value)
}

func severityColor(s risk.Severity) *color.Color {
	switch s {
	case risk.SeverityLow:
		return color.New(color.FgGreen)
	case risk.SeverityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func writeSVG(ctx context.Context, path string, m *domain.TokenMetadata) error {
	layout, err := graph.Compute(ctx, m.Holders, graph.DefaultViewport)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := graph.RenderSVG(f, layout, graph.NewInteraction()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
