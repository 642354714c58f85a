package holders

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"holdermap/internal/domain"
	"holdermap/internal/solana"
)

// QueryMode selects the RPC method used to enumerate holders.
type QueryMode string

const (
	// ModeProgramAccountsV2 pages through getProgramAccountsV2 (Helius).
	ModeProgramAccountsV2 QueryMode = "program-accounts-v2"
	// ModeProgramAccounts issues a single plain getProgramAccounts call.
	ModeProgramAccounts QueryMode = "program-accounts"
	// ModeLargestAccounts uses getTokenLargestAccounts (20 accounts, any node).
	ModeLargestAccounts QueryMode = "largest-accounts"
)

// ParseQueryMode validates a mode name.
func ParseQueryMode(s string) (QueryMode, error) {
	switch m := QueryMode(s); m {
	case ModeProgramAccountsV2, ModeProgramAccounts, ModeLargestAccounts:
		return m, nil
	case "":
		return ModeProgramAccountsV2, nil
	default:
		return "", fmt.Errorf("unknown holder query mode %q", s)
	}
}

// Fetcher enumerates the holders of a mint.
type Fetcher struct {
	rpc    solana.RPCClient
	mode   QueryMode
	logger zerolog.Logger
}

// NewFetcher creates a holder fetcher.
func NewFetcher(rpc solana.RPCClient, mode QueryMode, logger zerolog.Logger) *Fetcher {
	if mode == "" {
		mode = ModeProgramAccountsV2
	}
	return &Fetcher{
		rpc:    rpc,
		mode:   mode,
		logger: logger.With().Str("component", "holders").Logger(),
	}
}

// Mode returns the configured query mode.
func (f *Fetcher) Mode() QueryMode {
	return f.mode
}

// Holders returns all holders of mint with a positive balance, largest first.
func (f *Fetcher) Holders(ctx context.Context, mint string) ([]domain.Holder, error) {
	if f.mode == ModeLargestAccounts {
		accounts, err := f.rpc.GetTokenLargestAccounts(ctx, mint)
		if err != nil {
			return nil, err
		}
		return FromLargestAccounts(accounts), nil
	}

	accounts, err := f.rpc.GetProgramAccounts(ctx, solana.TokenProgramID, &solana.ProgramAccountsOpts{
		Encoding: "jsonParsed",
		Filters: []solana.AccountFilter{
			solana.DataSizeFilter(solana.TokenAccountSize),
			solana.MemcmpAt(0, mint),
		},
		Paginated: f.mode == ModeProgramAccountsV2,
	})
	if err != nil {
		return nil, err
	}

	res := Normalize(accounts)
	if res.Skipped > 0 {
		f.logger.Warn().
			Str("mint", mint).
			Int("skipped", res.Skipped).
			Int("accounts", len(accounts)).
			Msg("skipped undecodable token accounts")
	}
	f.logger.Debug().
		Str("mint", mint).
		Int("accounts", len(accounts)).
		Int("holders", len(res.Holders)).
		Msg("normalized holders")
	return res.Holders, nil
}
