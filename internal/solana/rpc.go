package solana

import "context"

// RPCClient defines the Solana JSON-RPC calls used to discover token holders.
type RPCClient interface {
	// GetProgramAccounts returns all accounts owned by program that match opts.
	// When opts.Paginated is set the Helius getProgramAccountsV2 method is
	// used and every page is followed.
	GetProgramAccounts(ctx context.Context, program string, opts *ProgramAccountsOpts) ([]KeyedAccount, error)

	// GetTokenLargestAccounts returns the 20 largest token accounts of a mint.
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]LargestAccount, error)

	// GetSignaturesForAddress retrieves recent signatures for an address.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetTransactionAccounts returns every account key referenced by a transaction.
	// Returns nil if the transaction is unknown.
	GetTransactionAccounts(ctx context.Context, signature string) ([]string, error)
}

// MetadataFetcher fetches token metadata from the provider's metadata API.
type MetadataFetcher interface {
	// TokenMetadata returns metadata for mint. Missing fields are left nil.
	TokenMetadata(ctx context.Context, mint string) (*MetadataEntry, error)
}
