package stub

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"

	"holdermap/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Program accounts are keyed by the first memcmp filter value (the mint).
type RPCClient struct {
	mu              sync.Mutex
	ProgramAccounts map[string][]solana.KeyedAccount
	Largest         map[string][]solana.LargestAccount
	Signatures      map[string][]solana.SignatureInfo
	Transactions    map[string][]string

	// Err, when set, is returned by every call.
	Err error
	// Gate, when set, is received from before each holder query returns.
	Gate chan struct{}

	Calls atomic.Int32
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		ProgramAccounts: make(map[string][]solana.KeyedAccount),
		Largest:         make(map[string][]solana.LargestAccount),
		Signatures:      make(map[string][]solana.SignatureInfo),
		Transactions:    make(map[string][]string),
	}
}

// GetProgramAccounts returns the accounts registered for the memcmp value.
func (c *RPCClient) GetProgramAccounts(ctx context.Context, _ string, opts *solana.ProgramAccountsOpts) ([]solana.KeyedAccount, error) {
	c.Calls.Add(1)
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}
	key := ""
	if opts != nil {
		for _, f := range opts.Filters {
			if f.Memcmp != nil {
				key = f.Memcmp.Bytes
				break
			}
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ProgramAccounts[key], nil
}

// GetTokenLargestAccounts returns the registered largest accounts for mint.
func (c *RPCClient) GetTokenLargestAccounts(ctx context.Context, mint string) ([]solana.LargestAccount, error) {
	c.Calls.Add(1)
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Largest[mint], nil
}

// GetSignaturesForAddress retrieves signatures for an address from the stub store.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.Calls.Add(1)
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	sigs := c.Signatures[address]
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}
	return sigs, nil
}

// GetTransactionAccounts returns the registered account keys for signature.
func (c *RPCClient) GetTransactionAccounts(_ context.Context, signature string) ([]string, error) {
	c.Calls.Add(1)
	if c.Err != nil {
		return nil, c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Transactions[signature], nil
}

// AddTransfer registers a transaction touching both addresses.
func (c *RPCClient) AddTransfer(signature, from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Signatures[from] = append(c.Signatures[from], solana.SignatureInfo{Signature: signature})
	c.Signatures[to] = append(c.Signatures[to], solana.SignatureInfo{Signature: signature})
	c.Transactions[signature] = []string{from, to, solana.TokenProgramID}
}

func (c *RPCClient) wait(ctx context.Context) error {
	if c.Gate == nil {
		return nil
	}
	select {
	case <-c.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ParsedTokenAccount builds a jsonParsed SPL token account.
func ParsedTokenAccount(pubkey, mint, owner string, uiAmount float64, decimals int) solana.KeyedAccount {
	data, _ := json.Marshal(map[string]interface{}{
		"program": "spl-token",
		"space":   solana.TokenAccountSize,
		"parsed": map[string]interface{}{
			"type": "account",
			"info": map[string]interface{}{
				"mint":  mint,
				"owner": owner,
				"state": "initialized",
				"tokenAmount": map[string]interface{}{
					"amount":         strconv.FormatFloat(uiAmount*pow10(decimals), 'f', 0, 64),
					"decimals":       decimals,
					"uiAmount":       uiAmount,
					"uiAmountString": strconv.FormatFloat(uiAmount, 'f', -1, 64),
				},
			},
		},
	})
	return solana.KeyedAccount{
		Pubkey: pubkey,
		Account: solana.AccountData{
			Owner: solana.TokenProgramID,
			Data:  data,
			Space: solana.TokenAccountSize,
		},
	}
}

func pow10(n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

// Metadata implements solana.MetadataFetcher for testing.
type Metadata struct {
	mu      sync.Mutex
	Entries map[string]*solana.MetadataEntry
	Err     error
	Calls   atomic.Int32
}

// NewMetadata creates a new stub metadata fetcher.
func NewMetadata() *Metadata {
	return &Metadata{Entries: make(map[string]*solana.MetadataEntry)}
}

// TokenMetadata returns the registered entry, or an empty entry for unknown mints.
func (m *Metadata) TokenMetadata(_ context.Context, mint string) (*solana.MetadataEntry, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.Entries[mint]; ok {
		entry := *e
		return &entry, nil
	}
	return &solana.MetadataEntry{Mint: mint}, nil
}

var (
	_ solana.RPCClient       = (*RPCClient)(nil)
	_ solana.MetadataFetcher = (*Metadata)(nil)
)
