package solana

import "encoding/json"

// Well-known program IDs.
const (
	TokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
)

// TokenAccountSize is the data length of an SPL token account.
const TokenAccountSize = 165

// KeyedAccount is a program account as returned by getProgramAccounts.
type KeyedAccount struct {
	Pubkey  string      `json:"pubkey"`
	Account AccountData `json:"account"`
}

// AccountData is the account body of a KeyedAccount.
// Data is kept raw: depending on the requested encoding and on whether the
// node could parse the account it is either a jsonParsed object or a
// [payload, encoding] pair.
type AccountData struct {
	Lamports   uint64          `json:"lamports"`
	Owner      string          `json:"owner"`
	Data       json.RawMessage `json:"data"`
	Executable bool            `json:"executable"`
	Space      uint64          `json:"space"`
}

// LargestAccount is an entry of getTokenLargestAccounts.
type LargestAccount struct {
	Address        string   `json:"address"`
	Amount         string   `json:"amount"`
	Decimals       int      `json:"decimals"`
	UIAmount       *float64 `json:"uiAmount"`
	UIAmountString string   `json:"uiAmountString"`
}

// ProgramAccountsOpts configures a getProgramAccounts query.
type ProgramAccountsOpts struct {
	Encoding  string          // "jsonParsed" or "base64"
	Filters   []AccountFilter // dataSize / memcmp filters
	Paginated bool            // use getProgramAccountsV2 and follow paginationKey
	PageLimit int             // accounts per page for paginated queries
	MaxPages  int             // upper bound on followed pages (0 = DefaultMaxPages)
}

// AccountFilter is a single getProgramAccounts filter.
type AccountFilter struct {
	DataSize *uint64      `json:"dataSize,omitempty"`
	Memcmp   *MemcmpFilter `json:"memcmp,omitempty"`
}

// MemcmpFilter matches account data bytes at an offset.
type MemcmpFilter struct {
	Offset uint64 `json:"offset"`
	Bytes  string `json:"bytes"`
}

// DataSizeFilter returns a dataSize filter.
func DataSizeFilter(size uint64) AccountFilter {
	return AccountFilter{DataSize: &size}
}

// MemcmpAt returns a memcmp filter.
func MemcmpAt(offset uint64, bytes string) AccountFilter {
	return AccountFilter{Memcmp: &MemcmpFilter{Offset: offset, Bytes: bytes}}
}

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Limit  int    // Maximum number of signatures to return
}

// MetadataEntry is the normalized subset of a token-metadata response.
type MetadataEntry struct {
	Mint     string
	Name     *string
	Symbol   *string
	Decimals *int
	Image    *string
}
