package domain

// Snapshot records the holder distribution of a token at one successful fetch.
// Stored by the snapshot stores (postgres token_snapshots, clickhouse holder_snapshots).
type Snapshot struct {
	Mint        string          `json:"mint"`
	FetchedAt   int64           `json:"fetchedAt"` // Unix timestamp in milliseconds
	HolderCount int             `json:"holderCount"`
	Supply      float64         `json:"supply"`
	Top10Share  float64         `json:"top10Share"` // fraction of supply held by the 10 largest holders
	Balances    []RankedBalance `json:"balances,omitempty"`
}

// RankedBalance is one holder row of a Snapshot. Rank starts at 1.
type RankedBalance struct {
	Rank    int     `json:"rank"`
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
	Kind    string  `json:"kind"`
}

// NewSnapshot builds a snapshot from published token data.
// Holders are expected in descending balance order.
func NewSnapshot(m *TokenMetadata, fetchedAt int64) *Snapshot {
	s := &Snapshot{
		Mint:        m.Address,
		FetchedAt:   fetchedAt,
		HolderCount: len(m.Holders),
		Supply:      m.TotalSupply,
		Top10Share:  TopShare(m.Holders, 10, m.TotalSupply),
		Balances:    make([]RankedBalance, len(m.Holders)),
	}
	for i, h := range m.Holders {
		s.Balances[i] = RankedBalance{
			Rank:    i + 1,
			Address: h.Address,
			Balance: h.Balance,
			Kind:    h.Kind.String(),
		}
	}
	return s
}

// TopShare returns the fraction of supply held by the first n holders.
// Returns 0 when supply is not positive.
func TopShare(holders []Holder, n int, supply float64) float64 {
	if supply <= 0 {
		return 0
	}
	if n > len(holders) {
		n = len(holders)
	}
	return TotalBalance(holders[:n]) / supply
}
