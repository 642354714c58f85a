package domain

// Fallbacks applied when the metadata provider omits a field.
const (
	UnknownName   = "Unknown"
	UnknownSymbol = "N/A"
)

// MaxHolders is the number of top holders kept per token.
const MaxHolders = 100

// TokenMetadata is the reduced view of a token published by the store.
// Metadata and holders are always replaced together.
type TokenMetadata struct {
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	TotalSupply float64  `json:"totalSupply"` // sum of the top holder balances
	Address     string   `json:"address"`     // mint address
	Decimals    int      `json:"decimals"`
	Image       *string  `json:"image,omitempty"`
	Holders     []Holder `json:"holders"`
}

// Clone returns a deep copy.
func (m *TokenMetadata) Clone() *TokenMetadata {
	if m == nil {
		return nil
	}
	c := *m
	if m.Image != nil {
		img := *m.Image
		c.Image = &img
	}
	c.Holders = CloneHolders(m.Holders)
	return &c
}
