package domain

// HolderKind classifies the owner of a token account.
type HolderKind string

const (
	HolderWallet  HolderKind = "wallet"  // owner key lies on the ed25519 curve
	HolderProgram HolderKind = "program" // program derived address, e.g. a pool vault
)

// String returns the string representation of HolderKind.
func (k HolderKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a valid value.
func (k HolderKind) IsValid() bool {
	return k == HolderWallet || k == HolderProgram
}

// Holder is a single owner of a token with its UI-scaled balance.
type Holder struct {
	Address     string     `json:"address"`
	Balance     float64    `json:"balance"`
	Connections []string   `json:"connections"` // addresses seen in shared transactions
	Kind        HolderKind `json:"kind"`
}

// CloneHolders returns a deep copy of holders.
func CloneHolders(holders []Holder) []Holder {
	if holders == nil {
		return nil
	}
	out := make([]Holder, len(holders))
	for i, h := range holders {
		out[i] = h
		if h.Connections != nil {
			out[i].Connections = append([]string(nil), h.Connections...)
		}
	}
	return out
}

// TotalBalance sums the balances of holders.
func TotalBalance(holders []Holder) float64 {
	var total float64
	for _, h := range holders {
		total += h.Balance
	}
	return total
}
