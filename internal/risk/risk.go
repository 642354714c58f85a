// Package risk derives the display-only risk signals shown next to a token.
package risk

import (
	"math"

	"holdermap/internal/domain"
)

// Label is a qualitative rating value.
type Label string

const (
	LabelLow        Label = "low"
	LabelMedium     Label = "medium"
	LabelHigh       Label = "high"
	LabelLocked     Label = "locked"
	LabelPartial    Label = "partial"
	LabelNone       Label = "none"
	LabelNormal     Label = "normal"
	LabelModerate   Label = "moderate"
	LabelSuspicious Label = "suspicious"
)

// Severity groups labels for coloring.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Thresholds.
const (
	CentralizationLowBelow    = 0.5  // top-10 share under this is low
	CentralizationMediumBelow = 0.8  // top-10 share under this is medium
	LiquidityLockedAtLeast    = 0.10 // program-held share at or above this is locked
	ClusterSuspiciousAbove    = 0.5  // largest linked component share above this is suspicious
)

// Severity maps a label to its severity. Unknown labels are high.
func (l Label) Severity() Severity {
	switch l {
	case LabelLow, LabelLocked, LabelNormal:
		return SeverityLow
	case LabelMedium, LabelPartial, LabelModerate:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// String returns the string representation of Label.
func (l Label) String() string {
	return string(l)
}

// Rating is one signal with the measured value behind it.
type Rating struct {
	Label Label   `json:"label"`
	Value float64 `json:"value"`
}

// Signals holds the three ratings for a token.
type Signals struct {
	Centralization Rating `json:"centralization"`
	Liquidity      Rating `json:"liquidity"`
	Transfers      Rating `json:"transfers"`
}

// Assess derives signals from published token data.
func Assess(m *domain.TokenMetadata) Signals {
	if m == nil {
		return Signals{
			Centralization: Rating{Label: LabelHigh},
			Liquidity:      Rating{Label: LabelNone},
			Transfers:      Rating{Label: LabelNormal},
		}
	}
	return Signals{
		Centralization: centralization(m),
		Liquidity:      liquidity(m),
		Transfers:      transfers(m.Holders),
	}
}

func centralization(m *domain.TokenMetadata) Rating {
	share := domain.TopShare(m.Holders, 10, m.TotalSupply)
	switch {
	case m.TotalSupply <= 0:
		return Rating{Label: LabelHigh}
	case share < CentralizationLowBelow:
		return Rating{Label: LabelLow, Value: share}
	case share < CentralizationMediumBelow:
		return Rating{Label: LabelMedium, Value: share}
	default:
		return Rating{Label: LabelHigh, Value: share}
	}
}

func liquidity(m *domain.TokenMetadata) Rating {
	if m.TotalSupply <= 0 {
		return Rating{Label: LabelNone}
	}
	var held float64
	for _, h := range m.Holders {
		if h.Kind == domain.HolderProgram {
			held += h.Balance
		}
	}
	share := held / m.TotalSupply
	switch {
	case share >= LiquidityLockedAtLeast:
		return Rating{Label: LabelLocked, Value: share}
	case share > 0:
		return Rating{Label: LabelPartial, Value: share}
	default:
		return Rating{Label: LabelNone}
	}
}

// transfers rates how tightly holders are linked. Value is the share of
// holders inside the largest connected component.
func transfers(holders []domain.Holder) Rating {
	if len(holders) == 0 {
		return Rating{Label: LabelNormal}
	}

	index := make(map[string]int, len(holders))
	for i, h := range holders {
		index[h.Address] = i
	}
	parent := make([]int, len(holders))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	links := 0
	for i, h := range holders {
		for _, c := range h.Connections {
			j, ok := index[c]
			if !ok || j == i {
				continue
			}
			links++
			if ri, rj := find(i), find(j); ri != rj {
				parent[ri] = rj
			}
		}
	}
	if links == 0 {
		return Rating{Label: LabelNormal}
	}

	sizes := make(map[int]int)
	largest := 0
	for i := range holders {
		r := find(i)
		sizes[r]++
		if sizes[r] > largest {
			largest = sizes[r]
		}
	}
	share := float64(largest) / float64(len(holders))
	if share > ClusterSuspiciousAbove {
		return Rating{Label: LabelSuspicious, Value: share}
	}
	return Rating{Label: LabelModerate, Value: share}
}

// Color returns the gradient class pair used for a label's bar.
func Color(l Label) string {
	switch l.Severity() {
	case SeverityLow:
		return "from-green-400 to-emerald-600"
	case SeverityMedium:
		return "from-yellow-400 to-orange-500"
	default:
		return "from-red-400 to-rose-600"
	}
}

// Badge returns the badge classes used for a label.
func Badge(l Label) string {
	switch l.Severity() {
	case SeverityLow:
		return "bg-green-500/20 text-green-400 border-green-500/50"
	case SeverityMedium:
		return "bg-yellow-500/20 text-yellow-400 border-yellow-500/50"
	default:
		return "bg-red-500/20 text-red-400 border-red-500/50"
	}
}

// TopHolder is a holder with its share of supply in percent.
type TopHolder struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
	Percent float64 `json:"percent"`
}

// TopHolders returns the first n holders with their percent of supply,
// rounded to two decimals.
func TopHolders(m *domain.TokenMetadata, n int) []TopHolder {
	if m == nil {
		return nil
	}
	if n < 0 {
		n = 0
	}
	if n > len(m.Holders) {
		n = len(m.Holders)
	}
	out := make([]TopHolder, 0, n)
	for _, h := range m.Holders[:n] {
		var pct float64
		if m.TotalSupply > 0 {
			pct = math.Round(h.Balance/m.TotalSupply*10000) / 100
		}
		out = append(out, TopHolder{Address: h.Address, Balance: h.Balance, Percent: pct})
	}
	return out
}
