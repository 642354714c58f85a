package risk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdermap/internal/domain"
)

func metadata(balances ...float64) *domain.TokenMetadata {
	m := &domain.TokenMetadata{Address: "mint"}
	for i, b := range balances {
		m.Holders = append(m.Holders, domain.Holder{
			Address: fmt.Sprintf("h%02d", i),
			Balance: b,
			Kind:    domain.HolderWallet,
		})
	}
	m.TotalSupply = domain.TotalBalance(m.Holders)
	return m
}

func evenBalances(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func TestCentralization(t *testing.T) {
	// 10 of 40 equal holders: 25%
	assert.Equal(t, LabelLow, Assess(metadata(evenBalances(40)...)).Centralization.Label)

	// 10 of 15 equal holders: 66%
	assert.Equal(t, LabelMedium, Assess(metadata(evenBalances(15)...)).Centralization.Label)

	// all supply within top 10
	sig := Assess(metadata(evenBalances(5)...))
	assert.Equal(t, LabelHigh, sig.Centralization.Label)
	assert.InDelta(t, 1.0, sig.Centralization.Value, 1e-9)

	// exactly 50% is medium
	assert.Equal(t, LabelMedium, Assess(metadata(evenBalances(20)...)).Centralization.Label)
}

func TestLiquidity(t *testing.T) {
	m := metadata(90, 10)
	assert.Equal(t, LabelNone, Assess(m).Liquidity.Label)

	m.Holders[1].Kind = domain.HolderProgram
	sig := Assess(m)
	assert.Equal(t, LabelLocked, sig.Liquidity.Label)
	assert.InDelta(t, 0.10, sig.Liquidity.Value, 1e-9)

	m = metadata(99, 1)
	m.Holders[1].Kind = domain.HolderProgram
	assert.Equal(t, LabelPartial, Assess(m).Liquidity.Label)
}

func TestTransfers(t *testing.T) {
	m := metadata(5, 4, 3, 2, 1)
	assert.Equal(t, LabelNormal, Assess(m).Transfers.Label)

	// h00-h01 linked: largest component 2/5
	m.Holders[0].Connections = []string{"h01", "outside", "h00"}
	m.Holders[1].Connections = []string{"h00"}
	sig := Assess(m)
	assert.Equal(t, LabelModerate, sig.Transfers.Label)
	assert.InDelta(t, 0.4, sig.Transfers.Value, 1e-9)

	// chain h00-h01-h02: 3/5
	m.Holders[2].Connections = []string{"h01"}
	assert.Equal(t, LabelSuspicious, Assess(m).Transfers.Label)
}

func TestAssess_Nil(t *testing.T) {
	sig := Assess(nil)
	assert.Equal(t, LabelHigh, sig.Centralization.Label)
	assert.Equal(t, LabelNone, sig.Liquidity.Label)
}

func TestSeverityColors(t *testing.T) {
	tests := []struct {
		label Label
		color string
	}{
		{LabelLow, "from-green-400 to-emerald-600"},
		{LabelLocked, "from-green-400 to-emerald-600"},
		{LabelNormal, "from-green-400 to-emerald-600"},
		{LabelMedium, "from-yellow-400 to-orange-500"},
		{LabelPartial, "from-yellow-400 to-orange-500"},
		{LabelModerate, "from-yellow-400 to-orange-500"},
		{LabelHigh, "from-red-400 to-rose-600"},
		{LabelNone, "from-red-400 to-rose-600"},
		{LabelSuspicious, "from-red-400 to-rose-600"},
		{Label("unknown"), "from-red-400 to-rose-600"},
	}
	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			assert.Equal(t, tt.color, Color(tt.label))
		})
	}
	assert.Contains(t, Badge(LabelLocked), "text-green-400")
	assert.Contains(t, Badge(LabelPartial), "text-yellow-400")
	assert.Contains(t, Badge(LabelSuspicious), "text-red-400")
}

func TestTopHolders(t *testing.T) {
	m := metadata(50, 30, 20)
	top := TopHolders(m, 5)
	require.Len(t, top, 3)
	assert.Equal(t, 50.0, top[0].Percent)
	assert.Equal(t, 20.0, top[2].Percent)

	m = metadata(2, 1)
	top = TopHolders(m, 1)
	require.Len(t, top, 1)
	assert.Equal(t, 66.67, top[0].Percent)

	assert.Nil(t, TopHolders(nil, 5))

	for _, n := range []int{0, -1, -100} {
		assert.NotPanics(t, func() {
			assert.Empty(t, TopHolders(m, n))
		}, "n=%d", n)
	}
}
