package graph

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdermap/internal/domain"
)

func holders(balances ...float64) []domain.Holder {
	out := make([]domain.Holder, len(balances))
	for i, b := range balances {
		out[i] = domain.Holder{Address: string(rune('A' + i)), Balance: b, Kind: domain.HolderWallet}
	}
	return out
}

func TestBuildNodes_Radius(t *testing.T) {
	nodes := BuildNodes(holders(100, 50, 25, 0))
	require.Len(t, nodes, 4)

	assert.InDelta(t, MaxRadius, nodes[0].Radius, 1e-9)
	assert.InDelta(t, 27.5, nodes[1].Radius, 1e-9)
	assert.InDelta(t, 18.75, nodes[2].Radius, 1e-9)
	assert.InDelta(t, MinRadius, nodes[3].Radius, 1e-9)

	for i := 1; i < len(nodes); i++ {
		assert.LessOrEqual(t, nodes[i].Radius, nodes[i-1].Radius)
		assert.GreaterOrEqual(t, nodes[i].Radius, MinRadius)
		assert.LessOrEqual(t, nodes[i].Radius, MaxRadius)
	}
}

func TestBuildNodes_RadiusMonotonicAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randomBalances := func(n int, scale float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = rng.Float64() * scale
		}
		return out
	}

	tests := []struct {
		name     string
		balances []float64
	}{
		{"single holder", []float64{42}},
		{"single zero holder", []float64{0}},
		{"all equal", []float64{7, 7, 7, 7}},
		{"ties", []float64{100, 50, 50, 25, 25, 0}},
		{"ascending", []float64{1, 2, 3, 4, 5}},
		{"tiny and huge", []float64{1e-9, 1e12, 3}},
		{"fractional", []float64{0.5, 0.25, 0.125}},
		{"random 100", randomBalances(100, 1e9)},
		{"random 7", randomBalances(7, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := make([]domain.Holder, len(tt.balances))
			maxBalance := 0.0
			for i, b := range tt.balances {
				hs[i] = domain.Holder{Address: fmt.Sprintf("holder-%d", i), Balance: b}
				if b > maxBalance {
					maxBalance = b
				}
			}

			nodes := BuildNodes(hs)
			require.Len(t, nodes, len(hs))
			for i, a := range nodes {
				assert.GreaterOrEqual(t, a.Radius, MinRadius)
				assert.LessOrEqual(t, a.Radius, MaxRadius)
				if maxBalance > 0 && a.Balance == maxBalance {
					assert.InDelta(t, MaxRadius, a.Radius, 1e-9)
				}
				for _, b := range nodes[i+1:] {
					switch {
					case a.Balance == b.Balance:
						assert.Equal(t, a.Radius, b.Radius, "%s vs %s", a.ID, b.ID)
					case a.Balance < b.Balance:
						assert.LessOrEqual(t, a.Radius, b.Radius, "%s vs %s", a.ID, b.ID)
					default:
						assert.GreaterOrEqual(t, a.Radius, b.Radius, "%s vs %s", a.ID, b.ID)
					}
				}
			}
		})
	}
}

func TestBuildNodes_NoPositiveBalance(t *testing.T) {
	for _, n := range BuildNodes(holders(0, 0)) {
		assert.Equal(t, MinRadius, n.Radius)
	}
	assert.Empty(t, BuildNodes(nil))
}

func TestBuildLinks(t *testing.T) {
	hs := holders(3, 2, 1)
	hs[0].Connections = []string{"B", "missing", "A", "C"}
	hs[1].Connections = []string{"A"}

	links := BuildLinks(hs)
	assert.Equal(t, []Link{{Source: 0, Target: 1}, {Source: 0, Target: 2}, {Source: 1, Target: 0}}, links)
}

func TestBuildLinks_NoConnections(t *testing.T) {
	assert.Empty(t, BuildLinks(holders(1, 2)))
}
