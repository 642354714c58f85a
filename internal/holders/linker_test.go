package holders

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdermap/internal/domain"
	"holdermap/internal/solana"
	"holdermap/internal/solana/stub"
)

func linkFixture() (*stub.RPCClient, []domain.Holder) {
	rpc := stub.NewRPCClient()
	rpc.AddTransfer("sig1", "A", "B")
	rpc.AddTransfer("sig2", "C", "D")
	rpc.AddTransfer("sig3", "B", "outsider")

	holders := []domain.Holder{
		{Address: "A", Balance: 40},
		{Address: "B", Balance: 30},
		{Address: "C", Balance: 20},
		{Address: "D", Balance: 10},
	}
	return rpc, holders
}

func connections(holders []domain.Holder) map[string][]string {
	out := make(map[string][]string)
	for _, h := range holders {
		out[h.Address] = h.Connections
	}
	return out
}

func TestLinker_Link(t *testing.T) {
	rpc, holders := linkFixture()

	linked, err := NewLinker(rpc, 4, zerolog.Nop()).Link(context.Background(), holders)
	require.NoError(t, err)

	got := connections(linked)
	assert.Equal(t, []string{"B"}, got["A"])
	assert.Equal(t, []string{"A"}, got["B"])
	assert.Equal(t, []string{"D"}, got["C"])
	assert.Equal(t, []string{"C"}, got["D"])

	// input untouched
	assert.Nil(t, holders[0].Connections)
}

func TestLinker_TopKOnly(t *testing.T) {
	rpc, holders := linkFixture()

	linked, err := NewLinker(rpc, 1, zerolog.Nop(), WithConcurrency(1)).Link(context.Background(), holders)
	require.NoError(t, err)

	got := connections(linked)
	assert.Equal(t, []string{"B"}, got["A"])
	assert.Equal(t, []string{"A"}, got["B"])
	assert.Empty(t, got["C"])
	assert.Empty(t, got["D"])
}

func TestLinker_SkipsFailedTransactions(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Signatures["A"] = []solana.SignatureInfo{{Signature: "failed", Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}}}
	rpc.Transactions["failed"] = []string{"A", "B"}

	linked, err := NewLinker(rpc, 2, zerolog.Nop(), WithSignatureLimit(5)).Link(context.Background(), []domain.Holder{
		{Address: "A", Balance: 2},
		{Address: "B", Balance: 1},
	})
	require.NoError(t, err)
	assert.Empty(t, linked[0].Connections)
}

func TestLinker_Disabled(t *testing.T) {
	rpc, holders := linkFixture()

	linked, err := NewLinker(rpc, 0, zerolog.Nop()).Link(context.Background(), holders)
	require.NoError(t, err)
	assert.Equal(t, int32(0), rpc.Calls.Load())
	assert.Len(t, linked, 4)
}

func TestLinker_Error(t *testing.T) {
	rpc, holders := linkFixture()
	rpc.Err = errors.New("rate limited")

	_, err := NewLinker(rpc, 4, zerolog.Nop()).Link(context.Background(), holders)
	assert.EqualError(t, err, "rate limited")
}
