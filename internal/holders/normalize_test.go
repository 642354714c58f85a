package holders

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdermap/internal/domain"
	"holdermap/internal/solana"
	"holdermap/internal/solana/stub"
)

func binaryAccount(t *testing.T, pubkey, mint, owner string, raw uint64, encoding string) solana.KeyedAccount {
	t.Helper()
	mintBytes, err := base58.Decode(mint)
	require.NoError(t, err)
	ownerBytes, err := base58.Decode(owner)
	require.NoError(t, err)

	buf := make([]byte, solana.TokenAccountSize)
	copy(buf[0:32], mintBytes)
	copy(buf[32:64], ownerBytes)
	binary.LittleEndian.PutUint64(buf[64:72], raw)

	var payload string
	if encoding == "base58" {
		payload = base58.Encode(buf)
	} else {
		payload = base64.StdEncoding.EncodeToString(buf)
	}
	data, err := json.Marshal([]string{payload, encoding})
	require.NoError(t, err)
	return solana.KeyedAccount{
		Pubkey:  pubkey,
		Account: solana.AccountData{Owner: solana.TokenProgramID, Data: data, Space: solana.TokenAccountSize},
	}
}

func TestNormalize_MergesByOwnerAndSorts(t *testing.T) {
	mint := walletKey(t)
	alice, bob, carol := walletKey(t), walletKey(t), walletKey(t)

	res := Normalize([]solana.KeyedAccount{
		stub.ParsedTokenAccount("acc1", mint, alice, 10, 6),
		stub.ParsedTokenAccount("acc2", mint, bob, 25, 6),
		stub.ParsedTokenAccount("acc3", mint, alice, 20, 6),
		stub.ParsedTokenAccount("acc4", mint, carol, 0, 6),
	})

	require.Len(t, res.Holders, 2)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, alice, res.Holders[0].Address)
	assert.InDelta(t, 30.0, res.Holders[0].Balance, 1e-9)
	assert.Equal(t, bob, res.Holders[1].Address)
	assert.InDelta(t, 25.0, res.Holders[1].Balance, 1e-9)
	assert.NotNil(t, res.Holders[0].Connections)
	assert.Empty(t, res.Holders[0].Connections)
}

func TestNormalize_EncodingsAgree(t *testing.T) {
	mint := walletKey(t)
	alice, bob := walletKey(t), walletKey(t)

	parsed := Normalize([]solana.KeyedAccount{
		stub.ParsedTokenAccount("acc1", mint, alice, 1.5, 6),
		stub.ParsedTokenAccount("acc2", mint, bob, 2.5, 6),
	})
	mixed := Normalize([]solana.KeyedAccount{
		stub.ParsedTokenAccount("acc1", mint, alice, 1.5, 6),
		binaryAccount(t, "acc2", mint, bob, 2_500_000, "base64"),
	})
	base58Mixed := Normalize([]solana.KeyedAccount{
		binaryAccount(t, "acc2", mint, bob, 2_500_000, "base58"),
		stub.ParsedTokenAccount("acc1", mint, alice, 1.5, 6),
	})

	assert.Equal(t, parsed.Holders, mixed.Holders)
	assert.Equal(t, parsed.Holders, base58Mixed.Holders)
}

func TestNormalize_BinaryWithoutDecimals(t *testing.T) {
	mint := walletKey(t)
	owner := walletKey(t)

	res := Normalize([]solana.KeyedAccount{binaryAccount(t, "acc", mint, owner, 42, "base64")})

	require.Len(t, res.Holders, 1)
	assert.Equal(t, owner, res.Holders[0].Address)
	assert.InDelta(t, 42.0, res.Holders[0].Balance, 1e-9)
}

func TestNormalize_SkipsUndecodable(t *testing.T) {
	mint := walletKey(t)
	owner := walletKey(t)

	res := Normalize([]solana.KeyedAccount{
		{Pubkey: "bad1", Account: solana.AccountData{Data: json.RawMessage(`"plain"`)}},
		{Pubkey: "bad2", Account: solana.AccountData{Data: json.RawMessage(`["abc","zstd"]`)}},
		{Pubkey: "bad3", Account: solana.AccountData{Data: json.RawMessage(`{"program":"spl-token"}`)}},
		{Pubkey: "bad4", Account: solana.AccountData{Data: json.RawMessage(`["AAAA","base64"]`)}},
		stub.ParsedTokenAccount("good", mint, owner, 7, 0),
	})

	assert.Equal(t, 4, res.Skipped)
	require.Len(t, res.Holders, 1)
	assert.InDelta(t, 7.0, res.Holders[0].Balance, 1e-9)
}

func TestNormalize_UIAmountFallbacks(t *testing.T) {
	owner := walletKey(t)
	data := json.RawMessage(`{"parsed":{"info":{"mint":"m","owner":"` + owner + `","tokenAmount":{"amount":"1234500","decimals":4,"uiAmount":null}}}}`)

	res := Normalize([]solana.KeyedAccount{{Pubkey: "acc", Account: solana.AccountData{Data: data}}})

	require.Len(t, res.Holders, 1)
	assert.InDelta(t, 123.45, res.Holders[0].Balance, 1e-9)
}

func TestNormalize_Empty(t *testing.T) {
	res := Normalize(nil)
	assert.Empty(t, res.Holders)
	assert.Equal(t, 0, res.Skipped)
}

func TestFromLargestAccounts(t *testing.T) {
	five := 5.0
	holders := FromLargestAccounts([]solana.LargestAccount{
		{Address: "small", Amount: "1000", Decimals: 3},
		{Address: "big", UIAmount: &five},
		{Address: "str", UIAmountString: "3.25"},
		{Address: "zero", Amount: "0", Decimals: 3},
	})

	require.Len(t, holders, 3)
	assert.Equal(t, "big", holders[0].Address)
	assert.Equal(t, "str", holders[1].Address)
	assert.Equal(t, "small", holders[2].Address)
	assert.InDelta(t, 1.0, holders[2].Balance, 1e-9)
	assert.Equal(t, domain.HolderWallet, holders[2].Kind)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, domain.HolderWallet, Classify(walletKey(t)))
	assert.Equal(t, domain.HolderProgram, Classify(programKey(t)))
	assert.Equal(t, domain.HolderWallet, Classify("not-a-key"))
}

func TestSortByBalance_TieBreak(t *testing.T) {
	holders := []domain.Holder{
		{Address: "b", Balance: 1},
		{Address: "a", Balance: 1},
		{Address: "c", Balance: 2},
	}
	SortByBalance(holders)
	assert.Equal(t, []string{"c", "a", "b"}, []string{holders[0].Address, holders[1].Address, holders[2].Address})
}

func TestTop(t *testing.T) {
	holders := make([]domain.Holder, 150)
	assert.Len(t, Top(holders, domain.MaxHolders), 100)
	assert.Len(t, Top(holders[:3], domain.MaxHolders), 3)
}
