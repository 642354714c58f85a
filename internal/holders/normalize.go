// Package holders turns provider account payloads into ranked token holders.
package holders

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"holdermap/internal/domain"
	"holdermap/internal/solana"
)

// ErrUnsupportedData is returned for account data in an unknown shape.
var ErrUnsupportedData = errors.New("unsupported account data")

// Token account layout offsets.
const (
	mintOffset   = 0
	ownerOffset  = 32
	amountOffset = 64
	amountEnd    = 72
)

// tokenAccount is a single SPL token account reduced to owner and amount.
type tokenAccount struct {
	Mint   string
	Owner  string
	Amount decimal.Decimal // UI-scaled when scaled is set, raw base units otherwise
	Raw    decimal.Decimal
	Scaled bool
	Dec    int
}

// parsedAccountData is the jsonParsed shape of a token account.
type parsedAccountData struct {
	Parsed *struct {
		Info *struct {
			Mint        string `json:"mint"`
			Owner       string `json:"owner"`
			TokenAmount *struct {
				Amount         string   `json:"amount"`
				Decimals       int      `json:"decimals"`
				UIAmount       *float64 `json:"uiAmount"`
				UIAmountString string   `json:"uiAmountString"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

// parseTokenAccount decodes jsonParsed, base64 or base58 account data.
func parseTokenAccount(acc solana.KeyedAccount) (tokenAccount, error) {
	data := acc.Account.Data
	if len(data) == 0 {
		return tokenAccount{}, ErrUnsupportedData
	}

	switch data[0] {
	case '{':
		return parseJSONAccount(data)
	case '[':
		var pair []string
		if err := json.Unmarshal(data, &pair); err != nil || len(pair) != 2 {
			return tokenAccount{}, fmt.Errorf("%w: malformed encoded pair", ErrUnsupportedData)
		}
		raw, err := decodePayload(pair[0], pair[1])
		if err != nil {
			return tokenAccount{}, err
		}
		return parseBinaryAccount(raw)
	default:
		return tokenAccount{}, ErrUnsupportedData
	}
}

func parseJSONAccount(data json.RawMessage) (tokenAccount, error) {
	var parsed parsedAccountData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return tokenAccount{}, fmt.Errorf("decode parsed account: %w", err)
	}
	if parsed.Parsed == nil || parsed.Parsed.Info == nil {
		return tokenAccount{}, fmt.Errorf("%w: missing parsed info", ErrUnsupportedData)
	}
	info := parsed.Parsed.Info
	acc := tokenAccount{Mint: info.Mint, Owner: info.Owner, Scaled: true}
	if info.TokenAmount == nil {
		return acc, nil
	}

	ta := info.TokenAmount
	acc.Dec = ta.Decimals
	if raw, err := decimal.NewFromString(ta.Amount); err == nil {
		acc.Raw = raw
	}
	switch {
	case ta.UIAmountString != "":
		v, err := decimal.NewFromString(ta.UIAmountString)
		if err != nil {
			return tokenAccount{}, fmt.Errorf("decode uiAmountString: %w", err)
		}
		acc.Amount = v
	case ta.UIAmount != nil:
		acc.Amount = decimal.NewFromFloat(*ta.UIAmount)
	default:
		acc.Amount = acc.Raw.Shift(int32(-ta.Decimals))
	}
	return acc, nil
}

func decodePayload(payload, encoding string) ([]byte, error) {
	switch encoding {
	case "base64":
		return base64.StdEncoding.DecodeString(payload)
	case "base58":
		return base58.Decode(payload)
	default:
		return nil, fmt.Errorf("%w: encoding %q", ErrUnsupportedData, encoding)
	}
}

// parseBinaryAccount reads mint, owner and amount from the raw token account layout.
// The amount is left unscaled.
func parseBinaryAccount(raw []byte) (tokenAccount, error) {
	if len(raw) < amountEnd {
		return tokenAccount{}, fmt.Errorf("%w: %d bytes", ErrUnsupportedData, len(raw))
	}
	amount := binary.LittleEndian.Uint64(raw[amountOffset:amountEnd])
	raw64 := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
	return tokenAccount{
		Mint:   base58.Encode(raw[mintOffset:ownerOffset]),
		Owner:  base58.Encode(raw[ownerOffset:amountOffset]),
		Amount: raw64,
		Raw:    raw64,
	}, nil
}

// Result is the outcome of normalizing a set of token accounts.
type Result struct {
	Holders []domain.Holder
	Skipped int // accounts that could not be decoded
}

// Normalize reduces token accounts to holders: accounts of the same owner are
// merged, zero balances dropped, and the result sorted by balance descending.
// Binary accounts are scaled by the decimals reported by parsed siblings.
func Normalize(accounts []solana.KeyedAccount) Result {
	var (
		parsed   []tokenAccount
		skipped  int
		decimals = -1
	)
	for _, acc := range accounts {
		ta, err := parseTokenAccount(acc)
		if err != nil || ta.Owner == "" {
			skipped++
			continue
		}
		if ta.Scaled && decimals < 0 && ta.Dec > 0 {
			decimals = ta.Dec
		}
		parsed = append(parsed, ta)
	}
	if decimals < 0 {
		decimals = 0
	}

	balances := make(map[string]decimal.Decimal)
	var order []string
	for _, ta := range parsed {
		amount := ta.Amount
		if !ta.Scaled {
			amount = ta.Raw.Shift(int32(-decimals))
		}
		if cur, ok := balances[ta.Owner]; ok {
			balances[ta.Owner] = cur.Add(amount)
			continue
		}
		balances[ta.Owner] = amount
		order = append(order, ta.Owner)
	}

	holders := make([]domain.Holder, 0, len(order))
	for _, owner := range order {
		bal := balances[owner]
		if !bal.IsPositive() {
			continue
		}
		f, _ := bal.Float64()
		holders = append(holders, domain.Holder{
			Address:     owner,
			Balance:     f,
			Connections: []string{},
			Kind:        Classify(owner),
		})
	}
	SortByBalance(holders)
	return Result{Holders: holders, Skipped: skipped}
}

// FromLargestAccounts converts getTokenLargestAccounts entries to holders.
// Token account addresses stand in for owners.
func FromLargestAccounts(accounts []solana.LargestAccount) []domain.Holder {
	holders := make([]domain.Holder, 0, len(accounts))
	for _, acc := range accounts {
		var bal decimal.Decimal
		switch {
		case acc.UIAmountString != "":
			v, err := decimal.NewFromString(acc.UIAmountString)
			if err != nil {
				continue
			}
			bal = v
		case acc.UIAmount != nil:
			bal = decimal.NewFromFloat(*acc.UIAmount)
		default:
			raw, err := decimal.NewFromString(acc.Amount)
			if err != nil {
				continue
			}
			bal = raw.Shift(int32(-acc.Decimals))
		}
		if !bal.IsPositive() {
			continue
		}
		f, _ := bal.Float64()
		holders = append(holders, domain.Holder{
			Address:     acc.Address,
			Balance:     f,
			Connections: []string{},
			Kind:        domain.HolderWallet,
		})
	}
	SortByBalance(holders)
	return holders
}

// Classify returns HolderProgram for valid off-curve keys and HolderWallet otherwise.
func Classify(address string) domain.HolderKind {
	if _, err := solana.DecodePublicKey(address); err != nil {
		return domain.HolderWallet
	}
	if solana.IsOnCurve(address) {
		return domain.HolderWallet
	}
	return domain.HolderProgram
}

// SortByBalance orders holders by balance descending, then address ascending.
func SortByBalance(holders []domain.Holder) {
	sort.SliceStable(holders, func(i, j int) bool {
		if holders[i].Balance != holders[j].Balance {
			return holders[i].Balance > holders[j].Balance
		}
		return holders[i].Address < holders[j].Address
	})
}

// Top returns the first n holders.
func Top(holders []domain.Holder, n int) []domain.Holder {
	if n >= 0 && len(holders) > n {
		return holders[:n]
	}
	return holders
}
