package holders

import (
	"crypto/ed25519"
	"testing"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

// walletKey returns a fresh on-curve base58 address.
func walletKey(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return base58.Encode(pub)
}

// programKey returns a base58 32-byte address that is not on the curve.
func programKey(t *testing.T) string {
	t.Helper()
	var key [32]byte
	key[31] = 0x11
	for i := 0; i < 256; i++ {
		key[0] = byte(i)
		if _, err := new(edwards25519.Point).SetBytes(key[:]); err != nil {
			return base58.Encode(key[:])
		}
	}
	t.Fatal("no off-curve key found")
	return ""
}
