package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeyLength is the byte length of a Solana public key.
const PublicKeyLength = 32

// ErrInvalidPublicKey is returned when an address is not a base58 32-byte key.
var ErrInvalidPublicKey = errors.New("invalid public key")

// DecodePublicKey decodes a base58 address into its 32 key bytes.
func DecodePublicKey(address string) ([]byte, error) {
	decoded, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(decoded) != PublicKeyLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPublicKey, len(decoded))
	}
	return decoded, nil
}

// IsOnCurve reports whether address is a point on the ed25519 curve.
// Wallet keys are on the curve; program derived addresses are not.
func IsOnCurve(address string) bool {
	point, err := DecodePublicKey(address)
	if err != nil {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(point)
	return err == nil
}
