package types

import (
	"crypto/ed25519"

	"github.com/cosmos/btcutil/base58"
)

// PublicKeyLength is the size of an ed25519 public key.
const PublicKeyLength = ed25519.PublicKeySize

// PublicKey is a signer identity, rendered as base58.
type PublicKey [PublicKeyLength]byte

// ParsePublicKey decodes a base58 ed25519 public key.
func ParsePublicKey(s string) (PublicKey, error) {
	if err := ValidatePublicKey(s); err != nil {
		return PublicKey{}, err
	}
	var pk PublicKey
	copy(pk[:], base58.Decode(s))
	return pk, nil
}

// MustParsePublicKey panics on an invalid key. Intended for constants and tests.
func MustParsePublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// PublicKeyFromEd25519 converts a stdlib ed25519 key.
func PublicKeyFromEd25519(key ed25519.PublicKey) PublicKey {
	var pk PublicKey
	copy(pk[:], key)
	return pk
}

func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

func (pk PublicKey) Ed25519() ed25519.PublicKey {
	return ed25519.PublicKey(pk[:])
}

// Verify checks an ed25519 signature over msg.
func (pk PublicKey) Verify(msg, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pk.Ed25519(), msg, sig)
}

func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}
