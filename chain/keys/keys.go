// Package keys holds the ed25519 key pairs used by account chains.
package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/MetalBlockchain/accountlib/chain/address"
)

var ErrInvalidSeed = errors.New("invalid ed25519 seed")

// KeyPair is an ed25519 key pair derived from a 32 byte seed.
type KeyPair struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

// FromSeed derives the key pair of a raw 32 byte seed.
func FromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidSeed
	}
	private := ed25519.NewKeyFromSeed(seed)
	return &KeyPair{
		private: private,
		public:  private.Public().(ed25519.PublicKey),
	}, nil
}

// Parse accepts a seed encoded either as hex (optionally 0x prefixed) or as
// standard base64.
func Parse(key string) (*KeyPair, error) {
	seed, ok := decodeSeed(key)
	if !ok {
		return nil, ErrInvalidSeed
	}
	return FromSeed(seed)
}

// IsValidSeed reports whether [key] parses as an ed25519 seed.
func IsValidSeed(key string) bool {
	_, ok := decodeSeed(key)
	return ok
}

func decodeSeed(key string) ([]byte, bool) {
	trimmed := strings.TrimPrefix(key, "0x")
	if len(trimmed) == hex.EncodedLen(ed25519.SeedSize) {
		if seed, err := hex.DecodeString(trimmed); err == nil {
			return seed, true
		}
	}
	if seed, err := base64.StdEncoding.DecodeString(key); err == nil && len(seed) == ed25519.SeedSize {
		return seed, true
	}
	return nil, false
}

func (k *KeyPair) PublicKey() []byte {
	return k.public
}

// Address returns the SS58 address of this key under [prefix].
func (k *KeyPair) Address(prefix uint16) (string, error) {
	return address.Encode(k.public, prefix)
}

func (k *KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.private, msg)
}

// Verify checks [sig] over [msg] against the 32 byte public key [pub].
func Verify(pub, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}
