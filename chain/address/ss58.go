// Package address implements SS58 account addresses.
package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	PublicKeyLen = 32

	checksumLen = 2
	maxPrefix   = 16383
)

var (
	ErrInvalidAddress  = errors.New("invalid ss58 address")
	ErrInvalidChecksum = errors.New("invalid ss58 checksum")
	ErrInvalidPrefix   = errors.New("invalid ss58 prefix")
	ErrInvalidKeyLen   = errors.New("invalid public key length")

	checksumPreimage = []byte("SS58PRE")
)

// Encode returns the SS58 address of [pub] under network [prefix].
func Encode(pub []byte, prefix uint16) (string, error) {
	if len(pub) != PublicKeyLen {
		return "", fmt.Errorf("%w: %d", ErrInvalidKeyLen, len(pub))
	}
	if prefix > maxPrefix {
		return "", fmt.Errorf("%w: %d", ErrInvalidPrefix, prefix)
	}

	body := append(encodePrefix(prefix), pub...)
	sum := checksum(body)
	return base58.Encode(append(body, sum[:checksumLen]...)), nil
}

// Decode returns the public key and network prefix encoded in [addr].
func Decode(addr string) ([]byte, uint16, error) {
	raw := base58.Decode(addr)
	if len(raw) == 0 {
		return nil, 0, fmt.Errorf("%w: not base58", ErrInvalidAddress)
	}

	prefixLen := 1
	if raw[0]&0x40 != 0 {
		prefixLen = 2
	}
	if len(raw) != prefixLen+PublicKeyLen+checksumLen {
		return nil, 0, fmt.Errorf("%w: unexpected length %d", ErrInvalidAddress, len(raw))
	}

	var prefix uint16
	switch prefixLen {
	case 1:
		prefix = uint16(raw[0])
	default:
		lower := (raw[0] << 2) | (raw[1] >> 6)
		upper := raw[1] & 0x3f
		prefix = uint16(lower) | uint16(upper)<<8
	}

	body := raw[:prefixLen+PublicKeyLen]
	sum := checksum(body)
	if !bytes.Equal(sum[:checksumLen], raw[len(body):]) {
		return nil, 0, ErrInvalidChecksum
	}
	return bytes.Clone(raw[prefixLen : prefixLen+PublicKeyLen]), prefix, nil
}

// IsValid reports whether [addr] is a well-formed SS58 account address of
// any network.
func IsValid(addr string) bool {
	_, _, err := Decode(addr)
	return err == nil
}

// Reencode converts [addr] to the same account under network [prefix].
func Reencode(addr string, prefix uint16) (string, error) {
	pub, _, err := Decode(addr)
	if err != nil {
		return "", err
	}
	return Encode(pub, prefix)
}

func encodePrefix(prefix uint16) []byte {
	if prefix < 64 {
		return []byte{byte(prefix)}
	}
	return []byte{
		byte((prefix&0x00fc)>>2) | 0x40,
		byte(prefix>>8) | byte(prefix&0x0003)<<6,
	}
}

func checksum(body []byte) [blake2b.Size]byte {
	preimage := make([]byte, 0, len(checksumPreimage)+len(body))
	preimage = append(preimage, checksumPreimage...)
	preimage = append(preimage, body...)
	return blake2b.Sum512(preimage)
}
