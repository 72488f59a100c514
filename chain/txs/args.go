package txs

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/MetalBlockchain/metalgo/utils/wrappers"
	"github.com/shopspring/decimal"

	"github.com/MetalBlockchain/accountlib/chain/address"
)

const balanceLen = 16

var (
	errInvalidArg   = errors.New("invalid call argument")
	errWrongArgsLen = errors.New("wrong number of call arguments")

	maxBalance = new(big.Int).Lsh(big.NewInt(1), 8*balanceLen)
)

func expectArgs(args [][]byte, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %d, got %d", errWrongArgsLen, n, len(args))
	}
	return nil
}

// encodeAccount maps an SS58 address to its 32 byte account id.
func encodeAccount(addr string) ([]byte, error) {
	pub, _, err := address.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidArg, err)
	}
	return pub, nil
}

func decodeAccount(b []byte, prefix uint16) (string, error) {
	addr, err := address.Encode(b, prefix)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errInvalidArg, err)
	}
	return addr, nil
}

// encodeBalance writes a non-negative integer decimal string as a fixed 16
// byte big endian value.
func encodeBalance(value string) ([]byte, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidArg, err)
	}
	if !d.IsInteger() || d.IsNegative() {
		return nil, fmt.Errorf("%w: %s is not a non-negative integer", errInvalidArg, value)
	}
	i := d.BigInt()
	if i.Cmp(maxBalance) >= 0 {
		return nil, fmt.Errorf("%w: %s overflows", errInvalidArg, value)
	}
	return i.FillBytes(make([]byte, balanceLen)), nil
}

func decodeBalance(b []byte) (string, error) {
	if len(b) != balanceLen {
		return "", fmt.Errorf("%w: balance must be %d bytes", errInvalidArg, balanceLen)
	}
	return new(big.Int).SetBytes(b).String(), nil
}

// encodeUint writes a non-negative integer decimal string as a big endian
// integer of [size] bytes.
func encodeUint(value string, size int) ([]byte, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidArg, err)
	}
	if !d.IsInteger() || d.IsNegative() {
		return nil, fmt.Errorf("%w: %s is not a non-negative integer", errInvalidArg, value)
	}
	i := d.BigInt()
	if i.BitLen() > 8*size {
		return nil, fmt.Errorf("%w: %s overflows %d bytes", errInvalidArg, value, size)
	}
	return i.FillBytes(make([]byte, size)), nil
}

func decodeUint(b []byte, size int) (string, error) {
	if len(b) != size {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", errInvalidArg, size, len(b))
	}
	return new(big.Int).SetBytes(b).String(), nil
}

func encodeByte(b byte) []byte {
	return []byte{b}
}

func decodeByte(b []byte) (byte, error) {
	if len(b) != 1 {
		return 0, fmt.Errorf("%w: expected 1 byte, got %d", errInvalidArg, len(b))
	}
	return b[0], nil
}

// encodeList packs nested encoded calls into a single argument.
func encodeList(items [][]byte) ([]byte, error) {
	p := &wrappers.Packer{MaxSize: maxCallSize}
	p.PackInt(uint32(len(items)))
	for _, item := range items {
		p.PackBytes(item)
	}
	return p.Bytes, p.Err
}

func decodeList(b []byte) ([][]byte, error) {
	p := &wrappers.Packer{Bytes: b, MaxSize: maxCallSize}
	n := p.UnpackInt()
	if p.Err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidArg, p.Err)
	}
	// every item carries at least a length prefix
	if uint64(n) > uint64(len(b)-p.Offset)/wrappers.IntLen {
		return nil, fmt.Errorf("%w: %d items exceed %d remaining bytes", errInvalidArg, n, len(b)-p.Offset)
	}
	items := make([][]byte, 0, n)
	for range n {
		item := p.UnpackBytes()
		if p.Err != nil {
			break
		}
		items = append(items, item)
	}
	if p.Err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidArg, p.Err)
	}
	if p.Offset != len(b) {
		return nil, fmt.Errorf("%w: %d trailing bytes", errInvalidArg, len(b)-p.Offset)
	}
	return items, nil
}
