package extrinsic

import (
	"errors"
	"fmt"
	"math"

	"github.com/MetalBlockchain/metalgo/utils/formatting"
	"github.com/MetalBlockchain/metalgo/utils/wrappers"

	"github.com/MetalBlockchain/accountlib/chain/common"
	"github.com/MetalBlockchain/accountlib/chain/material"
)

var (
	_ common.Serializable = (*Call)(nil)

	ErrTooManyArgs = errors.New("too many call arguments")
)

// Call is an encoded runtime call: its index followed by opaque, length
// prefixed arguments.
type Call struct {
	Index material.CallIndex
	Args  [][]byte
}

func (c *Call) Marshal(p *wrappers.Packer) ([]byte, error) {
	if len(c.Args) > math.MaxUint8 {
		return nil, fmt.Errorf("%w: %d", ErrTooManyArgs, len(c.Args))
	}
	p.PackFixedBytes(c.Index[:])
	p.PackByte(byte(len(c.Args)))
	for _, arg := range c.Args {
		p.PackBytes(arg)
	}
	return p.Bytes, p.Err
}

func (c *Call) Unmarshal(p *wrappers.Packer) error {
	copy(c.Index[:], p.UnpackFixedBytes(len(c.Index)))
	numArgs := p.UnpackByte()
	if p.Err != nil {
		return p.Err
	}
	c.Args = make([][]byte, 0, numArgs)
	for range numArgs {
		c.Args = append(c.Args, p.UnpackBytes())
	}
	return p.Err
}

func (c *Call) Bytes() ([]byte, error) {
	return c.Marshal(&wrappers.Packer{MaxSize: MaxSize})
}

// Hex returns the 0x prefixed encoding of the call, the form accepted by
// batch builders.
func (c *Call) Hex() (string, error) {
	b, err := c.Bytes()
	if err != nil {
		return "", err
	}
	return formatting.Encode(formatting.HexNC, b)
}

// ParseCall decodes a complete encoded call. Trailing bytes are rejected.
func ParseCall(b []byte) (*Call, error) {
	p := &wrappers.Packer{Bytes: b, MaxSize: MaxSize}
	call := &Call{}
	if err := call.Unmarshal(p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if p.Offset != len(b) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(b)-p.Offset)
	}
	return call, nil
}

// ParseCallHex is ParseCall over the hex form.
func ParseCallHex(s string) (*Call, error) {
	b, err := formatting.Decode(formatting.HexNC, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return ParseCall(b)
}
