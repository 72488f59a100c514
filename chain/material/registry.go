package material

import (
	"errors"
	"fmt"

	"github.com/MetalBlockchain/metalgo/utils/formatting"
	"github.com/MetalBlockchain/metalgo/utils/units"
	"github.com/MetalBlockchain/metalgo/utils/wrappers"
)

const maxMetadataSize = 64 * units.KiB

var (
	ErrUnknownCall     = errors.New("unknown call")
	ErrDuplicateCall   = errors.New("duplicate call")
	ErrInvalidMetadata = errors.New("invalid metadata")
)

// CallIndex addresses a call as {pallet index, call index}.
type CallIndex [2]byte

func (c CallIndex) String() string {
	s, _ := formatting.Encode(formatting.HexNC, c[:])
	return s
}

// ParseCallIndex parses the 0x prefixed hex form of a call index.
func ParseCallIndex(s string) (CallIndex, error) {
	b, err := formatting.Decode(formatting.HexNC, s)
	if err != nil {
		return CallIndex{}, fmt.Errorf("%w: %w", ErrUnknownCall, err)
	}
	if len(b) != 2 {
		return CallIndex{}, fmt.Errorf("%w: call index %q must be 2 bytes", ErrUnknownCall, s)
	}
	return CallIndex{b[0], b[1]}, nil
}

// Call is one entry of the call table.
type Call struct {
	Pallet string    `json:"pallet"`
	Name   string    `json:"name"`
	Index  CallIndex `json:"-"`
}

func (c Call) Method() string {
	return c.Pallet + "." + c.Name
}

func (c *Call) Marshal(p *wrappers.Packer) ([]byte, error) {
	p.PackStr(c.Pallet)
	p.PackStr(c.Name)
	p.PackFixedBytes(c.Index[:])
	return p.Bytes, p.Err
}

func (c *Call) Unmarshal(p *wrappers.Packer) error {
	c.Pallet = p.UnpackStr()
	c.Name = p.UnpackStr()
	copy(c.Index[:], p.UnpackFixedBytes(len(c.Index)))
	return p.Err
}

// Registry resolves calls by method name and by index.
type Registry struct {
	calls    []Call
	byMethod map[string]Call
	byIndex  map[CallIndex]Call
}

func NewRegistry(calls []Call) (*Registry, error) {
	r := &Registry{
		calls:    make([]Call, 0, len(calls)),
		byMethod: make(map[string]Call, len(calls)),
		byIndex:  make(map[CallIndex]Call, len(calls)),
	}
	for _, call := range calls {
		if _, ok := r.byMethod[call.Method()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCall, call.Method())
		}
		if _, ok := r.byIndex[call.Index]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCall, call.Index)
		}
		r.calls = append(r.calls, call)
		r.byMethod[call.Method()] = call
		r.byIndex[call.Index] = call
	}
	return r, nil
}

// ParseMetadata decodes the hex call table carried by [Material].
func ParseMetadata(metadata string) (*Registry, error) {
	b, err := formatting.Decode(formatting.HexNC, metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}

	p := &wrappers.Packer{Bytes: b, MaxSize: maxMetadataSize}
	numCalls := p.UnpackInt()
	if p.Err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, p.Err)
	}
	calls := make([]Call, 0, min(numCalls, 256))
	for range numCalls {
		var call Call
		if err := call.Unmarshal(p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
		}
		calls = append(calls, call)
	}
	if p.Offset != len(b) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidMetadata, len(b)-p.Offset)
	}
	return NewRegistry(calls)
}

// EncodeMetadata is the inverse of [ParseMetadata].
func EncodeMetadata(calls []Call) (string, error) {
	p := &wrappers.Packer{MaxSize: maxMetadataSize}
	p.PackInt(uint32(len(calls)))
	for i := range calls {
		if _, err := calls[i].Marshal(p); err != nil {
			return "", err
		}
	}
	if p.Err != nil {
		return "", p.Err
	}
	return formatting.Encode(formatting.HexNC, p.Bytes)
}

// Lookup returns the call registered under "pallet.name".
func (r *Registry) Lookup(method string) (Call, error) {
	call, ok := r.byMethod[method]
	if !ok {
		return Call{}, fmt.Errorf("%w: %s", ErrUnknownCall, method)
	}
	return call, nil
}

func (r *Registry) LookupIndex(index CallIndex) (Call, error) {
	call, ok := r.byIndex[index]
	if !ok {
		return Call{}, fmt.Errorf("%w: %s", ErrUnknownCall, index)
	}
	return call, nil
}

func (r *Registry) Calls() []Call {
	return append([]Call(nil), r.calls...)
}
