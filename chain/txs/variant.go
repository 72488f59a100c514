package txs

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MetalBlockchain/metalgo/utils/units"

	"github.com/MetalBlockchain/accountlib/chain/extrinsic"
	"github.com/MetalBlockchain/accountlib/chain/material"
)

const maxCallSize = 64 * units.KiB

// Variant tags the closed set of calls this package can build and decode.
type Variant uint8

const (
	TransferVariant Variant = iota
	BatchVariant
	AddressInitializationVariant
	UnnominateVariant
)

var (
	errUnknownVariant = errors.New("unknown call variant")
	errUnsupported    = errors.New("unsupported call")

	// variants is the dispatch table from variant tag to its codec.
	variants = map[Variant]variantCodec{
		TransferVariant: {
			name:    "transfer",
			methods: []string{material.TransferKeepAlive},
			newArgs: func() CallArgs { return &TransferArgs{} },
		},
		BatchVariant: {
			name:    "batch",
			methods: []string{material.Batch, material.BatchAll},
			newArgs: func() CallArgs { return &BatchArgs{} },
		},
		AddressInitializationVariant: {
			name:    "addressInitialization",
			methods: []string{material.AddProxy, material.Anonymous},
			newArgs: func() CallArgs { return &AddressInitializationArgs{} },
		},
		UnnominateVariant: {
			name:    "unnominate",
			methods: []string{material.Chill},
			newArgs: func() CallArgs { return &UnnominateArgs{} },
		},
	}

	byMethod = func() map[string]Variant {
		m := make(map[string]Variant)
		for variant, codec := range variants {
			for _, method := range codec.methods {
				m[method] = variant
			}
		}
		return m
	}()
)

func (v Variant) String() string {
	if codec, ok := variants[v]; ok {
		return codec.name
	}
	return "unknown"
}

// ParseVariant returns the variant named [name].
func ParseVariant(name string) (Variant, error) {
	for variant, codec := range variants {
		if codec.name == name {
			return variant, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errUnknownVariant, name)
}

// CallArgs are the variant specific arguments of a call.
type CallArgs interface {
	Variant() Variant
	Visit(Visitor) error

	// method returns the runtime method these arguments are built as.
	method() string
	encode(ctx *codecContext, method string) ([][]byte, error)
	decode(ctx *codecContext, method string, args [][]byte) error
	validate(ctx *codecContext) error
}

type variantCodec struct {
	name    string
	methods []string
	newArgs func() CallArgs
}

// codecContext carries what argument codecs need beyond the raw bytes.
type codecContext struct {
	registry *material.Registry
	prefix   uint16
}

// encodeCall encodes [args] into a runtime call.
func encodeCall(ctx *codecContext, args CallArgs) (*extrinsic.Call, error) {
	return encodeCallAs(ctx, args, args.method())
}

func encodeCallAs(ctx *codecContext, args CallArgs, method string) (*extrinsic.Call, error) {
	call, err := ctx.registry.Lookup(method)
	if err != nil {
		return nil, err
	}
	encoded, err := args.encode(ctx, method)
	if err != nil {
		return nil, fmt.Errorf("couldn't encode %s: %w", call.Method(), err)
	}
	return &extrinsic.Call{
		Index: call.Index,
		Args:  encoded,
	}, nil
}

// decodeCall resolves the variant of [call] and decodes its arguments.
func decodeCall(ctx *codecContext, call *extrinsic.Call) (CallArgs, material.Call, error) {
	resolved, err := ctx.registry.LookupIndex(call.Index)
	if err != nil {
		return nil, material.Call{}, err
	}
	variant, ok := byMethod[resolved.Method()]
	if !ok {
		return nil, resolved, fmt.Errorf("%w: %s", errUnsupported, resolved.Method())
	}
	args := variants[variant].newArgs()
	if err := args.decode(ctx, resolved.Method(), call.Args); err != nil {
		return nil, resolved, fmt.Errorf("couldn't decode %s: %w", resolved.Method(), err)
	}
	return args, resolved, nil
}

// CallObject is the structured form of a call: its index and its arguments
// as JSON.
type CallObject struct {
	CallIndex string          `json:"callIndex,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
}

// encodeObject encodes a structured call by decoding its JSON arguments into
// the variant registered for its call index.
func encodeObject(ctx *codecContext, obj *CallObject) (*extrinsic.Call, error) {
	index, err := material.ParseCallIndex(obj.CallIndex)
	if err != nil {
		return nil, err
	}
	resolved, err := ctx.registry.LookupIndex(index)
	if err != nil {
		return nil, err
	}
	variant, ok := byMethod[resolved.Method()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnsupported, resolved.Method())
	}
	args := variants[variant].newArgs()
	if err := json.Unmarshal(obj.Args, args); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidArg, err)
	}
	if err := args.validate(ctx); err != nil {
		return nil, err
	}
	return encodeCallAs(ctx, args, resolved.Method())
}

// DecodeCallObject returns the structured form of an encoded call.
func DecodeCallObject(registry *material.Registry, prefix uint16, raw string) (*CallObject, error) {
	call, err := extrinsic.ParseCallHex(raw)
	if err != nil {
		return nil, err
	}
	ctx := &codecContext{registry: registry, prefix: prefix}
	args, _, err := decodeCall(ctx, call)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return &CallObject{
		CallIndex: call.Index.String(),
		Args:      b,
	}, nil
}
