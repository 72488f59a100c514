package txs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MetalBlockchain/metalgo/utils/formatting"

	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/extrinsic"
	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/chain/schema"
	"github.com/MetalBlockchain/accountlib/chain/txerrors"
)

var (
	_ CallArgs         = (*BatchArgs)(nil)
	_ json.Marshaler   = BatchCall{}
	_ json.Unmarshaler = (*BatchCall)(nil)

	errEmptyBatchCall = errors.New("batch call is neither a string nor an object")
)

// BatchCall is one element of a batch: either an encoded call (see
// Transaction.CallHex) or a structured call object.
type BatchCall struct {
	Raw    string
	Object *CallObject
}

func RawCall(raw string) BatchCall {
	return BatchCall{Raw: raw}
}

func ObjectCall(callIndex string, args json.RawMessage) BatchCall {
	return BatchCall{Object: &CallObject{CallIndex: callIndex, Args: args}}
}

func (c BatchCall) MarshalJSON() ([]byte, error) {
	if c.Object != nil {
		return json.Marshal(c.Object)
	}
	return json.Marshal(c.Raw)
}

func (c *BatchCall) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errEmptyBatchCall
	}
	switch b[0] {
	case '"':
		*c = BatchCall{}
		return json.Unmarshal(b, &c.Raw)
	case '{':
		obj := &CallObject{}
		if err := json.Unmarshal(b, obj); err != nil {
			return err
		}
		*c = BatchCall{Object: obj}
		return nil
	default:
		return errEmptyBatchCall
	}
}

// BatchArgs dispatches [Calls] in order. [All] makes the batch atomic.
type BatchArgs struct {
	Calls []BatchCall `json:"calls"`
	All   bool        `json:"-"`
}

func (*BatchArgs) Variant() Variant {
	return BatchVariant
}

func (a *BatchArgs) Visit(v Visitor) error {
	return v.Batch(a)
}

func (a *BatchArgs) method() string {
	if a.All {
		return material.BatchAll
	}
	return material.Batch
}

func (a *BatchArgs) encode(ctx *codecContext, _ string) ([][]byte, error) {
	items := make([][]byte, 0, len(a.Calls))
	for i, call := range a.Calls {
		encoded, err := encodeBatchCall(ctx, call)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		b, err := encoded.Bytes()
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	list, err := encodeList(items)
	if err != nil {
		return nil, err
	}
	return [][]byte{list}, nil
}

func (a *BatchArgs) decode(ctx *codecContext, method string, args [][]byte) error {
	if err := expectArgs(args, 1); err != nil {
		return err
	}
	items, err := decodeList(args[0])
	if err != nil {
		return err
	}
	calls := make([]BatchCall, 0, len(items))
	for i, item := range items {
		call, err := extrinsic.ParseCall(item)
		if err != nil {
			return fmt.Errorf("call %d: %w", i, err)
		}
		if _, _, err := decodeCall(ctx, call); err != nil {
			return fmt.Errorf("call %d: %w", i, err)
		}
		raw, err := formatting.Encode(formatting.HexNC, item)
		if err != nil {
			return err
		}
		calls = append(calls, RawCall(raw))
	}
	a.Calls = calls
	a.All = method == material.BatchAll
	return nil
}

func (a *BatchArgs) validate(ctx *codecContext) error {
	profile := schema.Batch{Calls: make([]schema.BatchCall, 0, len(a.Calls))}
	for _, call := range a.Calls {
		entry := schema.BatchCall{Raw: call.Raw}
		if call.Object != nil {
			entry.CallIndex = call.Object.CallIndex
			entry.HasArgs = len(call.Object.Args) > 0
		}
		profile.Calls = append(profile.Calls, entry)
	}
	if err := schema.Validate(&profile); err != nil {
		return err
	}
	for i, call := range a.Calls {
		if _, err := encodeBatchCall(ctx, call); err != nil {
			return txerrors.InvalidTransaction("Transaction validation failed: call %d: %s", i, err)
		}
	}
	return nil
}

func encodeBatchCall(ctx *codecContext, call BatchCall) (*extrinsic.Call, error) {
	if call.Object != nil {
		return encodeObject(ctx, call.Object)
	}
	decoded, err := extrinsic.ParseCallHex(call.Raw)
	if err != nil {
		return nil, err
	}
	if _, _, err := decodeCall(ctx, decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// BatchBuilder builds a call that dispatches several calls at once.
type BatchBuilder struct {
	*Builder
	args *BatchArgs
}

func NewBatchBuilder(coin coins.Coin, provider material.Provider) *BatchBuilder {
	b := &BatchBuilder{args: &BatchArgs{}}
	b.Builder = newBuilder(coin, provider, b.args, b.hydrate)
	return b
}

// Calls sets the batched calls. Every encoded call must decode under the
// current material, and every object must carry both a call index and args.
func (b *BatchBuilder) Calls(calls []BatchCall) error {
	if err := b.ValidateCalls(calls); err != nil {
		return err
	}
	b.args.Calls = append([]BatchCall(nil), calls...)
	return nil
}

// All makes the batch atomic: if one call fails, the whole batch reverts.
func (b *BatchBuilder) All(all bool) {
	b.args.All = all
}

func (b *BatchBuilder) ValidateCalls(calls []BatchCall) error {
	for _, call := range calls {
		switch {
		case call.Object == nil:
			ctx, err := b.codecContext()
			if err != nil {
				return fmt.Errorf("%w: invalid unsigned transaction: %w", txerrors.ErrBuildTransaction, err)
			}
			decoded, err := extrinsic.ParseCallHex(call.Raw)
			if err == nil {
				_, _, err = decodeCall(ctx, decoded)
			}
			if err != nil {
				return fmt.Errorf("%w: invalid unsigned transaction: %w", txerrors.ErrBuildTransaction, err)
			}
		case (call.Object.CallIndex == "") != (len(call.Object.Args) == 0):
			return txerrors.BuildTransaction("call missing either of the following parameters: args, callIndex")
		}
	}
	return nil
}

func (b *BatchBuilder) hydrate(args CallArgs) error {
	decoded := args.(*BatchArgs)
	b.args.All = decoded.All
	return b.Calls(decoded.Calls)
}
