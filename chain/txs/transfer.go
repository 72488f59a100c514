package txs

import (
	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/chain/schema"
)

var _ CallArgs = (*TransferArgs)(nil)

// TransferArgs moves [Value] base units to [Dest], keeping the sender alive.
type TransferArgs struct {
	Dest  string `json:"dest"`
	Value string `json:"value"`
}

func (*TransferArgs) Variant() Variant {
	return TransferVariant
}

func (a *TransferArgs) Visit(v Visitor) error {
	return v.Transfer(a)
}

func (*TransferArgs) method() string {
	return material.TransferKeepAlive
}

func (a *TransferArgs) encode(*codecContext, string) ([][]byte, error) {
	dest, err := encodeAccount(a.Dest)
	if err != nil {
		return nil, err
	}
	value, err := encodeBalance(a.Value)
	if err != nil {
		return nil, err
	}
	return [][]byte{dest, value}, nil
}

func (a *TransferArgs) decode(ctx *codecContext, _ string, args [][]byte) error {
	if err := expectArgs(args, 2); err != nil {
		return err
	}
	dest, err := decodeAccount(args[0], ctx.prefix)
	if err != nil {
		return err
	}
	value, err := decodeBalance(args[1])
	if err != nil {
		return err
	}
	a.Dest, a.Value = dest, value
	return nil
}

func (a *TransferArgs) validate(*codecContext) error {
	return schema.Validate(&schema.Transfer{
		To:     optional(a.Dest),
		Amount: optional(a.Value),
	})
}

// TransferBuilder builds balance transfers.
type TransferBuilder struct {
	*Builder
	args *TransferArgs
}

func NewTransferBuilder(coin coins.Coin, provider material.Provider) *TransferBuilder {
	b := &TransferBuilder{args: &TransferArgs{}}
	b.Builder = newBuilder(coin, provider, b.args, b.hydrate)
	return b
}

// To sets the receiving address.
func (b *TransferBuilder) To(addr string) error {
	if err := b.ValidateAddress(addr); err != nil {
		return err
	}
	b.args.Dest = addr
	return nil
}

// Amount sets the transferred value in base units.
func (b *TransferBuilder) Amount(value string) error {
	if err := b.ValidateValue(value); err != nil {
		return err
	}
	b.args.Value = value
	return nil
}

func (b *TransferBuilder) hydrate(args CallArgs) error {
	decoded := args.(*TransferArgs)
	if err := b.To(decoded.Dest); err != nil {
		return err
	}
	return b.Amount(decoded.Value)
}
