package txs

import (
	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/material"
)

var _ CallArgs = (*UnnominateArgs)(nil)

// UnnominateArgs stops the sender from nominating or validating.
type UnnominateArgs struct{}

func (*UnnominateArgs) Variant() Variant {
	return UnnominateVariant
}

func (a *UnnominateArgs) Visit(v Visitor) error {
	return v.Unnominate(a)
}

func (*UnnominateArgs) method() string {
	return material.Chill
}

func (*UnnominateArgs) encode(*codecContext, string) ([][]byte, error) {
	return nil, nil
}

func (*UnnominateArgs) decode(_ *codecContext, _ string, args [][]byte) error {
	return expectArgs(args, 0)
}

func (*UnnominateArgs) validate(*codecContext) error {
	return nil
}

type UnnominateBuilder struct {
	*Builder
}

func NewUnnominateBuilder(coin coins.Coin, provider material.Provider) *UnnominateBuilder {
	b := &UnnominateBuilder{}
	b.Builder = newBuilder(coin, provider, &UnnominateArgs{}, func(CallArgs) error { return nil })
	return b
}
