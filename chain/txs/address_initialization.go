package txs

import (
	"errors"
	"fmt"

	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/chain/schema"
)

const (
	delayLen = 4
	indexLen = 2
)

var (
	_ CallArgs = (*AddressInitializationArgs)(nil)

	errUnknownProxyType = errors.New("unknown proxy type")
)

// ProxyType restricts the calls a proxy may make on behalf of its owner.
type ProxyType string

const (
	ProxyAny               ProxyType = "Any"
	ProxyNonTransfer       ProxyType = "NonTransfer"
	ProxyGovernance        ProxyType = "Governance"
	ProxyStaking           ProxyType = "Staking"
	ProxyIdentityJudgement ProxyType = "IdentityJudgement"
	ProxyCancelProxy       ProxyType = "CancelProxy"
	ProxyAuction           ProxyType = "Auction"
)

var proxyTypes = []ProxyType{
	ProxyAny,
	ProxyNonTransfer,
	ProxyGovernance,
	ProxyStaking,
	ProxyIdentityJudgement,
	ProxyCancelProxy,
	ProxyAuction,
}

func (p ProxyType) index() (byte, error) {
	for i, t := range proxyTypes {
		if t == p {
			return byte(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errUnknownProxyType, string(p))
}

func proxyTypeAt(i byte) (ProxyType, error) {
	if int(i) >= len(proxyTypes) {
		return "", fmt.Errorf("%w: %d", errUnknownProxyType, i)
	}
	return proxyTypes[i], nil
}

// AddressInitializationArgs registers [Delegate] as a proxy of the sender, or
// creates a fresh anonymous proxy account when no delegate is set.
type AddressInitializationArgs struct {
	Delegate  string    `json:"delegate,omitempty"`
	ProxyType ProxyType `json:"proxyType"`
	Delay     string    `json:"delay"`
	Index     string    `json:"index,omitempty"`
}

func (*AddressInitializationArgs) Variant() Variant {
	return AddressInitializationVariant
}

func (a *AddressInitializationArgs) Visit(v Visitor) error {
	return v.AddressInitialization(a)
}

func (a *AddressInitializationArgs) method() string {
	if a.Delegate != "" {
		return material.AddProxy
	}
	return material.Anonymous
}

// index of an anonymous proxy, defaulting to the first one.
func (a *AddressInitializationArgs) index() string {
	if a.Index == "" {
		return "0"
	}
	return a.Index
}

func (a *AddressInitializationArgs) encode(_ *codecContext, method string) ([][]byte, error) {
	proxyType, err := a.ProxyType.index()
	if err != nil {
		return nil, err
	}
	delay, err := encodeUint(a.Delay, delayLen)
	if err != nil {
		return nil, err
	}
	if method == material.AddProxy {
		delegate, err := encodeAccount(a.Delegate)
		if err != nil {
			return nil, err
		}
		return [][]byte{delegate, encodeByte(proxyType), delay}, nil
	}
	index, err := encodeUint(a.index(), indexLen)
	if err != nil {
		return nil, err
	}
	return [][]byte{encodeByte(proxyType), delay, index}, nil
}

func (a *AddressInitializationArgs) decode(ctx *codecContext, method string, args [][]byte) error {
	if err := expectArgs(args, 3); err != nil {
		return err
	}
	if method == material.AddProxy {
		delegate, err := decodeAccount(args[0], ctx.prefix)
		if err != nil {
			return err
		}
		a.Delegate = delegate
		args = args[1:]
	}

	b, err := decodeByte(args[0])
	if err != nil {
		return err
	}
	if a.ProxyType, err = proxyTypeAt(b); err != nil {
		return err
	}
	if a.Delay, err = decodeUint(args[1], delayLen); err != nil {
		return err
	}
	if method == material.Anonymous {
		if a.Index, err = decodeUint(args[2], indexLen); err != nil {
			return err
		}
	}
	return nil
}

func (a *AddressInitializationArgs) validate(*codecContext) error {
	profile := schema.AddressInitialization{
		Owner:     optional(a.Delegate),
		ProxyType: optional(string(a.ProxyType)),
		Delay:     optional(a.Delay),
	}
	if a.Delegate == "" {
		profile.Index = optional(a.index())
	}
	return schema.Validate(&profile)
}

// AddressInitializationBuilder builds proxy registrations. Without an owner
// it builds an anonymous proxy creation.
type AddressInitializationBuilder struct {
	*Builder
	args *AddressInitializationArgs
}

func NewAddressInitializationBuilder(coin coins.Coin, provider material.Provider) *AddressInitializationBuilder {
	b := &AddressInitializationBuilder{args: &AddressInitializationArgs{}}
	b.Builder = newBuilder(coin, provider, b.args, b.hydrate)
	return b
}

// Owner sets the account that becomes a proxy of the sender.
func (b *AddressInitializationBuilder) Owner(addr string) error {
	if err := b.ValidateAddress(addr); err != nil {
		return err
	}
	b.args.Delegate = addr
	return nil
}

func (b *AddressInitializationBuilder) Type(proxyType ProxyType) {
	b.args.ProxyType = proxyType
}

// Delay sets the announcement delay in blocks.
func (b *AddressInitializationBuilder) Delay(delay string) error {
	if err := b.ValidateValue(delay); err != nil {
		return err
	}
	b.args.Delay = delay
	return nil
}

// Index disambiguates several anonymous proxies created in one transaction.
func (b *AddressInitializationBuilder) Index(index int64) error {
	if err := b.ValidateValue(index); err != nil {
		return err
	}
	b.args.Index = fmt.Sprint(index)
	return nil
}

func (b *AddressInitializationBuilder) hydrate(args CallArgs) error {
	decoded := args.(*AddressInitializationArgs)
	*b.args = AddressInitializationArgs{}
	if decoded.Delegate != "" {
		if err := b.Owner(decoded.Delegate); err != nil {
			return err
		}
	}
	b.Type(decoded.ProxyType)
	if err := b.Delay(decoded.Delay); err != nil {
		return err
	}
	b.args.Index = decoded.Index
	return nil
}
