package txs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MetalBlockchain/metalgo/utils/formatting"

	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/extrinsic"
	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/chain/txerrors"
)

var (
	_ TransactionBuilder = (*TransferBuilder)(nil)
	_ TransactionBuilder = (*BatchBuilder)(nil)
	_ TransactionBuilder = (*AddressInitializationBuilder)(nil)
	_ TransactionBuilder = (*UnnominateBuilder)(nil)
)

// TransactionBuilder is the surface shared by every variant builder.
type TransactionBuilder interface {
	Coin() coins.Coin
	Variant() Variant
	Sender(addr string) error
	SequenceID(nonce int64) error
	Fee(fee FeeOptions) error
	Validity(window ValidityWindow) error
	ReferenceBlock(hash string)
	Version(uint32)
	Material(m material.Material) error
	LoadMaterial(ctx context.Context) error
	Sign(key string) error
	Build(ctx context.Context) (*Transaction, error)
	From(raw string) error
	ValidateTransaction() error
	ValidateRawTransaction(raw string) error
}

// Factory creates builders of one coin that share a material provider.
type Factory struct {
	coin     coins.Coin
	provider material.Provider
}

func NewFactory(coin coins.Coin, provider material.Provider) (*Factory, error) {
	if coin.Model != coins.Account {
		return nil, fmt.Errorf("%w: %s", material.ErrNotAccountChain, coin)
	}
	if provider == nil {
		provider = material.NewStaticProvider(material.Defaults())
	}
	return &Factory{
		coin:     coin,
		provider: provider,
	}, nil
}

func (f *Factory) NewTransferBuilder() *TransferBuilder {
	return NewTransferBuilder(f.coin, f.provider)
}

func (f *Factory) NewBatchBuilder() *BatchBuilder {
	return NewBatchBuilder(f.coin, f.provider)
}

func (f *Factory) NewAddressInitializationBuilder() *AddressInitializationBuilder {
	return NewAddressInitializationBuilder(f.coin, f.provider)
}

func (f *Factory) NewUnnominateBuilder() *UnnominateBuilder {
	return NewUnnominateBuilder(f.coin, f.provider)
}

// NewBuilder returns an empty builder for [variant].
func (f *Factory) NewBuilder(variant Variant) (TransactionBuilder, error) {
	switch variant {
	case TransferVariant:
		return f.NewTransferBuilder(), nil
	case BatchVariant:
		return f.NewBatchBuilder(), nil
	case AddressInitializationVariant:
		return f.NewAddressInitializationBuilder(), nil
	case UnnominateVariant:
		return f.NewUnnominateBuilder(), nil
	default:
		return nil, fmt.Errorf("%w: %d", errUnknownVariant, variant)
	}
}

// From returns a builder of the variant encoded in [raw], loaded from it.
func (f *Factory) From(ctx context.Context, raw string) (TransactionBuilder, error) {
	decoded, m, err := f.decode(ctx, raw)
	if err != nil {
		return nil, err
	}
	builder, err := f.NewBuilder(decoded.Variant)
	if err != nil {
		return nil, err
	}
	if err := builder.Material(*m); err != nil {
		return nil, err
	}
	if err := builder.From(raw); err != nil {
		return nil, err
	}
	return builder, nil
}

// Decoded is the structured view of a raw transaction.
type Decoded struct {
	Signed      bool     `json:"signed"`
	Sender      string   `json:"sender,omitempty"`
	Signature   string   `json:"signature,omitempty"`
	Nonce       uint64   `json:"nonce"`
	Tip         uint64   `json:"tip"`
	EraPeriod   uint64   `json:"eraPeriod"`
	BlockHash   string   `json:"blockHash,omitempty"`
	GenesisHash string   `json:"genesisHash,omitempty"`
	SpecVersion uint32   `json:"specVersion,omitempty"`
	TxVersion   uint32   `json:"transactionVersion,omitempty"`
	Method      string   `json:"method"`
	Variant     Variant  `json:"-"`
	Args        CallArgs `json:"args"`
}

// UnmarshalJSON restores [Args] as the variant [Method] belongs to.
func (d *Decoded) UnmarshalJSON(b []byte) error {
	type decoded Decoded
	raw := struct {
		*decoded
		Args json.RawMessage `json:"args"`
	}{decoded: (*decoded)(d)}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	variant, ok := byMethod[d.Method]
	if !ok {
		return fmt.Errorf("%w: %s", errUnsupported, d.Method)
	}
	args := variants[variant].newArgs()
	if len(raw.Args) != 0 {
		if err := json.Unmarshal(raw.Args, args); err != nil {
			return err
		}
	}
	if batch, ok := args.(*BatchArgs); ok {
		batch.All = d.Method == material.BatchAll
	}
	d.Variant = variant
	d.Args = args
	return nil
}

// Decode parses [raw] without validating it against a builder.
func (f *Factory) Decode(ctx context.Context, raw string) (*Decoded, error) {
	decoded, _, err := f.decode(ctx, raw)
	return decoded, err
}

func (f *Factory) decode(ctx context.Context, raw string) (*Decoded, *material.Material, error) {
	m, err := f.provider.Get(ctx, f.coin)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't fetch %s material: %w", f.coin, err)
	}
	registry, err := m.Registry()
	if err != nil {
		return nil, nil, txerrors.BuildTransaction("invalid chain material: %s", err)
	}
	ext, err := extrinsic.ParseHex(raw)
	if err != nil {
		return nil, nil, txerrors.InvalidTransaction("%s", err)
	}
	cctx := &codecContext{
		registry: registry,
		prefix:   f.coin.SS58Prefix,
	}
	args, call, err := decodeCall(cctx, &ext.Call)
	if err != nil {
		return nil, nil, txerrors.InvalidTransaction("%s", err)
	}

	decoded := &Decoded{
		Signed:    ext.Signed,
		Nonce:     ext.Nonce,
		Tip:       ext.Tip,
		EraPeriod: ext.Era.Period,
		Method:    call.Method(),
		Variant:   args.Variant(),
		Args:      args,
	}
	if ext.Signed {
		if decoded.Sender, err = decodeAccount(ext.Signer, f.coin.SS58Prefix); err != nil {
			return nil, nil, txerrors.InvalidTransaction("%s", err)
		}
		if decoded.Signature, err = formatting.Encode(formatting.HexNC, ext.Signature); err != nil {
			return nil, nil, txerrors.InvalidTransaction("%s", err)
		}
	} else {
		decoded.BlockHash = hashString(ext.BlockHash)
		decoded.GenesisHash = hashString(ext.GenesisHash)
		decoded.SpecVersion = ext.SpecVersion
		decoded.TxVersion = ext.TxVersion
	}
	return decoded, m, nil
}
