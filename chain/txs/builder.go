package txs

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/MetalBlockchain/metalgo/ids"
	"github.com/MetalBlockchain/metalgo/utils/formatting"
	"github.com/shopspring/decimal"

	"github.com/MetalBlockchain/accountlib/chain/address"
	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/era"
	"github.com/MetalBlockchain/accountlib/chain/extrinsic"
	"github.com/MetalBlockchain/accountlib/chain/keys"
	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/chain/schema"
	"github.com/MetalBlockchain/accountlib/chain/txerrors"
	"github.com/MetalBlockchain/accountlib/status"
)

// DefaultEraPeriod is the mortality used when no max duration was set.
const DefaultEraPeriod = 64

type FeeOptions struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

// ValidityWindow updates only the fields that are set.
type ValidityWindow struct {
	FirstValid  *int64 `json:"firstValid,omitempty"`
	MaxDuration *int64 `json:"maxDuration,omitempty"`
}

// Builder accumulates the fields shared by every account-chain transaction.
// Setters validate their own input and leave the builder untouched on
// failure; Build validates the assembled field set.
//
// A Builder must not be used by more than one goroutine at a time.
type Builder struct {
	coin     coins.Coin
	provider material.Provider

	sender         string
	blockNumber    *uint64
	referenceBlock string
	nonce          *uint64
	tip            *uint64
	eraPeriod      *uint64

	material *material.Material
	registry *material.Registry
	key      *keys.KeyPair

	args    CallArgs
	hydrate func(CallArgs) error
}

// newBuilder seeds the builder with the built in material of [coin] when no
// provider is given; otherwise material is fetched on Build.
func newBuilder(coin coins.Coin, provider material.Provider, args CallArgs, hydrate func(CallArgs) error) *Builder {
	b := &Builder{
		coin:     coin,
		provider: provider,
		args:     args,
		hydrate:  hydrate,
	}
	if provider == nil {
		if m, ok := material.Defaults()[coin.Name]; ok {
			_ = b.Material(m)
		}
	}
	return b
}

func (b *Builder) Coin() coins.Coin {
	return b.coin
}

// Variant returns the call variant this builder builds.
func (b *Builder) Variant() Variant {
	return b.args.Variant()
}

// Sender sets the SS58 address of the sending account.
func (b *Builder) Sender(addr string) error {
	if err := b.ValidateAddress(addr); err != nil {
		return err
	}
	b.sender = addr
	return nil
}

// SequenceID sets the account nonce.
func (b *Builder) SequenceID(nonce int64) error {
	if err := b.ValidateValue(nonce); err != nil {
		return err
	}
	n := uint64(nonce)
	b.nonce = &n
	return nil
}

// Fee sets the tip paid to increase the priority of the transaction.
func (b *Builder) Fee(fee FeeOptions) error {
	if fee.Type != b.coin.FeeKind {
		return txerrors.InvalidFee(fee.Type, b.coin.FeeKind)
	}
	if err := b.ValidateValue(fee.Amount); err != nil {
		return err
	}
	tip, err := toUint64(fee.Amount)
	if err != nil {
		return err
	}
	b.tip = &tip
	return nil
}

// Validity sets the block the transaction is first valid at and the number
// of blocks it stays valid for. A max duration of zero makes it immortal.
func (b *Builder) Validity(window ValidityWindow) error {
	if window.FirstValid != nil {
		if err := b.ValidateValue(*window.FirstValid); err != nil {
			return err
		}
	}
	if window.MaxDuration != nil {
		if err := b.ValidateValue(*window.MaxDuration); err != nil {
			return err
		}
	}
	if window.FirstValid != nil {
		n := uint64(*window.FirstValid)
		b.blockNumber = &n
	}
	if window.MaxDuration != nil {
		n := uint64(*window.MaxDuration)
		b.eraPeriod = &n
	}
	return nil
}

// ReferenceBlock sets the hash of the block at FirstValid. The pair is not
// cross checked; an inconsistent pair builds a transaction the network will
// reject.
func (b *Builder) ReferenceBlock(hash string) {
	b.referenceBlock = hash
}

// Version is kept for compatibility. The transaction version comes from the
// chain material.
//
// Deprecated: set the material instead.
func (b *Builder) Version(uint32) {}

// Material replaces the chain material and the registry derived from it.
func (b *Builder) Material(m material.Material) error {
	registry, err := m.Registry()
	if err != nil {
		return txerrors.BuildTransaction("invalid chain material: %s", err)
	}
	b.material = m.Copy()
	b.registry = registry
	return nil
}

// LoadMaterial fetches the material from the provider if none is set.
func (b *Builder) LoadMaterial(ctx context.Context) error {
	if b.material != nil {
		return nil
	}
	provider := b.provider
	if provider == nil {
		provider = material.NewStaticProvider(material.Defaults())
	}
	m, err := provider.Get(ctx, b.coin)
	if err != nil {
		return fmt.Errorf("couldn't fetch %s material: %w", b.coin, err)
	}
	return b.Material(*m)
}

// Sign stores the key Build signs with.
func (b *Builder) Sign(key string) error {
	if err := b.ValidateKey(key); err != nil {
		return err
	}
	kp, err := keys.Parse(key)
	if err != nil {
		return txerrors.BuildTransaction("Key validation failed")
	}
	b.key = kp
	return nil
}

// Build validates the builder and returns a new transaction, signed if a key
// was set. Build only blocks when the material must be fetched.
func (b *Builder) Build(ctx context.Context) (*Transaction, error) {
	if err := b.LoadMaterial(ctx); err != nil {
		return nil, err
	}
	if err := b.ValidateTransaction(); err != nil {
		return nil, err
	}
	cctx, err := b.codecContext()
	if err != nil {
		return nil, err
	}

	call, err := encodeCall(cctx, b.args)
	if err != nil {
		return nil, txerrors.BuildTransaction("%s", err)
	}
	// the snapshot holds the arguments as decoded from the payload so it
	// never shares state with the builder
	args, _, err := decodeCall(cctx, call)
	if err != nil {
		return nil, txerrors.BuildTransaction("%s", err)
	}
	genesisHash, err := parseHash(b.material.GenesisHash)
	if err != nil {
		return nil, err
	}
	blockHash, err := parseHash(b.referenceBlock)
	if err != nil {
		return nil, err
	}

	eraPeriod := uint64(DefaultEraPeriod)
	if b.eraPeriod != nil {
		eraPeriod = *b.eraPeriod
	}
	mortality := era.Immortal()
	if eraPeriod > 0 {
		mortality = era.Mortal(eraPeriod, *b.blockNumber)
	}

	var tip uint64
	if b.tip != nil {
		tip = *b.tip
	}
	tx := &Transaction{
		coin:           b.coin,
		args:           args,
		material:       b.material.Copy(),
		registry:       b.registry,
		sender:         b.sender,
		blockNumber:    *b.blockNumber,
		referenceBlock: b.referenceBlock,
		status:         status.Unsigned,
		ext: &extrinsic.Extrinsic{
			Call:        *call,
			Era:         mortality,
			Nonce:       *b.nonce,
			Tip:         tip,
			SpecVersion: b.material.SpecVersion,
			TxVersion:   b.material.TxVersion,
			GenesisHash: genesisHash,
			BlockHash:   blockHash,
		},
	}
	if b.key != nil {
		if err := tx.sign(b.key); err != nil {
			return nil, err
		}
	}
	if err := tx.refresh(); err != nil {
		return nil, err
	}
	return tx, nil
}

// From loads the builder from a raw transaction. A signing payload sets the
// reference block; a signed transaction sets the sender. The block number is
// not recoverable from the era and must be set again with Validity.
func (b *Builder) From(raw string) error {
	decoded, err := b.decode(raw)
	if err != nil {
		return err
	}

	ext := decoded.ext
	if ext.Signed {
		if err := b.Sender(decoded.sender); err != nil {
			return err
		}
	} else {
		b.ReferenceBlock(hashString(ext.BlockHash))
	}
	period := int64(ext.Era.Period)
	if err := b.Validity(ValidityWindow{MaxDuration: &period}); err != nil {
		return err
	}
	if err := b.SequenceID(int64(ext.Nonce)); err != nil {
		return err
	}
	if err := b.Fee(FeeOptions{Type: b.coin.FeeKind, Amount: fmt.Sprint(ext.Tip)}); err != nil {
		return err
	}
	return b.hydrate(decoded.args)
}

// ValidateTransaction checks the current builder state against the base
// profile and the profile of the call variant.
func (b *Builder) ValidateTransaction() error {
	base := schema.Base{
		Sender:      optional(b.sender),
		BlockNumber: b.blockNumber,
		BlockHash:   optional(b.referenceBlock),
		Nonce:       b.nonce,
		EraPeriod:   b.eraPeriod,
		Tip:         b.tip,
	}
	if m := b.material; m != nil {
		base.GenesisHash = optional(m.GenesisHash)
		base.ChainName = optional(m.ChainName)
		base.SpecVersion = &m.SpecVersion
		base.SpecName = optional(m.SpecName)
		base.TransactionVersion = &m.TxVersion
	}
	if err := schema.Validate(&base); err != nil {
		return err
	}

	cctx, err := b.codecContext()
	if err != nil {
		return err
	}
	return b.args.validate(cctx)
}

// ValidateRawTransaction decodes [raw] and checks it against the profile of
// its shape and of the call variant, without touching the builder.
func (b *Builder) ValidateRawTransaction(raw string) error {
	_, err := b.decode(raw)
	return err
}

func (b *Builder) ValidateAddress(addr string) error {
	return schema.ValidateAddress(addr, b.coin.Name)
}

func (*Builder) ValidateKey(key string) error {
	return schema.ValidateKey(key)
}

func (*Builder) ValidateValue(value any) error {
	return schema.ValidateValue(value)
}

type decodedTx struct {
	ext    *extrinsic.Extrinsic
	sender string
	args   CallArgs
}

func (b *Builder) decode(raw string) (*decodedTx, error) {
	ext, err := extrinsic.ParseHex(raw)
	if err != nil {
		return nil, txerrors.InvalidTransaction("%s", err)
	}
	// nonces are set through SequenceID, which takes an int64
	if ext.Nonce > math.MaxInt64 {
		return nil, txerrors.InvalidTransaction("nonce %d is out of range", ext.Nonce)
	}
	cctx, err := b.codecContext()
	if err != nil {
		return nil, err
	}

	period := ext.Era.Period
	decoded := &decodedTx{ext: ext}
	if ext.Signed {
		decoded.sender, err = address.Encode(ext.Signer, b.coin.SS58Prefix)
		if err != nil {
			return nil, txerrors.InvalidTransaction("%s", err)
		}
		err = schema.Validate(&schema.Signed{
			Sender:    &decoded.sender,
			Nonce:     &ext.Nonce,
			EraPeriod: &period,
			Tip:       &ext.Tip,
		})
	} else {
		if err := b.checkMaterial(ext); err != nil {
			return nil, err
		}
		blockHash := hashString(ext.BlockHash)
		err = schema.Validate(&schema.SigningPayload{
			EraPeriod: &period,
			BlockHash: &blockHash,
			Nonce:     &ext.Nonce,
			Tip:       &ext.Tip,
		})
	}
	if err != nil {
		return nil, err
	}

	args, call, err := decodeCall(cctx, &ext.Call)
	if err != nil {
		return nil, txerrors.InvalidTransaction("%s", err)
	}
	if expected := b.args.Variant(); args.Variant() != expected {
		return nil, txerrors.InvalidTransaction(
			"Invalid Transaction Type: %s. Expected %s",
			call.Name,
			methodName(variants[expected].methods[0]),
		)
	}
	if err := args.validate(cctx); err != nil {
		return nil, err
	}
	decoded.args = args
	return decoded, nil
}

// checkMaterial rejects signing payloads built for another chain or runtime.
func (b *Builder) checkMaterial(ext *extrinsic.Extrinsic) error {
	genesisHash, err := parseHash(b.material.GenesisHash)
	if err != nil {
		return err
	}
	switch {
	case ext.GenesisHash != genesisHash:
		return txerrors.InvalidTransaction("genesis hash %s does not match %s", hashString(ext.GenesisHash), b.material.ChainName)
	case ext.SpecVersion != b.material.SpecVersion:
		return txerrors.InvalidTransaction("spec version %d does not match %d", ext.SpecVersion, b.material.SpecVersion)
	case ext.TxVersion != b.material.TxVersion:
		return txerrors.InvalidTransaction("transaction version %d does not match %d", ext.TxVersion, b.material.TxVersion)
	}
	return nil
}

func (b *Builder) codecContext() (*codecContext, error) {
	if b.registry == nil {
		return nil, txerrors.InvalidTransaction("%s", material.ErrMissingMaterial)
	}
	return &codecContext{
		registry: b.registry,
		prefix:   b.coin.SS58Prefix,
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func methodName(method string) string {
	_, name, _ := strings.Cut(method, ".")
	return name
}

func toUint64(value string) (uint64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil || !d.IsInteger() || !d.BigInt().IsUint64() {
		return 0, txerrors.BuildTransaction("%s is not a valid amount", value)
	}
	return d.BigInt().Uint64(), nil
}

func parseHash(s string) (ids.ID, error) {
	b, err := formatting.Decode(formatting.HexNC, s)
	if err != nil {
		return ids.Empty, txerrors.BuildTransaction("invalid hash %q: %s", s, err)
	}
	id, err := ids.ToID(b)
	if err != nil {
		return ids.Empty, txerrors.BuildTransaction("invalid hash %q: %s", s, err)
	}
	return id, nil
}

func hashString(id ids.ID) string {
	s, _ := formatting.Encode(formatting.HexNC, id[:])
	return s
}
