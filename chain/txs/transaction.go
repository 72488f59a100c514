package txs

import (
	"bytes"
	"encoding/json"

	"github.com/MetalBlockchain/metalgo/ids"
	"github.com/MetalBlockchain/metalgo/utils/formatting"

	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/extrinsic"
	"github.com/MetalBlockchain/accountlib/chain/keys"
	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/chain/txerrors"
	"github.com/MetalBlockchain/accountlib/status"
)

var _ json.Marshaler = (*Transaction)(nil)

// Entry is one side of a value movement, for display.
type Entry struct {
	Address string `json:"address"`
	Value   string `json:"value"`
	Coin    string `json:"coin"`
}

// Transaction is a built account-chain transaction. It never changes after
// Build except through Sign.
type Transaction struct {
	coin     coins.Coin
	args     CallArgs
	material *material.Material
	registry *material.Registry

	sender         string
	blockNumber    uint64
	referenceBlock string

	ext    *extrinsic.Extrinsic
	status status.Status

	id      ids.ID
	bytes   []byte
	inputs  []Entry
	outputs []Entry
}

// JSON is the structured view of a transaction.
type JSON struct {
	ID                 string        `json:"id"`
	Sender             string        `json:"sender"`
	Nonce              uint64        `json:"nonce"`
	Tip                uint64        `json:"tip"`
	BlockNumber        uint64        `json:"blockNumber"`
	ReferenceBlock     string        `json:"referenceBlock"`
	GenesisHash        string        `json:"genesisHash"`
	SpecVersion        uint32        `json:"specVersion"`
	TransactionVersion uint32        `json:"transactionVersion"`
	ChainName          string        `json:"chainName"`
	EraPeriod          uint64        `json:"eraPeriod"`
	Method             string        `json:"method"`
	Status             status.Status `json:"status"`

	To     string `json:"to,omitempty"`
	Amount string `json:"amount,omitempty"`

	Owner     string    `json:"owner,omitempty"`
	ProxyType ProxyType `json:"proxyType,omitempty"`
	Delay     string    `json:"delay,omitempty"`
	Index     string    `json:"index,omitempty"`

	Calls []BatchCall `json:"calls,omitempty"`
}

func (tx *Transaction) Coin() coins.Coin {
	return tx.coin
}

func (tx *Transaction) Variant() Variant {
	return tx.args.Variant()
}

// Args returns the call arguments. Callers must not modify them.
func (tx *Transaction) Args() CallArgs {
	return tx.args
}

func (tx *Transaction) Material() *material.Material {
	return tx.material.Copy()
}

func (tx *Transaction) Sender() string {
	return tx.sender
}

func (tx *Transaction) Status() status.Status {
	return tx.status
}

// ID is the blake2b-256 hash of the broadcast bytes.
func (tx *Transaction) ID() ids.ID {
	return tx.id
}

func (tx *Transaction) Bytes() []byte {
	return tx.bytes
}

func (tx *Transaction) Size() int {
	return len(tx.bytes)
}

// Signature returns the ed25519 signature, or nil when unsigned.
func (tx *Transaction) Signature() []byte {
	if !tx.ext.Signed {
		return nil
	}
	return bytes.Clone(tx.ext.Signature)
}

// SigningPayload returns the bytes a signer commits to, hashed when long.
func (tx *Transaction) SigningPayload() ([]byte, error) {
	return tx.ext.SigningInput()
}

// Sign signs the transaction with [key], which must belong to the sender, and
// re-serializes it.
func (tx *Transaction) Sign(key string) error {
	kp, err := keys.Parse(key)
	if err != nil {
		return txerrors.BuildTransaction("Key validation failed")
	}
	if err := tx.sign(kp); err != nil {
		return err
	}
	return tx.refresh()
}

func (tx *Transaction) sign(kp *keys.KeyPair) error {
	signer, err := kp.Address(tx.coin.SS58Prefix)
	if err != nil {
		return txerrors.BuildTransaction("%s", err)
	}
	if signer != tx.sender {
		return txerrors.BuildTransaction("signing key %s does not match sender %s", signer, tx.sender)
	}
	msg, err := tx.ext.SigningInput()
	if err != nil {
		return txerrors.BuildTransaction("%s", err)
	}
	tx.ext.Signed = true
	tx.ext.Signer = kp.PublicKey()
	tx.ext.Signature = kp.Sign(msg)
	tx.status = status.FullySigned
	return nil
}

// VerifySignature reports whether the attached signature was produced by the
// sender over the current payload.
func (tx *Transaction) VerifySignature() bool {
	if !tx.ext.Signed {
		return false
	}
	msg, err := tx.ext.SigningInput()
	if err != nil {
		return false
	}
	return keys.Verify(tx.ext.Signer, msg, tx.ext.Signature)
}

// ToBroadcastFormat returns the 0x prefixed hex of the signed transaction, or
// of the signing payload while unsigned.
func (tx *Transaction) ToBroadcastFormat() (string, error) {
	return formatting.Encode(formatting.HexNC, tx.bytes)
}

// CallHex returns the encoded call alone, the form batches accept.
func (tx *Transaction) CallHex() (string, error) {
	return tx.ext.Call.Hex()
}

func (tx *Transaction) Inputs() []Entry {
	return append([]Entry(nil), tx.inputs...)
}

func (tx *Transaction) Outputs() []Entry {
	return append([]Entry(nil), tx.outputs...)
}

func (tx *Transaction) ToJSON() (*JSON, error) {
	id, err := formatting.Encode(formatting.HexNC, tx.id[:])
	if err != nil {
		return nil, err
	}
	call, err := tx.registry.LookupIndex(tx.ext.Call.Index)
	if err != nil {
		return nil, err
	}
	j := &JSON{
		ID:                 id,
		Sender:             tx.sender,
		Nonce:              tx.ext.Nonce,
		Tip:                tx.ext.Tip,
		BlockNumber:        tx.blockNumber,
		ReferenceBlock:     tx.referenceBlock,
		GenesisHash:        tx.material.GenesisHash,
		SpecVersion:        tx.material.SpecVersion,
		TransactionVersion: tx.material.TxVersion,
		ChainName:          tx.material.ChainName,
		EraPeriod:          tx.ext.Era.Period,
		Method:             call.Method(),
		Status:             tx.status,
	}
	return j, tx.args.Visit(&jsonVisitor{json: j})
}

func (tx *Transaction) MarshalJSON() ([]byte, error) {
	j, err := tx.ToJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(j)
}

// refresh recomputes the serialized form and everything derived from it.
func (tx *Transaction) refresh() error {
	b, err := tx.ext.Bytes()
	if err != nil {
		return txerrors.BuildTransaction("%s", err)
	}
	tx.bytes = b
	tx.id = extrinsic.Hash(b)

	v := &entriesVisitor{
		ctx: &codecContext{
			registry: tx.registry,
			prefix:   tx.coin.SS58Prefix,
		},
		sender: tx.sender,
		coin:   tx.coin.Name,
	}
	if err := tx.args.Visit(v); err != nil {
		return err
	}
	tx.inputs, tx.outputs = v.inputs, v.outputs
	return nil
}

type jsonVisitor struct {
	json *JSON
}

func (v *jsonVisitor) Transfer(a *TransferArgs) error {
	v.json.To = a.Dest
	v.json.Amount = a.Value
	return nil
}

func (v *jsonVisitor) Batch(a *BatchArgs) error {
	v.json.Calls = append([]BatchCall(nil), a.Calls...)
	return nil
}

func (v *jsonVisitor) AddressInitialization(a *AddressInitializationArgs) error {
	v.json.Owner = a.Delegate
	v.json.ProxyType = a.ProxyType
	v.json.Delay = a.Delay
	if a.Delegate == "" {
		v.json.Index = a.index()
	}
	return nil
}

func (*jsonVisitor) Unnominate(*UnnominateArgs) error {
	return nil
}

// entriesVisitor collects the value movements of a call, descending into
// batches.
type entriesVisitor struct {
	ctx     *codecContext
	sender  string
	coin    string
	inputs  []Entry
	outputs []Entry
}

func (v *entriesVisitor) Transfer(a *TransferArgs) error {
	v.inputs = append(v.inputs, Entry{Address: v.sender, Value: a.Value, Coin: v.coin})
	v.outputs = append(v.outputs, Entry{Address: a.Dest, Value: a.Value, Coin: v.coin})
	return nil
}

func (v *entriesVisitor) Batch(a *BatchArgs) error {
	for _, call := range a.Calls {
		encoded, err := encodeBatchCall(v.ctx, call)
		if err != nil {
			return err
		}
		args, _, err := decodeCall(v.ctx, encoded)
		if err != nil {
			return err
		}
		if err := args.Visit(v); err != nil {
			return err
		}
	}
	return nil
}

func (*entriesVisitor) AddressInitialization(*AddressInitializationArgs) error {
	return nil
}

func (*entriesVisitor) Unnominate(*UnnominateArgs) error {
	return nil
}
