package api

import (
	"github.com/MetalBlockchain/metalgo/ids"

	"github.com/MetalBlockchain/accountlib/chain/txs"
	"github.com/MetalBlockchain/accountlib/chain/utxo"
)

type CoinArgs struct {
	// Coin defaults to the coin the server was configured with.
	Coin string `json:"coin,omitempty"`
}

// BuildTransactionArgs carries every builder field. Fields that do not apply
// to [Variant] must be left empty.
type BuildTransactionArgs struct {
	CoinArgs
	Variant string `json:"variant"`

	// Raw, when set, loads the builder from an existing transaction before
	// the other fields are applied.
	Raw string `json:"raw,omitempty"`

	Sender         string              `json:"sender,omitempty"`
	Nonce          *int64              `json:"nonce,omitempty"`
	Fee            *txs.FeeOptions     `json:"fee,omitempty"`
	Validity       *txs.ValidityWindow `json:"validity,omitempty"`
	ReferenceBlock string              `json:"referenceBlock,omitempty"`
	// Key is the hex seed of the sender's ed25519 key. Empty leaves the
	// transaction unsigned.
	Key string `json:"key,omitempty"`

	// transfer
	To     string `json:"to,omitempty"`
	Amount string `json:"amount,omitempty"`

	// batch
	Calls []txs.BatchCall `json:"calls,omitempty"`
	All   bool            `json:"all,omitempty"`

	// addressInitialization
	Owner     string        `json:"owner,omitempty"`
	ProxyType txs.ProxyType `json:"proxyType,omitempty"`
	Delay     string        `json:"delay,omitempty"`
	Index     *int64        `json:"index,omitempty"`
}

type RawTransactionArgs struct {
	CoinArgs
	Raw string `json:"raw"`
}

type ValidateRawTransactionArgs struct {
	RawTransactionArgs
	Variant string `json:"variant"`
}

type PrebuildMultisigArgs struct {
	CoinArgs
	Unspents   []utxo.Unspent `json:"unspents"`
	Outputs    []utxo.Output  `json:"outputs"`
	WalletPubs [3]string      `json:"pubs"`
}

type SignMultisigArgs struct {
	CoinArgs
	utxo.SignParams
}

// MultisigArgs identifies a staged transaction and the wallet spending it.
type MultisigArgs struct {
	CoinArgs
	TxHex      string         `json:"txHex"`
	Unspents   []utxo.Unspent `json:"unspents"`
	WalletPubs [3]string      `json:"pubs"`
}

type GetStagedTxArgs struct {
	TxID ids.ID `json:"txID"`
}
