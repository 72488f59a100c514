// Package fixtures holds the keys and unspents shared by the server and
// integration tests.
package fixtures

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/MetalBlockchain/accountlib/chain/utxo"
)

const UnspentValue = 100_000

// Account is an ed25519 key pair on the Westend test network.
type Account struct {
	SecretKey string
	Address   string
}

var (
	Sender = Account{
		SecretKey: "874578010603af8e93b44bfc1d13b32830d0dbca6c89f28ccdc662afd3cdc824",
		Address:   "5EGoFA95omzemRssELLDjVenNZ68aXyUeqtKQScXSEBvVJkr",
	}
	Receiver = Account{
		SecretKey: "ff2f0c73e7e8a34ba80401efa06f16cbb3406ca1f04b4fc618bc937643eef498",
		Address:   "5GsG6P9EqkbmTrM1GE5bcQx9nsSq74KueiLa1kNZiwagFxW4",
	}

	ReferenceBlock = "0x149799bc9602cb5cf201f3425fb8d253b2d4e61fc119dcab3249f307f594754d"

	Params = &chaincfg.TestNet3Params
)

// Wallet is a user, backup and bitgo key triple.
type Wallet struct {
	Prvs [3]string
	Pubs [3]string
}

// NewWallet derives a deterministic wallet; different salts give different
// wallets.
func NewWallet(salt byte) (Wallet, error) {
	var w Wallet
	for i := range w.Prvs {
		seed := bytes.Repeat([]byte{salt, byte(i + 1)}, 16)
		master, err := hdkeychain.NewMaster(seed, Params)
		if err != nil {
			return Wallet{}, err
		}
		pub, err := master.Neuter()
		if err != nil {
			return Wallet{}, err
		}
		w.Prvs[i], w.Pubs[i] = master.String(), pub.String()
	}
	return w, nil
}

// SignParams is a signing round of [signer] expecting [cosigner].
func (w Wallet) SignParams(txHex string, unspents []utxo.Unspent, signer, cosigner int) utxo.SignParams {
	return utxo.SignParams{
		TxHex:       txHex,
		Unspents:    unspents,
		Signer:      w.Prvs[signer],
		WalletPubs:  w.Pubs,
		CosignerPub: w.Pubs[cosigner],
	}
}

// ChangeOutput pays everything but [fee] back to the wallet.
func (w Wallet) ChangeOutput(unspents []utxo.Unspent, fee uint64) ([]utxo.Output, error) {
	keys, err := utxo.ParseWalletKeys(w.Pubs)
	if err != nil {
		return nil, err
	}
	change := utxo.Unspent{ScriptType: utxo.P2wsh, Chain: 1, Index: 100}
	addr, err := change.Address(keys, Params)
	if err != nil {
		return nil, err
	}
	var total uint64
	for _, u := range unspents {
		total += u.Value
	}
	return []utxo.Output{{Address: addr, Value: total - fee}}, nil
}

// Unspents returns one unspent per script type.
func Unspents(types ...utxo.ScriptType) []utxo.Unspent {
	unspents := make([]utxo.Unspent, len(types))
	for i, t := range types {
		unspents[i] = utxo.Unspent{
			ID:         fmt.Sprintf("%064x:%d", i+1, i),
			ScriptType: t,
			Value:      UnspentValue,
			Chain:      uint32(i % 2),
			Index:      uint32(i),
		}
	}
	return unspents
}
