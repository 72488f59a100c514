package utxo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

var (
	ErrInvalidUnspent = errors.New("invalid unspent")
	ErrValueOverflow  = errors.New("value overflows int64")
)

// Unspent is a wallet output being spent. [ID] is "txid:vout".
type Unspent struct {
	ID         string     `json:"id"`
	ScriptType ScriptType `json:"scriptType"`
	Value      uint64     `json:"value"`
	Chain      uint32     `json:"chain"`
	Index      uint32     `json:"index"`
}

func (u *Unspent) Verify() error {
	if err := u.ScriptType.Verify(); err != nil {
		return err
	}
	if u.Value > math.MaxInt64 {
		return fmt.Errorf("%w: %d", ErrValueOverflow, u.Value)
	}
	_, err := u.OutPoint()
	return err
}

func (u *Unspent) OutPoint() (*wire.OutPoint, error) {
	txID, vout, ok := strings.Cut(u.ID, ":")
	if !ok {
		return nil, fmt.Errorf("%w: id %q is not txid:vout", ErrInvalidUnspent, u.ID)
	}
	hash, err := chainhash.NewHashFromStr(txID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidUnspent, err)
	}
	index, err := strconv.ParseUint(vout, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidUnspent, err)
	}
	return wire.NewOutPoint(hash, uint32(index)), nil
}

// Address returns the wallet address the unspent is locked to.
func (u *Unspent) Address(keys *WalletKeys, params *chaincfg.Params) (string, error) {
	s, _, err := u.spendScript(keys, params)
	if err != nil {
		return "", err
	}
	return s.address.EncodeAddress(), nil
}

func (u *Unspent) spendScript(keys *WalletKeys, params *chaincfg.Params) (*spendScript, [numKeys]*btcec.PublicKey, error) {
	pubs, err := keys.Derive(u.Chain, u.Index)
	if err != nil {
		return nil, pubs, err
	}
	s, err := newSpendScript(u.ScriptType, pubs, params)
	return s, pubs, err
}
