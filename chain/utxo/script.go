package utxo

import (
	"errors"
	"fmt"

	"github.com/MetalBlockchain/metalgo/utils/set"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
)

var ErrUnknownScriptType = errors.New("unknown script type")

// ScriptType is the locking script of a wallet output.
type ScriptType string

const (
	// 2-of-3 multisig over the wallet triple.
	P2sh      ScriptType = "p2sh"
	P2shP2wsh ScriptType = "p2shP2wsh"
	P2wsh     ScriptType = "p2wsh"

	// P2shP2pk is the single key replay protection output, locked to the
	// user key.
	P2shP2pk ScriptType = "p2shP2pk"
)

func (t ScriptType) Verify() error {
	switch t {
	case P2sh, P2shP2wsh, P2wsh, P2shP2pk:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScriptType, string(t))
	}
}

// RequiredSignatures is the number of signatures an input of this type needs.
func (t ScriptType) RequiredSignatures() int {
	if t == P2shP2pk {
		return 1
	}
	return 2
}

// Cosigners returns the positions of the keys allowed to sign.
func (t ScriptType) Cosigners() set.Set[int] {
	if t == P2shP2pk {
		return set.Of(UserKey)
	}
	return set.Of(UserKey, BackupKey, BitGoKey)
}

func (t ScriptType) segwit() bool {
	return t == P2shP2wsh || t == P2wsh
}

// spendScript holds the scripts needed to lock and to spend one output.
type spendScript struct {
	pkScript      []byte
	redeemScript  []byte
	witnessScript []byte
	address       btcutil.Address
}

// signingScript is the script the signature hash commits to.
func (s *spendScript) signingScript() []byte {
	if s.witnessScript != nil {
		return s.witnessScript
	}
	return s.redeemScript
}

func newSpendScript(t ScriptType, pubs [numKeys]*btcec.PublicKey, params *chaincfg.Params) (*spendScript, error) {
	s := &spendScript{}
	var err error
	switch t {
	case P2sh:
		if s.redeemScript, err = multisigScript(pubs); err != nil {
			return nil, err
		}
		s.address, err = btcutil.NewAddressScriptHash(s.redeemScript, params)
	case P2wsh:
		if s.witnessScript, err = multisigScript(pubs); err != nil {
			return nil, err
		}
		s.address, err = btcutil.NewAddressWitnessScriptHash(chainhash.HashB(s.witnessScript), params)
	case P2shP2wsh:
		if s.witnessScript, err = multisigScript(pubs); err != nil {
			return nil, err
		}
		s.redeemScript, err = txscript.NewScriptBuilder().
			AddOp(txscript.OP_0).
			AddData(chainhash.HashB(s.witnessScript)).
			Script()
		if err != nil {
			return nil, err
		}
		s.address, err = btcutil.NewAddressScriptHash(s.redeemScript, params)
	case P2shP2pk:
		s.redeemScript, err = txscript.NewScriptBuilder().
			AddData(pubs[UserKey].SerializeCompressed()).
			AddOp(txscript.OP_CHECKSIG).
			Script()
		if err != nil {
			return nil, err
		}
		s.address, err = btcutil.NewAddressScriptHash(s.redeemScript, params)
	default:
		return nil, t.Verify()
	}
	if err != nil {
		return nil, err
	}
	if s.pkScript, err = txscript.PayToAddrScript(s.address); err != nil {
		return nil, err
	}
	return s, nil
}

// multisigScript is 2-of-3 over the keys in wallet order.
func multisigScript(pubs [numKeys]*btcec.PublicKey) ([]byte, error) {
	b := txscript.NewScriptBuilder().AddOp(txscript.OP_2)
	for _, pub := range pubs {
		b.AddData(pub.SerializeCompressed())
	}
	return b.AddOp(txscript.OP_3).AddOp(txscript.OP_CHECKMULTISIG).Script()
}
