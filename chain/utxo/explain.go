package utxo

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	safemath "github.com/MetalBlockchain/metalgo/utils/math"

	"github.com/MetalBlockchain/accountlib/status"
)

// Explanation is the human readable summary of a staged transaction.
type Explanation struct {
	ID           string   `json:"id"`
	Outputs      []Output `json:"outputs"`
	OutputAmount uint64   `json:"outputAmount"`
	InputAmount  uint64   `json:"inputAmount"`
	Fee          uint64   `json:"fee"`
	// InputSignatures is the number of signatures on each input.
	InputSignatures []int `json:"inputSignatures"`
	// Signatures is the number of signatures every input has at least.
	Signatures int           `json:"signatures"`
	Status     status.Status `json:"status"`
}

func Explain(txHex string, unspents []Unspent, pubs [numKeys]string, params *chaincfg.Params) (*Explanation, error) {
	keys, err := ParseWalletKeys(pubs)
	if err != nil {
		return nil, err
	}
	s, err := load(txHex, unspents, keys, params)
	if err != nil {
		return nil, err
	}

	e := &Explanation{
		ID:      s.tx.TxHash().String(),
		Outputs: make([]Output, 0, len(s.tx.TxOut)),
		Status:  s.status(),
	}
	for i, out := range s.tx.TxOut {
		_, addrs, _, err := txscript.ExtractPkScriptAddrs(out.PkScript, params)
		if err != nil || len(addrs) != 1 {
			return nil, fmt.Errorf("output %d: unsupported script", i)
		}
		value := uint64(out.Value)
		e.Outputs = append(e.Outputs, Output{
			Address: addrs[0].EncodeAddress(),
			Value:   value,
		})
		if e.OutputAmount, err = safemath.Add64(e.OutputAmount, value); err != nil {
			return nil, err
		}
	}
	for _, u := range unspents {
		if e.InputAmount, err = safemath.Add64(e.InputAmount, u.Value); err != nil {
			return nil, err
		}
	}
	if e.OutputAmount > e.InputAmount {
		return nil, fmt.Errorf("%w: %d > %d", ErrInsufficientFunds, e.OutputAmount, e.InputAmount)
	}
	e.Fee = e.InputAmount - e.OutputAmount

	collected, _ := s.counts()
	e.InputSignatures = collected
	for i, n := range collected {
		if i == 0 || n < e.Signatures {
			e.Signatures = n
		}
	}
	return e, nil
}
