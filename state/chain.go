package state

import "github.com/MetalBlockchain/metalgo/ids"

// Chain reads and writes staged multisig transactions.
type Chain interface {
	GetStagedTx(txID ids.ID) (*StagedTx, error)
	PutStagedTx(tx *StagedTx)
	DeleteStagedTx(txID ids.ID)
}
