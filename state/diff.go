package state

import (
	"github.com/MetalBlockchain/metalgo/database"
	"github.com/MetalBlockchain/metalgo/ids"
)

var _ Diff = (*diff)(nil)

// Diff collects the writes of one signing round on top of a parent chain.
// Nothing reaches the parent until Apply.
type Diff interface {
	Chain

	Apply(Chain)
}

type diff struct {
	parent Chain

	addedTxs map[ids.ID]*StagedTx
}

func NewDiff(parent Chain) Diff {
	return &diff{
		parent:   parent,
		addedTxs: make(map[ids.ID]*StagedTx),
	}
}

func (d *diff) GetStagedTx(txID ids.ID) (*StagedTx, error) {
	if tx, exists := d.addedTxs[txID]; exists {
		if tx == nil {
			return nil, database.ErrNotFound
		}
		return tx, nil
	}
	return d.parent.GetStagedTx(txID)
}

func (d *diff) PutStagedTx(tx *StagedTx) {
	d.addedTxs[tx.ID()] = tx
}

func (d *diff) DeleteStagedTx(txID ids.ID) {
	d.addedTxs[txID] = nil
}

func (d *diff) Apply(baseState Chain) {
	for txID, tx := range d.addedTxs {
		if tx == nil {
			baseState.DeleteStagedTx(txID)
			continue
		}
		baseState.PutStagedTx(tx)
	}
}
