package state

import (
	"errors"
	"fmt"

	"github.com/MetalBlockchain/metalgo/cache"
	"github.com/MetalBlockchain/metalgo/database"
	"github.com/MetalBlockchain/metalgo/database/prefixdb"
	"github.com/MetalBlockchain/metalgo/database/versiondb"
	"github.com/MetalBlockchain/metalgo/ids"
)

// DefaultCacheSize is the number of staged txs kept in memory.
const DefaultCacheSize = 1024

var (
	_ State = (*state)(nil)

	stagedTxPrefix = []byte("staged")
)

type State interface {
	Chain

	// Commit changes to the base database.
	Commit() error

	// Abort drops the changes that were not committed.
	Abort()

	Close() error
}

type state struct {
	baseDB *versiondb.Database

	addedTxs map[ids.ID]*StagedTx            // map of txID -> StagedTx; a nil entry is a deletion
	txCache  cache.Cacher[ids.ID, *StagedTx] // txID -> StagedTx; if the entry is nil, it is not in the database
	txDB     database.Database
}

func New(db database.Database, cacheSize int) (State, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	baseDB := versiondb.New(db)
	return &state{
		baseDB:   baseDB,
		addedTxs: make(map[ids.ID]*StagedTx),
		txCache:  &cache.LRU[ids.ID, *StagedTx]{Size: cacheSize},
		txDB:     prefixdb.New(stagedTxPrefix, baseDB),
	}, nil
}

func (s *state) GetStagedTx(txID ids.ID) (*StagedTx, error) {
	if tx, exists := s.addedTxs[txID]; exists {
		if tx == nil {
			return nil, database.ErrNotFound
		}
		return tx, nil
	}
	if tx, cached := s.txCache.Get(txID); cached {
		if tx == nil {
			return nil, database.ErrNotFound
		}
		return tx, nil
	}

	txBytes, err := s.txDB.Get(txID[:])
	if err == database.ErrNotFound {
		s.txCache.Put(txID, nil)
		return nil, database.ErrNotFound
	} else if err != nil {
		return nil, err
	}

	tx, err := ParseStagedTx(txBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse staged tx %s: %w", txID, err)
	}
	s.txCache.Put(txID, tx)
	return tx, nil
}

func (s *state) PutStagedTx(tx *StagedTx) {
	s.addedTxs[tx.ID()] = tx
}

func (s *state) DeleteStagedTx(txID ids.ID) {
	s.addedTxs[txID] = nil
}

func (s *state) Abort() {
	clear(s.addedTxs)
	s.baseDB.Abort()
}

func (s *state) Commit() error {
	defer s.Abort()
	batch, err := s.CommitBatch()
	if err != nil {
		return err
	}
	return batch.Write()
}

func (s *state) CommitBatch() (database.Batch, error) {
	if err := s.writeTXs(); err != nil {
		return nil, err
	}
	return s.baseDB.CommitBatch()
}

func (s *state) Close() error {
	return errors.Join(
		s.txDB.Close(),
		s.baseDB.Close(),
	)
}

func (s *state) writeTXs() error {
	for txID, tx := range s.addedTxs {
		delete(s.addedTxs, txID)
		if tx == nil {
			s.txCache.Put(txID, nil)
			if err := s.txDB.Delete(txID[:]); err != nil {
				return fmt.Errorf("failed to delete staged tx: %w", err)
			}
			continue
		}

		// Note: Evict is used rather than Put here because tx may end up
		// referencing additional data (because of shared byte slices) that
		// would not be properly accounted for in the cache sizing.
		s.txCache.Evict(txID)
		if err := s.txDB.Put(txID[:], tx.Bytes()); err != nil {
			return fmt.Errorf("failed to add staged tx: %w", err)
		}
	}
	return nil
}
