// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MetalBlockchain/metalgo/cache"
	"github.com/MetalBlockchain/metalgo/ids"
	"github.com/MetalBlockchain/metalgo/utils/linked"
	"github.com/MetalBlockchain/metalgo/utils/logging"
	"github.com/MetalBlockchain/metalgo/utils/units"
	"go.uber.org/zap"
)

const (
	// MaxTxSize is the maximum number of bytes a staged transaction can use
	// to be allowed into the pool.
	MaxTxSize = 256 * units.KiB

	// DefaultMaxSize is the default number of bytes the pool may hold.
	DefaultMaxSize = 16 * units.MiB

	// droppedTxIDsCacheSize is the maximum number of dropped txIDs to cache
	droppedTxIDsCacheSize = 256
)

var (
	ErrTxTooLarge = errors.New("tx too large")
	ErrEvicted    = errors.New("evicted to make room for newer transactions")
)

type Tx interface {
	ID() ids.ID
	Size() int
}

type Metrics interface {
	Update(numTxs, bytesAvailable int)
}

// Mempool holds the transactions that are waiting for another signer, oldest
// first. When full, the oldest transactions are evicted.
type Mempool[T Tx] interface {
	// Put adds [tx], replacing the transaction with the same ID if any.
	Put(tx T) error
	Get(txID ids.ID) (T, bool)
	Remove(txIDs ...ids.ID)

	// Peek returns the oldest tx in the mempool.
	Peek() (tx T, exists bool)

	// Iterate iterates over the txs until f returns false
	Iterate(f func(tx T) bool)

	// MarkDropped records why [txID] left the pool without completing.
	MarkDropped(txID ids.ID, reason error)
	GetDropReason(txID ids.ID) error

	// Len returns the number of txs in the mempool.
	Len() int
}

type mempool[T Tx] struct {
	lock           sync.RWMutex
	pendingTxs     *linked.Hashmap[ids.ID, T]
	maxSize        int
	bytesAvailable int
	droppedTxIDs   *cache.LRU[ids.ID, error] // TxID -> drop reason

	log     logging.Logger
	metrics Metrics
}

func New[T Tx](
	maxSize int,
	log logging.Logger,
	metrics Metrics,
) Mempool[T] {
	m := &mempool[T]{
		pendingTxs:     linked.NewHashmap[ids.ID, T](),
		maxSize:        maxSize,
		bytesAvailable: maxSize,
		droppedTxIDs:   &cache.LRU[ids.ID, error]{Size: droppedTxIDsCacheSize},
		log:            log,
		metrics:        metrics,
	}
	m.updateMetrics()

	return m
}

func (m *mempool[T]) updateMetrics() {
	m.metrics.Update(m.pendingTxs.Len(), m.bytesAvailable)
}

func (m *mempool[T]) Put(tx T) error {
	txID := tx.ID()
	txSize := tx.Size()
	if txSize > MaxTxSize || txSize > m.maxSize {
		return fmt.Errorf("%w: %s size (%d) > max size (%d)",
			ErrTxTooLarge,
			txID,
			txSize,
			min(MaxTxSize, m.maxSize),
		)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if previous, ok := m.pendingTxs.Get(txID); ok {
		m.bytesAvailable += previous.Size()
		m.pendingTxs.Delete(txID)
	}
	for txSize > m.bytesAvailable {
		oldestID, oldest, _ := m.pendingTxs.Oldest()
		m.pendingTxs.Delete(oldestID)
		m.bytesAvailable += oldest.Size()
		m.droppedTxIDs.Put(oldestID, ErrEvicted)
		m.log.Info("evicted staged transaction",
			zap.Stringer("txID", oldestID),
			zap.Int("size", oldest.Size()),
		)
	}

	m.bytesAvailable -= txSize
	m.pendingTxs.Put(txID, tx)
	m.updateMetrics()

	// An added tx must not be marked as dropped.
	m.droppedTxIDs.Evict(txID)
	return nil
}

func (m *mempool[T]) Get(txID ids.ID) (T, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.pendingTxs.Get(txID)
}

func (m *mempool[T]) Remove(txIDs ...ids.ID) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, txID := range txIDs {
		tx, ok := m.pendingTxs.Get(txID)
		if !ok {
			continue
		}
		m.pendingTxs.Delete(txID)
		m.bytesAvailable += tx.Size()
	}
	m.updateMetrics()
}

func (m *mempool[T]) Peek() (T, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	_, tx, exists := m.pendingTxs.Oldest()
	return tx, exists
}

func (m *mempool[T]) Iterate(f func(T) bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	it := m.pendingTxs.NewIterator()
	for it.Next() {
		if !f(it.Value()) {
			return
		}
	}
}

func (m *mempool[_]) MarkDropped(txID ids.ID, reason error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, ok := m.pendingTxs.Get(txID); ok {
		return
	}

	m.droppedTxIDs.Put(txID, reason)
}

func (m *mempool[_]) GetDropReason(txID ids.ID) error {
	m.lock.RLock()
	defer m.lock.RUnlock()

	err, _ := m.droppedTxIDs.Get(txID)
	return err
}

func (m *mempool[_]) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.pendingTxs.Len()
}
