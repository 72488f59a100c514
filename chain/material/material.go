// Package material holds the per-chain data needed to encode account-chain
// transactions: chain identity, runtime versions and the call table.
package material

import (
	"context"
	"errors"

	"github.com/MetalBlockchain/accountlib/chain/coins"
)

var ErrMissingMaterial = errors.New("chain material missing")

// Material identifies a chain runtime. Values are copied into builders and
// snapshots and are never mutated afterwards.
type Material struct {
	ChainName   string `json:"chainName"`
	SpecName    string `json:"specName"`
	SpecVersion uint32 `json:"specVersion"`
	TxVersion   uint32 `json:"txVersion"`
	GenesisHash string `json:"genesisHash"`
	// Metadata is the 0x prefixed hex encoding of the call table.
	Metadata string `json:"metadata"`
}

// Provider supplies the material of a coin. Implementations may block on I/O.
type Provider interface {
	Get(ctx context.Context, coin coins.Coin) (*Material, error)
}

// Copy returns a detached copy of [m].
func (m *Material) Copy() *Material {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// Registry derives the encoding context of this material.
func (m *Material) Registry() (*Registry, error) {
	if m == nil {
		return nil, ErrMissingMaterial
	}
	return ParseMetadata(m.Metadata)
}
