package api

import (
	"time"

	"github.com/MetalBlockchain/metalgo/ids"

	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/chain/txs"
	"github.com/MetalBlockchain/accountlib/chain/utxo"
	"github.com/MetalBlockchain/accountlib/status"
)

type EmptyReply struct{}

type PingReply struct {
	Success bool   `json:"success"`
	Version string `json:"version"`
}

type GetMaterialReply struct {
	Material material.Material `json:"material"`
}

type BuildTransactionReply struct {
	TxID ids.ID `json:"txID"`
	// Tx is the 0x prefixed broadcast format.
	Tx          string    `json:"tx"`
	Transaction *txs.JSON `json:"transaction"`
}

type DecodeTransactionReply struct {
	Transaction *txs.Decoded `json:"transaction"`
}

type ValidReply struct {
	Valid bool `json:"valid"`
}

type StagedTxReply struct {
	TxID    ids.ID        `json:"txID"`
	Coin    string        `json:"coin"`
	TxHex   string        `json:"txHex"`
	Status  status.Status `json:"status"`
	Updated time.Time     `json:"updated"`
	// Pending is true while the transaction waits for a signer.
	Pending    bool   `json:"pending"`
	DropReason string `json:"dropReason,omitempty"`
}

type VerifyMultisigReply struct {
	Inputs []utxo.InputSignatures `json:"inputs"`
	Status status.Status          `json:"status"`
}

type ExplainMultisigReply struct {
	Explanation *utxo.Explanation `json:"explanation"`
}
