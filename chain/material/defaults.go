package material

import (
	"github.com/MetalBlockchain/accountlib/chain/coins"
)

// Method names of the calls built by this module.
const (
	TransferKeepAlive = "balances.transferKeepAlive"
	Chill             = "staking.chill"
	Batch             = "utility.batch"
	BatchAll          = "utility.batchAll"
	AddProxy          = "proxy.addProxy"
	Anonymous         = "proxy.anonymous"
)

var (
	WestendCalls = []Call{
		{Pallet: "balances", Name: "transferKeepAlive", Index: CallIndex{4, 3}},
		{Pallet: "staking", Name: "chill", Index: CallIndex{6, 6}},
		{Pallet: "utility", Name: "batch", Index: CallIndex{16, 0}},
		{Pallet: "utility", Name: "batchAll", Index: CallIndex{16, 2}},
		{Pallet: "proxy", Name: "addProxy", Index: CallIndex{30, 1}},
		{Pallet: "proxy", Name: "anonymous", Index: CallIndex{30, 4}},
	}
	PolkadotCalls = []Call{
		{Pallet: "balances", Name: "transferKeepAlive", Index: CallIndex{5, 3}},
		{Pallet: "staking", Name: "chill", Index: CallIndex{7, 6}},
		{Pallet: "utility", Name: "batch", Index: CallIndex{26, 0}},
		{Pallet: "utility", Name: "batchAll", Index: CallIndex{26, 2}},
		{Pallet: "proxy", Name: "addProxy", Index: CallIndex{29, 1}},
		{Pallet: "proxy", Name: "anonymous", Index: CallIndex{29, 4}},
	}

	Westend = Material{
		ChainName:   "Westend",
		SpecName:    "westend",
		SpecVersion: 9150,
		TxVersion:   8,
		GenesisHash: "0xe143f23803ac50e8f6f8e62695d1ce9e4e1d68aa36c1cd2cfd15340213f3423e",
		Metadata:    mustEncodeMetadata(WestendCalls),
	}
	Polkadot = Material{
		ChainName:   "Polkadot",
		SpecName:    "polkadot",
		SpecVersion: 9150,
		TxVersion:   9,
		GenesisHash: "0x91b171bb158e2d3848fa23a9f1c25182fb8e20313b2c1eb49219da7a70ce90c3",
		Metadata:    mustEncodeMetadata(PolkadotCalls),
	}
)

// Defaults returns the built in material of every account coin.
func Defaults() map[string]Material {
	return map[string]Material{
		coins.DOT.Name:  Polkadot,
		coins.TDOT.Name: Westend,
	}
}

func mustEncodeMetadata(calls []Call) string {
	metadata, err := EncodeMetadata(calls)
	if err != nil {
		panic(err)
	}
	return metadata
}
