package coins

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// Model is the transaction model a coin follows.
type Model uint8

const (
	// Account chains carry a sender, a nonce and a mortality window.
	Account Model = iota
	// UTXO chains spend scripted prior outputs.
	UTXO
)

const FeeKindTip = "tip"

var (
	ErrUnknownCoin = errors.New("unknown coin")

	DOT = Coin{
		Name:       "dot",
		FullName:   "Polkadot",
		Model:      Account,
		Mainnet:    true,
		SS58Prefix: 0,
		FeeKind:    FeeKindTip,
		Decimals:   10,
	}
	TDOT = Coin{
		Name:       "tdot",
		FullName:   "Westend",
		Model:      Account,
		SS58Prefix: 42,
		FeeKind:    FeeKindTip,
		Decimals:   12,
	}
	BTC = Coin{
		Name:     "btc",
		FullName: "Bitcoin",
		Model:    UTXO,
		Mainnet:  true,
		Decimals: 8,
		Params:   &chaincfg.MainNetParams,
	}
	TBTC = Coin{
		Name:     "tbtc",
		FullName: "Testnet Bitcoin",
		Model:    UTXO,
		Decimals: 8,
		Params:   &chaincfg.TestNet3Params,
	}

	all = map[string]Coin{
		DOT.Name:  DOT,
		TDOT.Name: TDOT,
		BTC.Name:  BTC,
		TBTC.Name: TBTC,
	}
)

// Coin is the static configuration of one supported network.
type Coin struct {
	Name     string
	FullName string
	Model    Model
	Mainnet  bool
	Decimals uint32

	// Account chains
	SS58Prefix uint16
	FeeKind    string

	// UTXO chains
	Params *chaincfg.Params
}

func (c Coin) String() string {
	return c.Name
}

// Family returns the coin name without the testnet prefix.
func (c Coin) Family() string {
	if !c.Mainnet && len(c.Name) > 1 && c.Name[0] == 't' {
		return c.Name[1:]
	}
	return c.Name
}

func Get(name string) (Coin, error) {
	coin, ok := all[name]
	if !ok {
		return Coin{}, fmt.Errorf("%w: %q", ErrUnknownCoin, name)
	}
	return coin, nil
}
