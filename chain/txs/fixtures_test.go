package txs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/material"
)

type account struct {
	secretKey string
	publicKey string
	address   string
}

var (
	sender = account{
		secretKey: "874578010603af8e93b44bfc1d13b32830d0dbca6c89f28ccdc662afd3cdc824",
		publicKey: "61b18c6dc02ddcabdeac56cb4f21a971cc41cc97640f6f85b073480008c53a0d",
		address:   "5EGoFA95omzemRssELLDjVenNZ68aXyUeqtKQScXSEBvVJkr",
	}
	receiver = account{
		secretKey: "ff2f0c73e7e8a34ba80401efa06f16cbb3406ca1f04b4fc618bc937643eef498",
		publicKey: "d472bd6e0f1f92297631938e30edb682208c2cd2698d80cf678c53a69979eb9f",
		address:   "5GsG6P9EqkbmTrM1GE5bcQx9nsSq74KueiLa1kNZiwagFxW4",
	}

	referenceBlock = "0x149799bc9602cb5cf201f3425fb8d253b2d4e61fc119dcab3249f307f594754d"
	otherBlock     = "0xef5a7eb51dc6e777de2b0232119c90c5782bb8b4704888244276b94ea659f60b"
)

func i64(v int64) *int64 {
	return &v
}

// configure sets the fields every account-chain transaction needs.
func configure(t *testing.T, b TransactionBuilder) {
	require := require.New(t)
	require.NoError(b.Sender(sender.address))
	require.NoError(b.Validity(ValidityWindow{FirstValid: i64(3933), MaxDuration: i64(64)}))
	b.ReferenceBlock(referenceBlock)
	require.NoError(b.SequenceID(200))
	require.NoError(b.Fee(FeeOptions{Type: "tip", Amount: "0"}))
}

func requireBaseJSON(t *testing.T, j *JSON) {
	require := require.New(t)
	require.Equal(sender.address, j.Sender)
	require.Equal(uint64(3933), j.BlockNumber)
	require.Equal(referenceBlock, j.ReferenceBlock)
	require.Equal(material.Westend.GenesisHash, j.GenesisHash)
	require.Equal(material.Westend.SpecVersion, j.SpecVersion)
	require.Equal(material.Westend.TxVersion, j.TransactionVersion)
	require.Equal(material.Westend.ChainName, j.ChainName)
	require.Equal(uint64(200), j.Nonce)
	require.Equal(uint64(0), j.Tip)
	require.Equal(uint64(64), j.EraPeriod)
}

// buildRaw builds and returns the broadcast form of a configured builder.
func buildRaw(t *testing.T, b TransactionBuilder) string {
	tx, err := b.Build(testContext(t))
	require.NoError(t, err)
	raw, err := tx.ToBroadcastFormat()
	require.NoError(t, err)
	return raw
}

func westendFactory(t *testing.T) *Factory {
	f, err := NewFactory(coins.TDOT, material.NewStaticProvider(material.Defaults()))
	require.NoError(t, err)
	return f
}

func testContext(*testing.T) context.Context {
	return context.Background()
}
