package integration

import (
	"context"
	"flag"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MetalBlockchain/metalgo/database/memdb"
	"github.com/MetalBlockchain/metalgo/ids"
	"github.com/MetalBlockchain/metalgo/utils/logging"
	"github.com/prometheus/client_golang/prometheus"

	ginkgo "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/MetalBlockchain/accountlib/api"
	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/config"
	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/chain/txs"
	"github.com/MetalBlockchain/accountlib/chain/utxo"
	"github.com/MetalBlockchain/accountlib/client"
	"github.com/MetalBlockchain/accountlib/server"
	"github.com/MetalBlockchain/accountlib/status"
	"github.com/MetalBlockchain/accountlib/tests/fixtures"
)

func TestIntegration(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "accountlib integration test suites")
}

var (
	requestTimeout time.Duration

	upstream   *httptest.Server
	downstream *httptest.Server
	cli        client.Client
)

func init() {
	flag.DurationVar(
		&requestTimeout,
		"request-timeout",
		30*time.Second,
		"timeout of a single request",
	)
}

// serve starts a server over [cfg] and returns its test HTTP server.
func serve(cfg config.Config) *httptest.Server {
	s, err := server.New(logging.NoLog{}, memdb.New(), &cfg, prometheus.NewRegistry())
	gomega.Expect(err).Should(gomega.BeNil())
	handlers, err := s.CreateHandlers(context.Background())
	gomega.Expect(err).Should(gomega.BeNil())

	mux := http.NewServeMux()
	for path, handler := range handlers {
		mux.Handle(path, handler)
	}
	ginkgo.DeferCleanup(func() {
		gomega.Expect(s.Shutdown(context.Background())).Should(gomega.Succeed())
	})
	return httptest.NewServer(mux)
}

var _ = ginkgo.BeforeSuite(func() {
	upstream = serve(config.Default)

	// the server under test fetches its material from the upstream one
	cfg := config.Default
	cfg.MaterialURI = upstream.URL
	downstream = serve(cfg)
	cli = client.New(downstream.URL)
})

var _ = ginkgo.AfterSuite(func() {
	downstream.Close()
	upstream.Close()
})

func newContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func i64(v int64) *int64 {
	return &v
}

var _ = ginkgo.Describe("[Ping]", func() {
	ginkgo.It("can ping", func() {
		ctx, cancel := newContext()
		defer cancel()

		ok, err := cli.Ping(ctx)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(ok).Should(gomega.BeTrue())
	})
})

var _ = ginkgo.Describe("[Material]", func() {
	ginkgo.It("serves the upstream material", func() {
		ctx, cancel := newContext()
		defer cancel()

		m, err := cli.GetMaterial(ctx, coins.TDOT.Name)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(*m).Should(gomega.Equal(material.Westend))

		p := client.NewProvider(downstream.URL)
		m, err = p.Get(ctx, coins.DOT)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(*m).Should(gomega.Equal(material.Polkadot))

		_, err = p.Get(ctx, coins.BTC)
		gomega.Expect(err).Should(gomega.MatchError(material.ErrNotAccountChain))
	})
})

var _ = ginkgo.Describe("[Account transactions]", func() {
	ginkgo.It("builds, signs and decodes a transfer", func() {
		ctx, cancel := newContext()
		defer cancel()

		reply, err := cli.BuildTransaction(ctx, &api.BuildTransactionArgs{
			CoinArgs:       api.CoinArgs{Coin: coins.TDOT.Name},
			Variant:        txs.TransferVariant.String(),
			Sender:         fixtures.Sender.Address,
			Nonce:          i64(7),
			Validity:       &txs.ValidityWindow{FirstValid: i64(3933), MaxDuration: i64(64)},
			ReferenceBlock: fixtures.ReferenceBlock,
			Key:            fixtures.Sender.SecretKey,
			To:             fixtures.Receiver.Address,
			Amount:         "90034235235322",
		})
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(reply.TxID).ShouldNot(gomega.Equal(ids.Empty))
		gomega.Expect(reply.Transaction.Status).Should(gomega.Equal(status.FullySigned))

		decoded, err := cli.DecodeTransaction(ctx, coins.TDOT.Name, reply.Tx)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(decoded.Signed).Should(gomega.BeTrue())
		gomega.Expect(decoded.Variant).Should(gomega.Equal(txs.TransferVariant))
		gomega.Expect(decoded.Args).Should(gomega.Equal(&txs.TransferArgs{
			Dest:  fixtures.Receiver.Address,
			Value: "90034235235322",
		}))

		err = cli.ValidateRawTransaction(ctx, coins.TDOT.Name, txs.TransferVariant.String(), reply.Tx)
		gomega.Expect(err).Should(gomega.BeNil())
		err = cli.ValidateRawTransaction(ctx, coins.TDOT.Name, txs.UnnominateVariant.String(), reply.Tx)
		gomega.Expect(err).ShouldNot(gomega.BeNil())
	})

	ginkgo.It("batches an unnominate with a transfer", func() {
		ctx, cancel := newContext()
		defer cancel()

		base := api.BuildTransactionArgs{
			Sender:         fixtures.Sender.Address,
			Nonce:          i64(8),
			Validity:       &txs.ValidityWindow{FirstValid: i64(3933)},
			ReferenceBlock: fixtures.ReferenceBlock,
		}
		chill := base
		chill.Variant = txs.UnnominateVariant.String()
		chillReply, err := cli.BuildTransaction(ctx, &chill)
		gomega.Expect(err).Should(gomega.BeNil())

		batch := base
		batch.Variant = txs.BatchVariant.String()
		batch.Key = fixtures.Sender.SecretKey
		batch.Calls = []txs.BatchCall{
			txs.ObjectCall("0x0606", []byte(`{}`)),
			txs.ObjectCall("0x0403", []byte(`{"dest":"`+fixtures.Receiver.Address+`","value":"12"}`)),
		}
		batchReply, err := cli.BuildTransaction(ctx, &batch)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(batchReply.Transaction.Calls).Should(gomega.HaveLen(2))
		gomega.Expect(batchReply.Transaction.Method).Should(gomega.Equal(material.Batch))
		gomega.Expect(chillReply.Transaction.Method).Should(gomega.Equal(material.Chill))
	})
})

var _ = ginkgo.Describe("[Multisig]", func() {
	ginkgo.It("stages a spend through both signing rounds", func() {
		ctx, cancel := newContext()
		defer cancel()

		w, err := fixtures.NewWallet(9)
		gomega.Expect(err).Should(gomega.BeNil())
		unspents := fixtures.Unspents(utxo.P2shP2wsh, utxo.P2sh, utxo.P2shP2pk)
		outputs, err := w.ChangeOutput(unspents, 5_000)
		gomega.Expect(err).Should(gomega.BeNil())

		prebuild, err := cli.PrebuildMultisig(ctx, &api.PrebuildMultisigArgs{
			CoinArgs:   api.CoinArgs{Coin: coins.TBTC.Name},
			Unspents:   unspents,
			Outputs:    outputs,
			WalletPubs: w.Pubs,
		})
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(prebuild.Status).Should(gomega.Equal(status.Unsigned))

		half, err := cli.SignMultisig(ctx, coins.TBTC.Name, w.SignParams(prebuild.TxHex, unspents, utxo.UserKey, utxo.BackupKey))
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(half.Status).Should(gomega.Equal(status.PartiallySigned))
		gomega.Expect(half.Pending).Should(gomega.BeTrue())

		staged, err := cli.GetStagedTx(ctx, half.TxID)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(staged.TxHex).Should(gomega.Equal(half.TxHex))

		full, err := cli.SignMultisig(ctx, coins.TBTC.Name, w.SignParams(staged.TxHex, unspents, utxo.BackupKey, utxo.UserKey))
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(full.Status).Should(gomega.Equal(status.FullySigned))
		gomega.Expect(full.Pending).Should(gomega.BeFalse())

		args := &api.MultisigArgs{
			CoinArgs:   api.CoinArgs{Coin: coins.TBTC.Name},
			TxHex:      full.TxHex,
			Unspents:   unspents,
			WalletPubs: w.Pubs,
		}
		verified, err := cli.VerifyMultisig(ctx, args)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(verified.Status).Should(gomega.Equal(status.FullySigned))

		explained, err := cli.ExplainMultisig(ctx, args)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(explained.Fee).Should(gomega.Equal(uint64(5_000)))
		gomega.Expect(explained.Outputs).Should(gomega.HaveLen(1))
	})
})
