package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MetalBlockchain/accountlib/chain/txs"
)

const txLabel = "tx"

var (
	_ txs.Visitor = (*txMetrics)(nil)

	txLabels = []string{txLabel}
)

type txMetrics struct {
	numTxs *prometheus.CounterVec
}

func newTxMetrics(registerer prometheus.Registerer, name, help string) (*txMetrics, error) {
	m := &txMetrics{
		numTxs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name,
				Help: help,
			},
			txLabels,
		),
	}
	return m, registerer.Register(m.numTxs)
}

func (m *txMetrics) Transfer(*txs.TransferArgs) error {
	m.numTxs.With(prometheus.Labels{
		txLabel: "transfer",
	}).Inc()
	return nil
}

func (m *txMetrics) Batch(a *txs.BatchArgs) error {
	label := "batch"
	if a.All {
		label = "batch_all"
	}
	m.numTxs.With(prometheus.Labels{
		txLabel: label,
	}).Inc()
	return nil
}

func (m *txMetrics) AddressInitialization(a *txs.AddressInitializationArgs) error {
	label := "anonymous_proxy"
	if a.Delegate != "" {
		label = "add_proxy"
	}
	m.numTxs.With(prometheus.Labels{
		txLabel: label,
	}).Inc()
	return nil
}

func (m *txMetrics) Unnominate(*txs.UnnominateArgs) error {
	m.numTxs.With(prometheus.Labels{
		txLabel: "unnominate",
	}).Inc()
	return nil
}
