package metrics

import (
	"github.com/MetalBlockchain/metalgo/utils/metric"
	"github.com/MetalBlockchain/metalgo/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MetalBlockchain/accountlib/chain/txs"
	"github.com/MetalBlockchain/accountlib/status"
)

var _ Metrics = (*metrics)(nil)

type Metrics interface {
	metric.APIInterceptor

	// Mark that the given transaction was built.
	MarkBuilt(tx *txs.Transaction) error
	// Mark that a raw transaction with the given call was decoded.
	MarkDecoded(args txs.CallArgs) error
	// Mark that a multisig signing round ended at the given stage.
	MarkStage(stage status.Status)
}

func New(registerer prometheus.Registerer) (Metrics, error) {
	built, err := newTxMetrics(registerer, "txs_built", "number of transactions built")
	errs := wrappers.Errs{Err: err}
	decoded, err := newTxMetrics(registerer, "txs_decoded", "number of raw transactions decoded")
	errs.Add(err)
	stages, err := newStageMetrics(registerer)
	errs.Add(err)

	m := &metrics{
		built:   built,
		decoded: decoded,
		stages:  stages,
	}
	apiRequestMetrics, err := metric.NewAPIInterceptor(registerer)
	errs.Add(err)
	m.APIInterceptor = apiRequestMetrics

	return m, errs.Err
}

type metrics struct {
	metric.APIInterceptor

	built   *txMetrics
	decoded *txMetrics
	stages  *stageMetrics
}

func (m *metrics) MarkBuilt(tx *txs.Transaction) error {
	return tx.Args().Visit(m.built)
}

func (m *metrics) MarkDecoded(args txs.CallArgs) error {
	return args.Visit(m.decoded)
}

func (m *metrics) MarkStage(stage status.Status) {
	m.stages.mark(stage)
}
