package mempool

import (
	"github.com/MetalBlockchain/metalgo/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

var _ Metrics = (*metrics)(nil)

type metrics struct {
	numTxs         prometheus.Gauge
	bytesAvailable prometheus.Gauge
}

func NewMetrics(namespace string, registerer prometheus.Registerer) (Metrics, error) {
	m := &metrics{
		numTxs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "txs",
			Help:      "Number of staged transactions waiting for a signer",
		}),
		bytesAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bytes_available",
			Help:      "Number of bytes of space still available in the pool",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.numTxs),
		registerer.Register(m.bytesAvailable),
	)
	return m, errs.Err
}

func (m *metrics) Update(numTxs, bytesAvailable int) {
	m.numTxs.Set(float64(numTxs))
	m.bytesAvailable.Set(float64(bytesAvailable))
}
