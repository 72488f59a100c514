package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MetalBlockchain/accountlib/status"
)

const stageLabel = "stage"

var stageLabels = []string{stageLabel}

type stageMetrics struct {
	numRounds *prometheus.CounterVec
}

func newStageMetrics(registerer prometheus.Registerer) (*stageMetrics, error) {
	m := &stageMetrics{
		numRounds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "multisig_rounds",
				Help: "number of multisig signing rounds by resulting stage",
			},
			stageLabels,
		),
	}
	return m, registerer.Register(m.numRounds)
}

func (m *stageMetrics) mark(stage status.Status) {
	m.numRounds.With(prometheus.Labels{
		stageLabel: stage.String(),
	}).Inc()
}
