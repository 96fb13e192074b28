package train

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes training progress. A nil Registerer leaves the collectors
// unregistered, which is what tests and library callers usually want.
type Metrics struct {
	Tokens   prometheus.Counter
	Epochs   prometheus.Counter
	Progress prometheus.Gauge
	Alpha    *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "word2vec_tokens_processed_total",
			Help: "corpus tokens read by all training workers",
		}),
		Epochs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "word2vec_worker_epochs_total",
			Help: "epochs completed, summed over workers",
		}),
		Progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "word2vec_progress_ratio",
			Help: "estimated fraction of the planned training done",
		}),
		Alpha: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "word2vec_learning_rate",
			Help: "current learning rate per worker",
		}, []string{"worker"}),
	}
	if reg != nil {
		reg.MustRegister(m.Tokens, m.Epochs, m.Progress, m.Alpha)
	}
	return m
}

func (m *Metrics) observe(worker int, tokens int64, alpha, progress float64) {
	m.Tokens.Add(float64(tokens))
	m.Progress.Set(progress)
	m.Alpha.WithLabelValues(strconv.Itoa(worker)).Set(alpha)
}
