package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for evaluation runs
type Metrics struct {
	evaluationsTotal    *prometheus.CounterVec
	stageFailuresTotal  *prometheus.CounterVec
	evaluationDuration  prometheus.Histogram
	labeledSamplesTotal prometheus.Counter
	tradesTotal         prometheus.Counter
}

// NewMetrics creates collectors registered on the given registerer. Tests
// pass their own registry so concurrent suites do not collide on the
// default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluations_total",
				Help: "Total number of strategy evaluations",
			},
			[]string{"strategy", "status"},
		),
		stageFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_stage_failures_total",
				Help: "Evaluation failures by pipeline stage",
			},
			[]string{"stage", "code"},
		),
		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "evaluation_duration_seconds",
				Help:    "Wall time of one full evaluation",
				Buckets: prometheus.DefBuckets,
			},
		),
		labeledSamplesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "labeled_samples_total",
				Help: "Labeled samples produced across evaluations",
			},
		),
		tradesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "simulated_trades_total",
				Help: "Simulated trades booked across evaluations",
			},
		),
	}

	reg.MustRegister(
		m.evaluationsTotal,
		m.stageFailuresTotal,
		m.evaluationDuration,
		m.labeledSamplesTotal,
		m.tradesTotal,
	)
	return m
}

// NewDefaultMetrics registers on the global default registry
func NewDefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// RecordSuccess counts one completed evaluation
func (m *Metrics) RecordSuccess(strategy string, duration time.Duration) {
	m.evaluationsTotal.WithLabelValues(strategy, "success").Inc()
	m.evaluationDuration.Observe(duration.Seconds())
}

// RecordFailure counts one failed evaluation with its stage and code
func (m *Metrics) RecordFailure(strategy, stage, code string, duration time.Duration) {
	m.evaluationsTotal.WithLabelValues(strategy, "failed").Inc()
	m.stageFailuresTotal.WithLabelValues(stage, code).Inc()
	m.evaluationDuration.Observe(duration.Seconds())
}

// RecordSamples counts labeled samples produced
func (m *Metrics) RecordSamples(n int) {
	m.labeledSamplesTotal.Add(float64(n))
}

// RecordTrades counts simulated trades booked
func (m *Metrics) RecordTrades(n int) {
	m.tradesTotal.Add(float64(n))
}
