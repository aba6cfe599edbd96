package assistant

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts questions and times the two pipeline stages.
type Metrics struct {
	Questions  prometheus.Counter
	Failures   *prometheus.CounterVec
	Retrieval  prometheus.Histogram
	Generation prometheus.Histogram
	Passages   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Questions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "esgassist",
			Name:      "questions_total",
			Help:      "Questions received.",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "esgassist",
			Name:      "failures_total",
			Help:      "Failed questions by stage.",
		}, []string{"stage"}),
		Retrieval: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "esgassist",
			Name:      "retrieval_seconds",
			Help:      "Time spent expanding and retrieving.",
			Buckets:   prometheus.DefBuckets,
		}),
		Generation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "esgassist",
			Name:      "generation_seconds",
			Help:      "Time spent generating answers.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}),
		Passages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "esgassist",
			Name:      "passages_per_question",
			Help:      "Distinct passages placed in the context.",
			Buckets:   prometheus.LinearBuckets(0, 4, 8),
		}),
	}
	reg.MustRegister(m.Questions, m.Failures, m.Retrieval, m.Generation, m.Passages)
	return m
}
