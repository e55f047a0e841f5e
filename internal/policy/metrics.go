package policy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	riskDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shepherd_risk_decisions_total",
			Help: "Total number of risk policy decisions",
		},
		[]string{"decision", "autonomy"},
	)

	riskScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shepherd_risk_score",
			Help:    "Distribution of evaluated risk scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)

func recordDecision(decision, autonomy string, score float64) {
	riskDecisions.WithLabelValues(decision, autonomy).Inc()
	riskScores.Observe(score)
}
