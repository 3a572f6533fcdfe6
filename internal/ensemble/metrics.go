package ensemble

import "github.com/prometheus/client_golang/prometheus"

var (
	modelLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratemybeard",
			Subsystem: "ensemble",
			Name:      "model_loads_total",
			Help:      "Total successful model loads",
		},
		[]string{"model"},
	)

	abstentionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratemybeard",
			Subsystem: "ensemble",
			Name:      "abstentions_total",
			Help:      "Per-model prediction failures tolerated by fusion",
		},
		[]string{"model", "reason"},
	)

	fusionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratemybeard",
			Subsystem: "ensemble",
			Name:      "fusions_total",
			Help:      "Predict calls by fusion outcome (full, degraded, failed)",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(modelLoadsTotal, abstentionsTotal, fusionsTotal)
}
