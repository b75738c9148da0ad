package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		restorationsTotal,
		restorationLatency,
	)
}

var (
	restorationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restorations_total",
			Help: "Restoration backend calls by provider and outcome.",
		},
		[]string{"provider", "status"}, // status: 'ok', 'failed'
	)

	restorationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restoration_duration_seconds",
			Help:    "Restoration backend call duration in seconds.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		},
		[]string{"provider"},
	)
)

func IncRestoration(provider, status string) {
	restorationsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func ObserveRestorationDuration(provider string, seconds float64) {
	restorationLatency.WithLabelValues(norm(provider)).Observe(seconds)
}
