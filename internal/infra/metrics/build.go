package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(buildInfo, rateLimitTriggeredTotal)
}

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "A constant metric with labels for version and commit hash.",
		},
		[]string{"version", "commit"},
	)

	rateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_triggered_total",
			Help: "Total number of times clients have been rate-limited.",
		},
	)
)

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}

func IncRateLimitTriggered() {
	rateLimitTriggeredTotal.Inc()
}
