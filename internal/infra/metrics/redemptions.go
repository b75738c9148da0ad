package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		codesIssuedTotal,
		redemptionsTotal,
		validationsTotal,
	)
}

var (
	codesIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_codes_issued_total",
			Help: "Codes minted, labeled by originating path (payment/admin).",
		},
		[]string{"origin"},
	)

	// result: ok | not_found | inactive | expired | exhausted | malformed
	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_redemptions_total",
			Help: "Credit consume attempts by result.",
		},
		[]string{"result"},
	)

	validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_validations_total",
			Help: "Read-only code validations by result.",
		},
		[]string{"result"},
	)
)

func IncCodeIssued(origin string) {
	codesIssuedTotal.WithLabelValues(norm(origin)).Inc()
}

func IncRedemption(result string) {
	redemptionsTotal.WithLabelValues(norm(result)).Inc()
}

func IncValidation(result string) {
	validationsTotal.WithLabelValues(norm(result)).Inc()
}
