package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		emailsTotal,
		outboxPending,
	)
}

var (
	emailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "code_emails_total",
			Help: "Code delivery email attempts by status (sent/failed).",
		},
		[]string{"status"},
	)

	outboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "email_outbox_pending",
			Help: "Undelivered messages currently parked in the email outbox.",
		},
	)
)

func IncEmail(status string) {
	emailsTotal.WithLabelValues(norm(status)).Inc()
}

func SetOutboxPending(n int) {
	outboxPending.Set(float64(n))
}
