package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookEventsTotal,
		creditsGrantedTotal,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook events by type and outcome (processed/ignored/duplicate/failed).",
		},
		[]string{"type", "outcome"},
	)

	creditsGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_granted_total",
			Help: "Credits granted by purchase kind (one_time/subscription).",
		},
		[]string{"kind"},
	)
)

func IncWebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(outcome)).Inc()
}

func AddCreditsGranted(kind string, credits int64) {
	creditsGrantedTotal.WithLabelValues(norm(kind)).Add(float64(credits))
}
