// Package services defines the business logic of the bot. This file holds
// the Prometheus collectors for the conversation domain.
//
// Labels are kept low-cardinality: outcomes and action names only, never
// user identifiers.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// eventsTotal counts classified inbound events by action.
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_events_total",
			Help: "Total inbound events by classified action.",
		},
		[]string{"action"},
	)

	// generationsTotal counts generation attempts by outcome
	// (image, text, input_unavailable, failed, hosting_failed).
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_generations_total",
			Help: "Total generation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// quotaDenialsTotal counts attempts denied by the daily free quota.
	quotaDenialsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_quota_denials_total",
			Help: "Total generation attempts denied by the daily free quota.",
		},
	)

	// paymentReservationsTotal counts reservations by result
	// (reserved, confirmed, consumed, failed).
	paymentReservationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_payment_reservations_total",
			Help: "Total payment reservation transitions by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(eventsTotal, generationsTotal, quotaDenialsTotal, paymentReservationsTotal)
}
