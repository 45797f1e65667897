package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	slotQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mannabook",
			Name:      "slot_queries_total",
			Help:      "Count of availability queries by result.",
		},
		[]string{"result"},
	)

	reconcileOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mannabook",
			Name:      "reconcile_outcomes_total",
			Help:      "Count of reconciliation attempts by terminal state.",
		},
		[]string{"state"},
	)

	calendarErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mannabook",
			Name:      "calendar_errors_total",
			Help:      "Count of calendar-of-record call failures by operation.",
		},
		[]string{"operation"},
	)

	checkoutSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mannabook",
			Name:      "checkout_sessions_total",
			Help:      "Count of Stripe checkout sessions by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(slotQueries, reconcileOutcomes, calendarErrors, checkoutSessions)
	})
}

func IncSlotQuery(result string) {
	slotQueries.WithLabelValues(result).Inc()
}

func IncReconcile(state string) {
	reconcileOutcomes.WithLabelValues(state).Inc()
}

func IncCalendarError(operation string) {
	calendarErrors.WithLabelValues(operation).Inc()
}

func IncCheckout(result string) {
	checkoutSessions.WithLabelValues(result).Inc()
}
