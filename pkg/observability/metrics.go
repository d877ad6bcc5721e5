package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transactions_total",
		Help: "Total number of payment transactions created",
	}, []string{
		"organization_id",
		"payment_method_type",
		"gateway_id",
	})

	attemptOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_attempt_outcomes_total",
		Help: "Total payment attempt outcomes reported back from the gateway",
	}, []string{
		"organization_id",
		"gateway_id",
		"outcome", // success, failure, error
	})

	refundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_refunds_total",
		Help: "Total refund requests by terminal outcome",
	}, []string{
		"organization_id",
		"gateway_id",
		"outcome", // processed, failed
	})

	refundAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_refund_amount_total",
		Help: "Total processed refund amount in currency units",
	}, []string{
		"organization_id",
		"currency",
	})

	outboxPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Total outbox events delivered to the broker",
	}, []string{
		"event_type",
	})

	outboxPendingGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_events_pending",
		Help: "Outbox events observed pending at the last relay cycle",
	})
)

// RecordTransactionCreated increments the created-transactions counter
func RecordTransactionCreated(organizationID, methodType, gatewayID string) {
	transactionsTotal.WithLabelValues(organizationID, methodType, gatewayID).Inc()
}

// RecordAttemptOutcome increments the attempt-outcome counter
func RecordAttemptOutcome(organizationID, gatewayID, outcome string) {
	attemptOutcomesTotal.WithLabelValues(organizationID, gatewayID, outcome).Inc()
}

// RecordRefundOutcome increments the refund-outcome counter
func RecordRefundOutcome(organizationID, gatewayID, outcome string) {
	refundsTotal.WithLabelValues(organizationID, gatewayID, outcome).Inc()
}

// RecordRefundAmount adds a processed refund amount to the revenue counter
func RecordRefundAmount(organizationID, currency string, amount float64) {
	refundAmount.WithLabelValues(organizationID, currency).Add(amount)
}

// RecordOutboxPublished increments the published-events counter
func RecordOutboxPublished(eventType string) {
	outboxPublishedTotal.WithLabelValues(eventType).Inc()
}

// SetOutboxPending records how many events the relay found pending
func SetOutboxPending(n int) {
	outboxPendingGauge.Set(float64(n))
}
