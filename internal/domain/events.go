package domain

import "time"

// Event is an immutable fact about a state change of a payment transaction,
// queued on the aggregate for later asynchronous delivery (outbox pattern).
type Event interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// Event type names as delivered to downstream consumers
const (
	EventTypeTransactionCreated = "payment_transaction.created"
	EventTypePaymentSuccessful  = "payment_transaction.successful"
	EventTypePaymentFailed      = "payment_transaction.failed"
	EventTypeRefundProcessed    = "payment_transaction.refund_processed"
	EventTypeRefundFailed       = "payment_transaction.refund_failed"
)

// PaymentTransactionCreatedEvent is emitted when a payment transaction is created
type PaymentTransactionCreatedEvent struct {
	TransactionID      string            `json:"id"`
	OrganizationID     string            `json:"organization_id"`
	Amount             Money             `json:"amount"`
	TransactionType    TransactionType   `json:"transaction_type"`
	PaymentMethodType  PaymentMethodType `json:"payment_method_type"`
	GatewayID          string            `json:"gateway_id"`
	ExternalOrderID    *string           `json:"external_order_id,omitempty"`
	ExternalCustomerID *string           `json:"external_customer_id,omitempty"`
	Timestamp          time.Time         `json:"timestamp"`
}

func (e PaymentTransactionCreatedEvent) EventType() string     { return EventTypeTransactionCreated }
func (e PaymentTransactionCreatedEvent) AggregateID() string   { return e.TransactionID }
func (e PaymentTransactionCreatedEvent) OccurredAt() time.Time { return e.Timestamp }

// PaymentSuccessfulEvent is emitted when an attempt succeeds and the
// transaction becomes successful
type PaymentSuccessfulEvent struct {
	TransactionID      string            `json:"id"`
	OrganizationID     string            `json:"organization_id"`
	Amount             Money             `json:"amount"`
	PaymentMethodType  PaymentMethodType `json:"payment_method_type"`
	GatewayID          string            `json:"gateway_id"`
	AttemptID          string            `json:"attempt_id"`
	ExternalOrderID    *string           `json:"external_order_id,omitempty"`
	ExternalCustomerID *string           `json:"external_customer_id,omitempty"`
	Timestamp          time.Time         `json:"timestamp"`
}

func (e PaymentSuccessfulEvent) EventType() string     { return EventTypePaymentSuccessful }
func (e PaymentSuccessfulEvent) AggregateID() string   { return e.TransactionID }
func (e PaymentSuccessfulEvent) OccurredAt() time.Time { return e.Timestamp }

// PaymentFailedEvent is emitted when the final attempt fails and the
// transaction is marked failed
type PaymentFailedEvent struct {
	TransactionID      string            `json:"id"`
	OrganizationID     string            `json:"organization_id"`
	Amount             Money             `json:"amount"`
	PaymentMethodType  PaymentMethodType `json:"payment_method_type"`
	GatewayID          string            `json:"gateway_id"`
	AttemptID          string            `json:"attempt_id"`
	Reason             string            `json:"reason"`
	ExternalOrderID    *string           `json:"external_order_id,omitempty"`
	ExternalCustomerID *string           `json:"external_customer_id,omitempty"`
	Timestamp          time.Time         `json:"timestamp"`
}

func (e PaymentFailedEvent) EventType() string     { return EventTypePaymentFailed }
func (e PaymentFailedEvent) AggregateID() string   { return e.TransactionID }
func (e PaymentFailedEvent) OccurredAt() time.Time { return e.Timestamp }

// RefundProcessedEvent is emitted when the gateway confirms a refund
type RefundProcessedEvent struct {
	TransactionID  string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Amount         Money     `json:"amount"`
	GatewayID      string    `json:"gateway_id"`
	RefundID       string    `json:"refund_id"`
	Timestamp      time.Time `json:"timestamp"`
}

func (e RefundProcessedEvent) EventType() string     { return EventTypeRefundProcessed }
func (e RefundProcessedEvent) AggregateID() string   { return e.TransactionID }
func (e RefundProcessedEvent) OccurredAt() time.Time { return e.Timestamp }

// RefundFailedEvent is emitted when the gateway rejects a refund
type RefundFailedEvent struct {
	TransactionID  string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Amount         Money     `json:"amount"`
	GatewayID      string    `json:"gateway_id"`
	RefundID       string    `json:"refund_id"`
	Reason         string    `json:"reason"`
	Timestamp      time.Time `json:"timestamp"`
}

func (e RefundFailedEvent) EventType() string     { return EventTypeRefundFailed }
func (e RefundFailedEvent) AggregateID() string   { return e.TransactionID }
func (e RefundFailedEvent) OccurredAt() time.Time { return e.Timestamp }
