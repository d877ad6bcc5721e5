package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/transaction-service/pkg/timeutil"
)

// PaymentTransaction is the aggregate root for a single payment or refund
// transaction. It owns its attempts and refunds, enforces the monetary and
// status invariants across them, and queues domain events for the outbox.
//
// The aggregate is a plain in-memory state holder: it never calls the gateway
// itself. Callers register an attempt or refund, perform the gateway call, and
// report the outcome back. All methods are synchronous; per-aggregate mutual
// exclusion is the owning repository's responsibility.
type PaymentTransaction struct {
	id                 string
	organizationID     string
	transactionType    TransactionType
	status             TransactionStatus
	amount             Money
	paymentMethodType  PaymentMethodType
	paymentMethod      PaymentMethodDetails
	description        *string
	metadata           map[string]string
	externalOrderID    *string
	externalCustomerID *string
	gatewayID          string
	createdAt          time.Time
	updatedAt          time.Time
	attempts           []*PaymentAttempt
	refunds            []*Refund

	// version is the optimistic concurrency token. Zero means never
	// persisted; the repository advances it on every successful write.
	version int64

	pendingEvents []Event
}

// CreatePaymentParams carries the inputs for the CreatePayment factory
type CreatePaymentParams struct {
	OrganizationID     string
	Amount             Money
	PaymentMethodType  PaymentMethodType
	PaymentMethod      PaymentMethodDetails
	GatewayID          string
	Description        *string
	Metadata           map[string]string
	ExternalOrderID    *string
	ExternalCustomerID *string
}

// CreatePayment creates a new payment transaction in pending state and queues
// a PaymentTransactionCreatedEvent.
func CreatePayment(params CreatePaymentParams) (*PaymentTransaction, error) {
	if params.OrganizationID == "" {
		return nil, NewDomainError(ErrorCodeValidationFailed, "organization_id is required")
	}
	if params.GatewayID == "" {
		return nil, NewDomainError(ErrorCodeValidationFailed, "gateway_id is required")
	}
	if params.Amount.Currency() == "" {
		return nil, NewDomainError(ErrorCodeValidationFailed, "amount is required")
	}
	if params.Amount.IsNegative() {
		return nil, NewDomainError(ErrorCodeValidationAmountInvalid, "amount must not be negative")
	}
	if _, err := ParsePaymentMethodType(string(params.PaymentMethodType)); err != nil {
		return nil, err
	}

	now := timeutil.Now()
	txn := &PaymentTransaction{
		id:                 uuid.New().String(),
		organizationID:     params.OrganizationID,
		transactionType:    TransactionTypePayment,
		status:             TransactionStatusPending,
		amount:             params.Amount,
		paymentMethodType:  params.PaymentMethodType,
		paymentMethod:      params.PaymentMethod,
		description:        params.Description,
		metadata:           params.Metadata,
		externalOrderID:    params.ExternalOrderID,
		externalCustomerID: params.ExternalCustomerID,
		gatewayID:          params.GatewayID,
		createdAt:          now,
		updatedAt:          now,
	}

	txn.appendEvent(PaymentTransactionCreatedEvent{
		TransactionID:      txn.id,
		OrganizationID:     txn.organizationID,
		Amount:             txn.amount,
		TransactionType:    txn.transactionType,
		PaymentMethodType:  txn.paymentMethodType,
		GatewayID:          txn.gatewayID,
		ExternalOrderID:    txn.externalOrderID,
		ExternalCustomerID: txn.externalCustomerID,
		Timestamp:          now,
	})

	return txn, nil
}

// ID returns the transaction identifier
func (t *PaymentTransaction) ID() string { return t.id }

// OrganizationID returns the owning organization's identifier
func (t *PaymentTransaction) OrganizationID() string { return t.organizationID }

// TransactionType returns the type fixed at creation
func (t *PaymentTransaction) TransactionType() TransactionType { return t.transactionType }

// Status returns the current derived lifecycle status
func (t *PaymentTransaction) Status() TransactionStatus { return t.status }

// Amount returns the transaction amount
func (t *PaymentTransaction) Amount() Money { return t.amount }

// PaymentMethodType returns the method type used for the transaction
func (t *PaymentTransaction) PaymentMethodType() PaymentMethodType { return t.paymentMethodType }

// PaymentMethod returns the display-safe payment method details
func (t *PaymentTransaction) PaymentMethod() PaymentMethodDetails { return t.paymentMethod }

// Description returns the optional description
func (t *PaymentTransaction) Description() *string { return t.description }

// Metadata returns the caller-supplied metadata
func (t *PaymentTransaction) Metadata() map[string]string { return t.metadata }

// ExternalOrderID returns the caller's order reference
func (t *PaymentTransaction) ExternalOrderID() *string { return t.externalOrderID }

// ExternalCustomerID returns the caller's customer reference
func (t *PaymentTransaction) ExternalCustomerID() *string { return t.externalCustomerID }

// GatewayID returns the payment gateway this transaction is routed to
func (t *PaymentTransaction) GatewayID() string { return t.gatewayID }

// CreatedAt returns when the transaction was created
func (t *PaymentTransaction) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns when the transaction last changed
func (t *PaymentTransaction) UpdatedAt() time.Time { return t.updatedAt }

// Version returns the optimistic concurrency token, zero if never persisted
func (t *PaymentTransaction) Version() int64 { return t.version }

// MarkPersisted advances the version after a successful conditional write.
// Repositories call this once per committed save; nothing else should.
func (t *PaymentTransaction) MarkPersisted() { t.version++ }

// Attempts returns the attempts in creation order
func (t *PaymentTransaction) Attempts() []*PaymentAttempt {
	out := make([]*PaymentAttempt, len(t.attempts))
	copy(out, t.attempts)
	return out
}

// Refunds returns the refunds in creation order
func (t *PaymentTransaction) Refunds() []*Refund {
	out := make([]*Refund, len(t.refunds))
	copy(out, t.refunds)
	return out
}

// AddNewAttempt registers a new payment attempt in initiated state and returns
// its id. Attempts may only be added to a payment transaction that is not yet
// in a final state; whether and when to retry is the caller's decision.
func (t *PaymentTransaction) AddNewAttempt() (string, error) {
	if t.transactionType != TransactionTypePayment {
		return "", NewDomainError(ErrorCodeTxnInvalidState, "attempts are only valid on payment transactions").
			WithDetail("transaction_id", t.id).
			WithDetail("transaction_type", string(t.transactionType))
	}
	if t.status.IsFinalState() {
		return "", NewDomainError(ErrorCodeTxnInvalidState, "transaction no longer accepts attempts").
			WithDetail("transaction_id", t.id).
			WithDetail("status", string(t.status))
	}

	attempt := newPaymentAttempt(uuid.New().String(), timeutil.Now())
	t.attempts = append(t.attempts, attempt)
	t.touch()
	return attempt.ID(), nil
}

// MarkAttemptAsSuccess records a successful gateway outcome for the attempt,
// transitions the transaction to successful and queues a PaymentSuccessfulEvent.
func (t *PaymentTransaction) MarkAttemptAsSuccess(attemptID string, gatewayResponse map[string]interface{}) error {
	attempt, err := t.findAttempt(attemptID)
	if err != nil {
		return err
	}
	if err := attempt.markAsSuccess(gatewayResponse); err != nil {
		return err
	}

	t.status = TransactionStatusSuccessful
	t.touch()

	t.appendEvent(PaymentSuccessfulEvent{
		TransactionID:      t.id,
		OrganizationID:     t.organizationID,
		Amount:             t.amount,
		PaymentMethodType:  t.paymentMethodType,
		GatewayID:          t.gatewayID,
		AttemptID:          attempt.ID(),
		ExternalOrderID:    t.externalOrderID,
		ExternalCustomerID: t.externalCustomerID,
		Timestamp:          timeutil.Now(),
	})
	return nil
}

// MarkAttemptAsFailure records a declined gateway outcome. With finalAttempt
// the transaction is marked failed and a PaymentFailedEvent is queued;
// otherwise the transaction stays pending so the caller may try again.
func (t *PaymentTransaction) MarkAttemptAsFailure(attemptID, reason string, gatewayResponse map[string]interface{}, finalAttempt bool) error {
	attempt, err := t.findAttempt(attemptID)
	if err != nil {
		return err
	}
	if err := attempt.markAsFailure(reason, gatewayResponse); err != nil {
		return err
	}
	t.recordAttemptFailure(attempt, reason, finalAttempt)
	return nil
}

// MarkAttemptAsError records a gateway-level error (timeout, connectivity) for
// the attempt. The finalAttempt flag behaves exactly as for MarkAttemptAsFailure.
func (t *PaymentTransaction) MarkAttemptAsError(attemptID, reason string, gatewayResponse map[string]interface{}, finalAttempt bool) error {
	attempt, err := t.findAttempt(attemptID)
	if err != nil {
		return err
	}
	if err := attempt.markAsError(reason, gatewayResponse); err != nil {
		return err
	}
	t.recordAttemptFailure(attempt, reason, finalAttempt)
	return nil
}

func (t *PaymentTransaction) recordAttemptFailure(attempt *PaymentAttempt, reason string, finalAttempt bool) {
	t.touch()
	if !finalAttempt {
		return
	}

	t.status = TransactionStatusFailed
	t.appendEvent(PaymentFailedEvent{
		TransactionID:      t.id,
		OrganizationID:     t.organizationID,
		Amount:             t.amount,
		PaymentMethodType:  t.paymentMethodType,
		GatewayID:          t.gatewayID,
		AttemptID:          attempt.ID(),
		Reason:             reason,
		ExternalOrderID:    t.externalOrderID,
		ExternalCustomerID: t.externalCustomerID,
		Timestamp:          timeutil.Now(),
	})
}

// CreateRefund registers a refund request and returns its id. The transaction
// status is flipped optimistically: refunded when the request covers the whole
// remaining amount, partially refunded otherwise. If the gateway later rejects
// the refund, MarkRefundAsFailed recalculates the status from scratch.
func (t *PaymentTransaction) CreateRefund(amount Money, reason string, description *string) (string, error) {
	if !t.status.CanBeRefunded() {
		return "", NewDomainError(ErrorCodeValidationFailed, "transaction cannot be refunded in its current state").
			WithDetail("transaction_id", t.id).
			WithDetail("status", string(t.status))
	}
	if amount.Currency() != t.amount.Currency() {
		return "", NewDomainError(ErrorCodeCurrencyMismatch, "refund currency must match transaction currency").
			WithDetail("transaction_currency", t.amount.Currency()).
			WithDetail("refund_currency", amount.Currency())
	}
	if amount.IsNegative() || amount.IsZero() {
		return "", NewDomainError(ErrorCodeValidationAmountInvalid, "refund amount must be positive")
	}

	remaining := t.RemainingRefundable()
	tooLarge, err := amount.GreaterThan(remaining)
	if err != nil {
		return "", err
	}
	if tooLarge {
		return "", NewDomainError(ErrorCodeOverRefund, "refund exceeds remaining refundable amount").
			WithDetail("requested", amount.String()).
			WithDetail("remaining", remaining.String())
	}

	refund := newRefund(uuid.New().String(), amount, reason, description)
	t.refunds = append(t.refunds, refund)

	if amount.Equals(remaining) {
		t.status = TransactionStatusRefunded
	} else {
		t.status = TransactionStatusPartiallyRefunded
	}
	t.touch()
	return refund.ID(), nil
}

// MarkRefundAsProcessed records gateway confirmation for the refund and queues
// a RefundProcessedEvent.
func (t *PaymentTransaction) MarkRefundAsProcessed(refundID, gatewayRefundID string) error {
	refund, err := t.findRefund(refundID)
	if err != nil {
		return err
	}
	if err := refund.markAsProcessed(gatewayRefundID); err != nil {
		return err
	}
	t.touch()

	t.appendEvent(RefundProcessedEvent{
		TransactionID:  t.id,
		OrganizationID: t.organizationID,
		Amount:         refund.Amount(),
		GatewayID:      t.gatewayID,
		RefundID:       refund.ID(),
		Timestamp:      timeutil.Now(),
	})
	return nil
}

// MarkRefundAsFailed records gateway rejection for the refund, recalculates
// the transaction status from the remaining processed refunds and queues a
// RefundFailedEvent. A refund that never confirmed must not lock up capacity.
func (t *PaymentTransaction) MarkRefundAsFailed(refundID, reason string) error {
	refund, err := t.findRefund(refundID)
	if err != nil {
		return err
	}
	if err := refund.markAsFailed(reason); err != nil {
		return err
	}

	t.recalculateStatus()
	t.touch()

	t.appendEvent(RefundFailedEvent{
		TransactionID:  t.id,
		OrganizationID: t.organizationID,
		Amount:         refund.Amount(),
		GatewayID:      t.gatewayID,
		RefundID:       refund.ID(),
		Reason:         reason,
		Timestamp:      timeutil.Now(),
	})
	return nil
}

// ProcessedRefundTotal sums the amounts of processed refunds
func (t *PaymentTransaction) ProcessedRefundTotal() Money {
	total := ZeroMoney(t.amount.Currency())
	for _, refund := range t.refunds {
		if !refund.IsProcessed() {
			continue
		}
		// Same currency is guaranteed by the CreateRefund guard.
		total, _ = total.Add(refund.Amount())
	}
	return total
}

// RemainingRefundable returns the transaction amount minus all processed
// refunds. Requested and failed refunds deliberately do not count.
func (t *PaymentTransaction) RemainingRefundable() Money {
	remaining, _ := t.amount.Subtract(t.ProcessedRefundTotal())
	return remaining
}

// recalculateStatus re-derives the transaction status from the sum of
// processed refunds. Used after a refund failure to unwind the optimistic flip
// done by CreateRefund. Requested refunds do not count here, so a failed
// refund also cancels the optimistic effect of any still-outstanding request.
func (t *PaymentTransaction) recalculateStatus() {
	processed := t.ProcessedRefundTotal()

	switch {
	case processed.IsZero():
		t.status = TransactionStatusSuccessful
	case processed.Equals(t.amount):
		t.status = TransactionStatusRefunded
	default:
		t.status = TransactionStatusPartiallyRefunded
	}
}

// PullEvents drains and returns the pending event queue. Events must be
// persisted atomically with the aggregate state they describe.
func (t *PaymentTransaction) PullEvents() []Event {
	events := t.pendingEvents
	t.pendingEvents = nil
	return events
}

// HasPendingEvents reports whether undrained events remain on the aggregate
func (t *PaymentTransaction) HasPendingEvents() bool {
	return len(t.pendingEvents) > 0
}

func (t *PaymentTransaction) appendEvent(event Event) {
	t.pendingEvents = append(t.pendingEvents, event)
}

func (t *PaymentTransaction) touch() {
	t.updatedAt = timeutil.Now()
}

func (t *PaymentTransaction) findAttempt(attemptID string) (*PaymentAttempt, error) {
	for _, attempt := range t.attempts {
		if attempt.ID() == attemptID {
			return attempt, nil
		}
	}
	return nil, NewDomainError(ErrorCodeAttemptNotFound, "payment attempt not found").
		WithDetail("transaction_id", t.id).
		WithDetail("attempt_id", attemptID)
}

func (t *PaymentTransaction) findRefund(refundID string) (*Refund, error) {
	for _, refund := range t.refunds {
		if refund.ID() == refundID {
			return refund, nil
		}
	}
	return nil, NewDomainError(ErrorCodeRefundNotFound, "refund not found").
		WithDetail("transaction_id", t.id).
		WithDetail("refund_id", refundID)
}

// TransactionState is the persistence snapshot of a PaymentTransaction,
// including its child entities. It carries no pending events: rehydration is
// side-effect-free and historical events are never re-emitted.
type TransactionState struct {
	ID                 string
	OrganizationID     string
	TransactionType    TransactionType
	Status             TransactionStatus
	Amount             Money
	PaymentMethodType  PaymentMethodType
	PaymentMethod      PaymentMethodDetails
	Description        *string
	Metadata           map[string]string
	ExternalOrderID    *string
	ExternalCustomerID *string
	GatewayID          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64
	Attempts           []AttemptState
	Refunds            []RefundState
}

// Snapshot exports the aggregate for persistence. Pending events are not part
// of the snapshot; the repository drains them separately via PullEvents.
func (t *PaymentTransaction) Snapshot() TransactionState {
	attempts := make([]AttemptState, len(t.attempts))
	for i, attempt := range t.attempts {
		attempts[i] = attempt.Snapshot()
	}
	refunds := make([]RefundState, len(t.refunds))
	for i, refund := range t.refunds {
		refunds[i] = refund.Snapshot()
	}

	return TransactionState{
		ID:                 t.id,
		OrganizationID:     t.organizationID,
		TransactionType:    t.transactionType,
		Status:             t.status,
		Amount:             t.amount,
		PaymentMethodType:  t.paymentMethodType,
		PaymentMethod:      t.paymentMethod,
		Description:        t.description,
		Metadata:           t.metadata,
		ExternalOrderID:    t.externalOrderID,
		ExternalCustomerID: t.externalCustomerID,
		GatewayID:          t.gatewayID,
		CreatedAt:          t.createdAt,
		UpdatedAt:          t.updatedAt,
		Version:            t.version,
		Attempts:           attempts,
		Refunds:            refunds,
	}
}

// RehydrateTransaction reconstructs an aggregate verbatim from storage. It
// bypasses all event-emitting business methods and emits nothing itself.
func RehydrateTransaction(state TransactionState) *PaymentTransaction {
	attempts := make([]*PaymentAttempt, len(state.Attempts))
	for i, s := range state.Attempts {
		attempts[i] = attemptFromState(s)
	}
	refunds := make([]*Refund, len(state.Refunds))
	for i, s := range state.Refunds {
		refunds[i] = refundFromState(s)
	}

	return &PaymentTransaction{
		id:                 state.ID,
		organizationID:     state.OrganizationID,
		transactionType:    state.TransactionType,
		status:             state.Status,
		amount:             state.Amount,
		paymentMethodType:  state.PaymentMethodType,
		paymentMethod:      state.PaymentMethod,
		description:        state.Description,
		metadata:           state.Metadata,
		externalOrderID:    state.ExternalOrderID,
		externalCustomerID: state.ExternalCustomerID,
		gatewayID:          state.GatewayID,
		createdAt:          state.CreatedAt,
		updatedAt:          state.UpdatedAt,
		version:            state.Version,
		attempts:           attempts,
		refunds:            refunds,
	}
}
