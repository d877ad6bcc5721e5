package domain

import (
	"time"

	"github.com/kevin07696/transaction-service/pkg/timeutil"
)

// Refund is one request to return some or all of a transaction's amount. It is
// owned exclusively by a PaymentTransaction.
// Lifecycle: requested -> {processed | failed}, terminal once reached.
type Refund struct {
	id              string
	amount          Money
	status          RefundStatus
	reason          string
	description     *string
	gatewayRefundID *string
	failureReason   *string
	createdAt       time.Time
	updatedAt       time.Time
}

func newRefund(id string, amount Money, reason string, description *string) *Refund {
	now := timeutil.Now()
	return &Refund{
		id:          id,
		amount:      amount,
		status:      RefundStatusRequested,
		reason:      reason,
		description: description,
		createdAt:   now,
		updatedAt:   now,
	}
}

// ID returns the refund identifier
func (r *Refund) ID() string {
	return r.id
}

// Amount returns the requested refund amount
func (r *Refund) Amount() Money {
	return r.amount
}

// Status returns the current refund status
func (r *Refund) Status() RefundStatus {
	return r.status
}

// Reason returns the reason the refund was requested
func (r *Refund) Reason() string {
	return r.reason
}

// Description returns the optional free-form description
func (r *Refund) Description() *string {
	return r.description
}

// GatewayRefundID returns the gateway's refund reference once processed
func (r *Refund) GatewayRefundID() *string {
	return r.gatewayRefundID
}

// FailureReason returns why the refund failed, if it did
func (r *Refund) FailureReason() *string {
	return r.failureReason
}

// CreatedAt returns when the refund was requested
func (r *Refund) CreatedAt() time.Time {
	return r.createdAt
}

// UpdatedAt returns when the refund last changed
func (r *Refund) UpdatedAt() time.Time {
	return r.updatedAt
}

// IsProcessed returns true once the gateway has confirmed the refund. Only
// processed refunds count toward the refunded total.
func (r *Refund) IsProcessed() bool {
	return r.status == RefundStatusProcessed
}

func (r *Refund) markAsProcessed(gatewayRefundID string) error {
	if err := r.assertNotTerminal(); err != nil {
		return err
	}
	r.status = RefundStatusProcessed
	r.gatewayRefundID = &gatewayRefundID
	r.updatedAt = timeutil.Now()
	return nil
}

func (r *Refund) markAsFailed(reason string) error {
	if err := r.assertNotTerminal(); err != nil {
		return err
	}
	r.status = RefundStatusFailed
	r.failureReason = &reason
	r.updatedAt = timeutil.Now()
	return nil
}

func (r *Refund) assertNotTerminal() error {
	if r.status.IsTerminal() {
		return NewDomainError(ErrorCodeTxnInvalidState, "refund already has a terminal outcome").
			WithDetail("refund_id", r.id).
			WithDetail("status", string(r.status))
	}
	return nil
}

// RefundState is the persistence snapshot of a Refund
type RefundState struct {
	ID              string
	Amount          Money
	Status          RefundStatus
	Reason          string
	Description     *string
	GatewayRefundID *string
	FailureReason   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Snapshot exports the refund for persistence
func (r *Refund) Snapshot() RefundState {
	return RefundState{
		ID:              r.id,
		Amount:          r.amount,
		Status:          r.status,
		Reason:          r.reason,
		Description:     r.description,
		GatewayRefundID: r.gatewayRefundID,
		FailureReason:   r.failureReason,
		CreatedAt:       r.createdAt,
		UpdatedAt:       r.updatedAt,
	}
}

func refundFromState(s RefundState) *Refund {
	return &Refund{
		id:              s.ID,
		amount:          s.Amount,
		status:          s.Status,
		reason:          s.Reason,
		description:     s.Description,
		gatewayRefundID: s.GatewayRefundID,
		failureReason:   s.FailureReason,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
	}
}
