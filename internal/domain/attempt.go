package domain

import (
	"time"

	"github.com/kevin07696/transaction-service/pkg/timeutil"
)

// PaymentAttempt is one try to execute a payment against the gateway. It is
// owned exclusively by a PaymentTransaction and is never referenced outside it.
// Lifecycle: initiated -> {success | failure | error}, terminal once reached.
type PaymentAttempt struct {
	id              string
	attemptDate     time.Time
	status          AttemptStatus
	gatewayResponse map[string]interface{}
	failureReason   *string
	createdAt       time.Time
}

func newPaymentAttempt(id string, attemptDate time.Time) *PaymentAttempt {
	now := timeutil.Now()
	return &PaymentAttempt{
		id:          id,
		attemptDate: attemptDate,
		status:      AttemptStatusInitiated,
		createdAt:   now,
	}
}

// ID returns the attempt identifier
func (a *PaymentAttempt) ID() string {
	return a.id
}

// AttemptDate returns when the attempt was made against the gateway
func (a *PaymentAttempt) AttemptDate() time.Time {
	return a.attemptDate
}

// Status returns the current attempt status
func (a *PaymentAttempt) Status() AttemptStatus {
	return a.status
}

// GatewayResponse returns the raw gateway response recorded for the attempt
func (a *PaymentAttempt) GatewayResponse() map[string]interface{} {
	return a.gatewayResponse
}

// FailureReason returns the failure reason, or nil for a successful attempt
func (a *PaymentAttempt) FailureReason() *string {
	return a.failureReason
}

// CreatedAt returns when the attempt record was created
func (a *PaymentAttempt) CreatedAt() time.Time {
	return a.createdAt
}

func (a *PaymentAttempt) markAsSuccess(gatewayResponse map[string]interface{}) error {
	if err := a.assertNotTerminal(); err != nil {
		return err
	}
	a.status = AttemptStatusSuccess
	a.gatewayResponse = gatewayResponse
	return nil
}

func (a *PaymentAttempt) markAsFailure(reason string, gatewayResponse map[string]interface{}) error {
	if err := a.assertNotTerminal(); err != nil {
		return err
	}
	a.status = AttemptStatusFailure
	a.failureReason = &reason
	a.gatewayResponse = gatewayResponse
	return nil
}

func (a *PaymentAttempt) markAsError(reason string, gatewayResponse map[string]interface{}) error {
	if err := a.assertNotTerminal(); err != nil {
		return err
	}
	a.status = AttemptStatusError
	a.failureReason = &reason
	a.gatewayResponse = gatewayResponse
	return nil
}

func (a *PaymentAttempt) assertNotTerminal() error {
	if a.status.IsTerminal() {
		return NewDomainError(ErrorCodeTxnInvalidState, "attempt already has a terminal outcome").
			WithDetail("attempt_id", a.id).
			WithDetail("status", string(a.status))
	}
	return nil
}

// AttemptState is the persistence snapshot of a PaymentAttempt
type AttemptState struct {
	ID              string
	AttemptDate     time.Time
	Status          AttemptStatus
	GatewayResponse map[string]interface{}
	FailureReason   *string
	CreatedAt       time.Time
}

// Snapshot exports the attempt for persistence
func (a *PaymentAttempt) Snapshot() AttemptState {
	return AttemptState{
		ID:              a.id,
		AttemptDate:     a.attemptDate,
		Status:          a.status,
		GatewayResponse: a.gatewayResponse,
		FailureReason:   a.failureReason,
		CreatedAt:       a.createdAt,
	}
}

func attemptFromState(s AttemptState) *PaymentAttempt {
	return &PaymentAttempt{
		id:              s.ID,
		attemptDate:     s.AttemptDate,
		status:          s.Status,
		gatewayResponse: s.GatewayResponse,
		failureReason:   s.FailureReason,
		createdAt:       s.CreatedAt,
	}
}
