package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringPtr(s string) *string {
	return &s
}

func newTestPayment(t *testing.T, amount string) *PaymentTransaction {
	t.Helper()
	txn, err := CreatePayment(CreatePaymentParams{
		OrganizationID:    "org_123",
		Amount:            mustMoney(t, amount, "USD"),
		PaymentMethodType: PaymentMethodTypeCreditCard,
		PaymentMethod: PaymentMethodDetails{
			CardBrand: "visa",
			LastFour:  "4242",
		},
		GatewayID:          "gw_stripe",
		Description:        stringPtr("order checkout"),
		ExternalOrderID:    stringPtr("order_789"),
		ExternalCustomerID: stringPtr("cust_456"),
	})
	require.NoError(t, err)
	return txn
}

// newSuccessfulPayment creates a payment and drives it to successful,
// discarding the events produced along the way.
func newSuccessfulPayment(t *testing.T, amount string) *PaymentTransaction {
	t.Helper()
	txn := newTestPayment(t, amount)
	attemptID, err := txn.AddNewAttempt()
	require.NoError(t, err)
	require.NoError(t, txn.MarkAttemptAsSuccess(attemptID, map[string]interface{}{"code": "00"}))
	txn.PullEvents()
	return txn
}

func TestCreatePayment(t *testing.T) {
	t.Run("starts_pending_with_created_event", func(t *testing.T) {
		txn := newTestPayment(t, "100")

		assert.Equal(t, TransactionStatusPending, txn.Status())
		assert.Equal(t, TransactionTypePayment, txn.TransactionType())
		assert.Empty(t, txn.Attempts())
		assert.Empty(t, txn.Refunds())
		assert.Zero(t, txn.Version(), "a new aggregate has never been persisted")
		_, err := uuid.Parse(txn.ID())
		assert.NoError(t, err, "transaction id must be a UUID")

		events := txn.PullEvents()
		require.Len(t, events, 1)
		created, ok := events[0].(PaymentTransactionCreatedEvent)
		require.True(t, ok, "expected PaymentTransactionCreatedEvent, got %T", events[0])
		assert.Equal(t, txn.ID(), created.AggregateID())
		assert.Equal(t, EventTypeTransactionCreated, created.EventType())
		assert.Equal(t, "org_123", created.OrganizationID)
		assert.True(t, created.Amount.Equals(mustMoney(t, "100", "USD")))
		assert.Equal(t, "order_789", *created.ExternalOrderID)
	})

	t.Run("missing_organization_rejected", func(t *testing.T) {
		_, err := CreatePayment(CreatePaymentParams{
			Amount:            mustMoney(t, "10", "USD"),
			PaymentMethodType: PaymentMethodTypeCreditCard,
			GatewayID:         "gw",
		})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("missing_gateway_rejected", func(t *testing.T) {
		_, err := CreatePayment(CreatePaymentParams{
			OrganizationID:    "org",
			Amount:            mustMoney(t, "10", "USD"),
			PaymentMethodType: PaymentMethodTypeCreditCard,
		})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("unknown_payment_method_rejected", func(t *testing.T) {
		_, err := CreatePayment(CreatePaymentParams{
			OrganizationID:    "org",
			Amount:            mustMoney(t, "10", "USD"),
			PaymentMethodType: PaymentMethodType("barter"),
			GatewayID:         "gw",
		})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}

// Scenario A: create 100 USD -> pending; attempt succeeds -> successful with
// exactly one PaymentSuccessfulEvent drained.
func TestPaymentTransaction_SuccessfulAttempt(t *testing.T) {
	txn := newTestPayment(t, "100")
	assert.Equal(t, TransactionStatusPending, txn.Status())
	txn.PullEvents()

	attemptID, err := txn.AddNewAttempt()
	require.NoError(t, err)
	require.Len(t, txn.Attempts(), 1)
	assert.Equal(t, AttemptStatusInitiated, txn.Attempts()[0].Status())

	response := map[string]interface{}{"auth_code": "A1B2C3"}
	require.NoError(t, txn.MarkAttemptAsSuccess(attemptID, response))

	assert.Equal(t, TransactionStatusSuccessful, txn.Status())
	assert.Equal(t, AttemptStatusSuccess, txn.Attempts()[0].Status())
	assert.Equal(t, response, txn.Attempts()[0].GatewayResponse())

	events := txn.PullEvents()
	require.Len(t, events, 1)
	successful, ok := events[0].(PaymentSuccessfulEvent)
	require.True(t, ok, "expected PaymentSuccessfulEvent, got %T", events[0])
	assert.Equal(t, txn.ID(), successful.TransactionID)
	assert.Equal(t, attemptID, successful.AttemptID)
	assert.Equal(t, "gw_stripe", successful.GatewayID)
	assert.Equal(t, "cust_456", *successful.ExternalCustomerID)

	assert.Empty(t, txn.PullEvents(), "queue must be drained after PullEvents")
}

func TestPaymentTransaction_FailedAttempts(t *testing.T) {
	t.Run("non_final_failure_keeps_transaction_pending", func(t *testing.T) {
		txn := newTestPayment(t, "50")
		txn.PullEvents()

		attemptID, err := txn.AddNewAttempt()
		require.NoError(t, err)
		require.NoError(t, txn.MarkAttemptAsFailure(attemptID, "card declined", nil, false))

		assert.Equal(t, TransactionStatusPending, txn.Status(),
			"a non-final failure must leave the transaction open for retries")
		assert.Equal(t, AttemptStatusFailure, txn.Attempts()[0].Status())
		assert.Equal(t, "card declined", *txn.Attempts()[0].FailureReason())
		assert.Empty(t, txn.PullEvents(), "non-final failure must not emit events")

		// Retry is allowed and can still succeed.
		retryID, err := txn.AddNewAttempt()
		require.NoError(t, err)
		require.NoError(t, txn.MarkAttemptAsSuccess(retryID, nil))
		assert.Equal(t, TransactionStatusSuccessful, txn.Status())
	})

	// Scenario E: final failure -> failed; refund then rejected.
	t.Run("final_failure_fails_transaction", func(t *testing.T) {
		txn := newTestPayment(t, "50")
		txn.PullEvents()

		attemptID, err := txn.AddNewAttempt()
		require.NoError(t, err)
		require.NoError(t, txn.MarkAttemptAsFailure(attemptID, "card declined", nil, true))

		assert.Equal(t, TransactionStatusFailed, txn.Status())

		events := txn.PullEvents()
		require.Len(t, events, 1)
		failed, ok := events[0].(PaymentFailedEvent)
		require.True(t, ok, "expected PaymentFailedEvent, got %T", events[0])
		assert.Equal(t, "card declined", failed.Reason)
		assert.Equal(t, attemptID, failed.AttemptID)

		_, err = txn.CreateRefund(mustMoney(t, "10", "USD"), "too late", nil)
		require.Error(t, err)
		assert.True(t, IsValidationError(err), "refund on a failed transaction is a validation error")
	})

	t.Run("error_outcome_behaves_like_failure", func(t *testing.T) {
		txn := newTestPayment(t, "50")
		txn.PullEvents()

		attemptID, err := txn.AddNewAttempt()
		require.NoError(t, err)
		require.NoError(t, txn.MarkAttemptAsError(attemptID, "gateway timeout", nil, true))

		assert.Equal(t, AttemptStatusError, txn.Attempts()[0].Status())
		assert.Equal(t, TransactionStatusFailed, txn.Status())
		events := txn.PullEvents()
		require.Len(t, events, 1)
		assert.IsType(t, PaymentFailedEvent{}, events[0])
	})

	t.Run("unknown_attempt_id", func(t *testing.T) {
		txn := newTestPayment(t, "50")
		err := txn.MarkAttemptAsSuccess(uuid.New().String(), nil)
		require.Error(t, err)
		assert.True(t, IsNotFoundError(err))
	})

	t.Run("terminal_attempt_cannot_be_re_marked", func(t *testing.T) {
		txn := newTestPayment(t, "50")
		attemptID, err := txn.AddNewAttempt()
		require.NoError(t, err)
		require.NoError(t, txn.MarkAttemptAsSuccess(attemptID, nil))

		err = txn.MarkAttemptAsFailure(attemptID, "late decline", nil, true)
		require.Error(t, err)
		assert.True(t, IsInvalidStateError(err))
		assert.Equal(t, TransactionStatusSuccessful, txn.Status(),
			"a rejected re-mark must not change transaction status")
	})
}

func TestPaymentTransaction_AddNewAttempt_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) *PaymentTransaction
	}{
		{
			name: "successful_transaction_rejects_attempts",
			setup: func(t *testing.T) *PaymentTransaction {
				return newSuccessfulPayment(t, "100")
			},
		},
		{
			name: "failed_transaction_rejects_attempts",
			setup: func(t *testing.T) *PaymentTransaction {
				txn := newTestPayment(t, "100")
				attemptID, err := txn.AddNewAttempt()
				require.NoError(t, err)
				require.NoError(t, txn.MarkAttemptAsFailure(attemptID, "declined", nil, true))
				return txn
			},
		},
		{
			name: "refunded_transaction_rejects_attempts",
			setup: func(t *testing.T) *PaymentTransaction {
				txn := newSuccessfulPayment(t, "100")
				_, err := txn.CreateRefund(mustMoney(t, "100", "USD"), "full refund", nil)
				require.NoError(t, err)
				return txn
			},
		},
		{
			name: "refund_type_transaction_rejects_attempts",
			setup: func(t *testing.T) *PaymentTransaction {
				state := newTestPayment(t, "100").Snapshot()
				state.TransactionType = TransactionTypeRefund
				return RehydrateTransaction(state)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := tt.setup(t)
			_, err := txn.AddNewAttempt()
			require.Error(t, err)
			assert.True(t, IsInvalidStateError(err))
		})
	}
}

// Scenarios B, C, D: partial refund, exact remaining refund, over-refund.
func TestPaymentTransaction_RefundLifecycle(t *testing.T) {
	txn := newSuccessfulPayment(t, "100")

	// Scenario B: 40 of 100 -> partially refunded, 60 remaining.
	refundB, err := txn.CreateRefund(mustMoney(t, "40", "USD"), "customer request", nil)
	require.NoError(t, err)
	assert.Equal(t, TransactionStatusPartiallyRefunded, txn.Status())
	require.NoError(t, txn.MarkRefundAsProcessed(refundB, "gw_ref_1"))
	assert.True(t, txn.RemainingRefundable().Equals(mustMoney(t, "60", "USD")))

	events := txn.PullEvents()
	require.Len(t, events, 1)
	processed, ok := events[0].(RefundProcessedEvent)
	require.True(t, ok, "expected RefundProcessedEvent, got %T", events[0])
	assert.Equal(t, refundB, processed.RefundID)
	assert.True(t, processed.Amount.Equals(mustMoney(t, "40", "USD")))

	// Scenario C: the exact remainder -> refunded.
	refundC, err := txn.CreateRefund(mustMoney(t, "60", "USD"), "final", stringPtr("remainder"))
	require.NoError(t, err)
	assert.Equal(t, TransactionStatusRefunded, txn.Status())
	require.NoError(t, txn.MarkRefundAsProcessed(refundC, "gw_ref_2"))
	assert.True(t, txn.RemainingRefundable().IsZero())
	assert.True(t, txn.ProcessedRefundTotal().Equals(mustMoney(t, "100", "USD")))

	// Scenario D: nothing left to refund.
	_, err = txn.CreateRefund(mustMoney(t, "1", "USD"), "excess", nil)
	require.Error(t, err)
	assert.True(t, IsOverRefundError(err), "zero remaining rejects any positive refund")
}

func TestPaymentTransaction_CreateRefund_Guards(t *testing.T) {
	t.Run("pending_transaction_cannot_be_refunded", func(t *testing.T) {
		txn := newTestPayment(t, "100")
		_, err := txn.CreateRefund(mustMoney(t, "10", "USD"), "early", nil)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("currency_mismatch", func(t *testing.T) {
		txn := newSuccessfulPayment(t, "100")
		_, err := txn.CreateRefund(mustMoney(t, "10", "EUR"), "wrong currency", nil)
		require.Error(t, err)
		assert.True(t, IsCurrencyMismatchError(err))
	})

	t.Run("zero_amount_rejected", func(t *testing.T) {
		txn := newSuccessfulPayment(t, "100")
		_, err := txn.CreateRefund(mustMoney(t, "0", "USD"), "nothing", nil)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("over_refund_rejected", func(t *testing.T) {
		txn := newSuccessfulPayment(t, "100")
		_, err := txn.CreateRefund(mustMoney(t, "100.01", "USD"), "too much", nil)
		require.Error(t, err)
		assert.True(t, IsOverRefundError(err))
	})

	t.Run("over_refund_counts_only_processed_refunds", func(t *testing.T) {
		txn := newSuccessfulPayment(t, "100")

		refundID, err := txn.CreateRefund(mustMoney(t, "70", "USD"), "first", nil)
		require.NoError(t, err)
		require.NoError(t, txn.MarkRefundAsProcessed(refundID, "gw_ref"))

		// 70 processed of 100; 40 exceeds the 30 remaining.
		_, err = txn.CreateRefund(mustMoney(t, "40", "USD"), "second", nil)
		require.Error(t, err)
		assert.True(t, IsOverRefundError(err))

		// 30 fits exactly.
		_, err = txn.CreateRefund(mustMoney(t, "30", "USD"), "second", nil)
		require.NoError(t, err)
		assert.Equal(t, TransactionStatusRefunded, txn.Status())
	})

	t.Run("unknown_refund_id", func(t *testing.T) {
		txn := newSuccessfulPayment(t, "100")
		err := txn.MarkRefundAsProcessed(uuid.New().String(), "gw_ref")
		require.Error(t, err)
		assert.True(t, IsNotFoundError(err))
	})
}

// The optimistic flip: a requested refund changes externally visible status
// before the gateway confirms it.
func TestPaymentTransaction_OptimisticRefundStatus(t *testing.T) {
	txn := newSuccessfulPayment(t, "100")

	refundID, err := txn.CreateRefund(mustMoney(t, "100", "USD"), "full", nil)
	require.NoError(t, err)

	// Discrepancy window: status already refunded while the refund is still
	// only requested, and the requested amount does not reduce the
	// refundable remainder yet.
	assert.Equal(t, TransactionStatusRefunded, txn.Status())
	assert.Equal(t, RefundStatusRequested, txn.Refunds()[0].Status())
	assert.False(t, txn.Refunds()[0].IsProcessed())
	assert.True(t, txn.RemainingRefundable().Equals(mustMoney(t, "100", "USD")),
		"requested refunds must not count toward the processed total")

	require.NoError(t, txn.MarkRefundAsProcessed(refundID, "gw_ref"))
	assert.True(t, txn.RemainingRefundable().IsZero())
}

// Scenario F: a failed refund unwinds the optimistic status flip.
func TestPaymentTransaction_MarkRefundAsFailed_Recalculates(t *testing.T) {
	t.Run("back_to_successful_when_nothing_processed", func(t *testing.T) {
		txn := newSuccessfulPayment(t, "100")

		refundID, err := txn.CreateRefund(mustMoney(t, "100", "USD"), "full", nil)
		require.NoError(t, err)
		assert.Equal(t, TransactionStatusRefunded, txn.Status())

		require.NoError(t, txn.MarkRefundAsFailed(refundID, "gateway rejected"))
		assert.Equal(t, TransactionStatusSuccessful, txn.Status())
		assert.True(t, txn.RemainingRefundable().Equals(mustMoney(t, "100", "USD")),
			"failed refund must not lock up refund capacity")

		events := txn.PullEvents()
		require.Len(t, events, 1)
		failed, ok := events[0].(RefundFailedEvent)
		require.True(t, ok, "expected RefundFailedEvent, got %T", events[0])
		assert.Equal(t, refundID, failed.RefundID)
		assert.Equal(t, "gateway rejected", failed.Reason)
	})

	t.Run("back_to_partially_refunded_when_some_processed", func(t *testing.T) {
		txn := newSuccessfulPayment(t, "100")

		first, err := txn.CreateRefund(mustMoney(t, "40", "USD"), "first", nil)
		require.NoError(t, err)
		require.NoError(t, txn.MarkRefundAsProcessed(first, "gw_1"))

		second, err := txn.CreateRefund(mustMoney(t, "60", "USD"), "second", nil)
		require.NoError(t, err)
		assert.Equal(t, TransactionStatusRefunded, txn.Status())

		require.NoError(t, txn.MarkRefundAsFailed(second, "insufficient gateway balance"))
		assert.Equal(t, TransactionStatusPartiallyRefunded, txn.Status())
		assert.True(t, txn.RemainingRefundable().Equals(mustMoney(t, "60", "USD")))
	})

	t.Run("terminal_refund_cannot_be_re_marked", func(t *testing.T) {
		txn := newSuccessfulPayment(t, "100")
		refundID, err := txn.CreateRefund(mustMoney(t, "40", "USD"), "first", nil)
		require.NoError(t, err)
		require.NoError(t, txn.MarkRefundAsProcessed(refundID, "gw_1"))

		err = txn.MarkRefundAsFailed(refundID, "late rejection")
		require.Error(t, err)
		assert.True(t, IsInvalidStateError(err))
	})
}

// Invariant: sum of processed refunds never exceeds the transaction amount,
// checked across an adversarial sequence of refund operations.
func TestPaymentTransaction_ProcessedRefundInvariant(t *testing.T) {
	txn := newSuccessfulPayment(t, "100")

	assertInvariant := func() {
		over, err := txn.ProcessedRefundTotal().GreaterThan(txn.Amount())
		require.NoError(t, err)
		assert.False(t, over, "processed refunds exceeded transaction amount")
	}

	first, err := txn.CreateRefund(mustMoney(t, "60", "USD"), "r1", nil)
	require.NoError(t, err)
	assertInvariant()
	require.NoError(t, txn.MarkRefundAsProcessed(first, "g1"))
	assertInvariant()

	second, err := txn.CreateRefund(mustMoney(t, "40", "USD"), "r2", nil)
	require.NoError(t, err)
	require.NoError(t, txn.MarkRefundAsFailed(second, "rejected"))
	assertInvariant()

	third, err := txn.CreateRefund(mustMoney(t, "40", "USD"), "r3", nil)
	require.NoError(t, err)
	require.NoError(t, txn.MarkRefundAsProcessed(third, "g3"))
	assertInvariant()

	assert.Equal(t, TransactionStatusRefunded, txn.Status())
	_, err = txn.CreateRefund(mustMoney(t, "0.01", "USD"), "r4", nil)
	require.Error(t, err)
}

// Law: rehydrating a snapshot yields identical observable state and an empty
// pending-event queue.
func TestPaymentTransaction_SnapshotRoundTrip(t *testing.T) {
	txn := newTestPayment(t, "100")
	attemptID, err := txn.AddNewAttempt()
	require.NoError(t, err)
	require.NoError(t, txn.MarkAttemptAsSuccess(attemptID, map[string]interface{}{"code": "00"}))
	refundID, err := txn.CreateRefund(mustMoney(t, "25", "USD"), "partial", stringPtr("goodwill"))
	require.NoError(t, err)
	require.NoError(t, txn.MarkRefundAsProcessed(refundID, "gw_ref"))
	txn.MarkPersisted()

	rehydrated := RehydrateTransaction(txn.Snapshot())

	assert.Equal(t, txn.ID(), rehydrated.ID())
	assert.Equal(t, txn.OrganizationID(), rehydrated.OrganizationID())
	assert.Equal(t, txn.TransactionType(), rehydrated.TransactionType())
	assert.Equal(t, txn.Status(), rehydrated.Status())
	assert.True(t, txn.Amount().Equals(rehydrated.Amount()))
	assert.Equal(t, txn.PaymentMethodType(), rehydrated.PaymentMethodType())
	assert.Equal(t, txn.PaymentMethod(), rehydrated.PaymentMethod())
	assert.Equal(t, txn.Description(), rehydrated.Description())
	assert.Equal(t, txn.ExternalOrderID(), rehydrated.ExternalOrderID())
	assert.Equal(t, txn.ExternalCustomerID(), rehydrated.ExternalCustomerID())
	assert.Equal(t, txn.GatewayID(), rehydrated.GatewayID())
	assert.Equal(t, txn.CreatedAt(), rehydrated.CreatedAt())
	assert.Equal(t, txn.UpdatedAt(), rehydrated.UpdatedAt())
	assert.Equal(t, txn.Version(), rehydrated.Version())

	require.Len(t, rehydrated.Attempts(), 1)
	assert.Equal(t, txn.Attempts()[0].Snapshot(), rehydrated.Attempts()[0].Snapshot())
	require.Len(t, rehydrated.Refunds(), 1)
	assert.Equal(t, txn.Refunds()[0].Snapshot(), rehydrated.Refunds()[0].Snapshot())

	assert.False(t, rehydrated.HasPendingEvents(), "rehydration must never re-emit events")
	assert.Empty(t, rehydrated.PullEvents())

	// The rehydrated aggregate keeps working: the remaining 75 is refundable.
	assert.True(t, rehydrated.RemainingRefundable().Equals(mustMoney(t, "75", "USD")))
	_, err = rehydrated.CreateRefund(mustMoney(t, "75", "USD"), "rest", nil)
	require.NoError(t, err)
	assert.Equal(t, TransactionStatusRefunded, rehydrated.Status())
}

func TestPaymentTransaction_EventOrdering(t *testing.T) {
	txn := newTestPayment(t, "100")
	attemptID, err := txn.AddNewAttempt()
	require.NoError(t, err)
	require.NoError(t, txn.MarkAttemptAsSuccess(attemptID, nil))
	refundID, err := txn.CreateRefund(mustMoney(t, "100", "USD"), "full", nil)
	require.NoError(t, err)
	require.NoError(t, txn.MarkRefundAsProcessed(refundID, "gw_ref"))

	events := txn.PullEvents()
	require.Len(t, events, 3)
	assert.Equal(t, EventTypeTransactionCreated, events[0].EventType())
	assert.Equal(t, EventTypePaymentSuccessful, events[1].EventType())
	assert.Equal(t, EventTypeRefundProcessed, events[2].EventType())
	for _, event := range events {
		assert.Equal(t, txn.ID(), event.AggregateID())
	}
}
