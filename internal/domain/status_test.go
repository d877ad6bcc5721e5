package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionStatus_IsFinalState(t *testing.T) {
	tests := []struct {
		status   TransactionStatus
		expected bool
	}{
		{TransactionStatusPending, false},
		{TransactionStatusSuccessful, true},
		{TransactionStatusFailed, true},
		{TransactionStatusRefunded, true},
		{TransactionStatusPartiallyRefunded, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsFinalState(),
				"IsFinalState() for %s", tt.status)
		})
	}
}

func TestTransactionStatus_CanBeRefunded(t *testing.T) {
	tests := []struct {
		status   TransactionStatus
		expected bool
	}{
		{TransactionStatusPending, false},
		{TransactionStatusSuccessful, true},
		{TransactionStatusFailed, false},
		{TransactionStatusRefunded, true},
		{TransactionStatusPartiallyRefunded, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.CanBeRefunded(),
				"CanBeRefunded() for %s", tt.status)
		})
	}
}

func TestAttemptStatus_IsTerminal(t *testing.T) {
	assert.False(t, AttemptStatusInitiated.IsTerminal())
	assert.True(t, AttemptStatusSuccess.IsTerminal())
	assert.True(t, AttemptStatusFailure.IsTerminal())
	assert.True(t, AttemptStatusError.IsTerminal())
}

func TestRefundStatus_IsTerminal(t *testing.T) {
	assert.False(t, RefundStatusRequested.IsTerminal())
	assert.True(t, RefundStatusProcessed.IsTerminal())
	assert.True(t, RefundStatusFailed.IsTerminal())
}

func TestParseTransactionStatus(t *testing.T) {
	t.Run("all_known_values", func(t *testing.T) {
		for _, s := range []string{"pending", "successful", "failed", "refunded", "partially_refunded"} {
			parsed, err := ParseTransactionStatus(s)
			require.NoError(t, err)
			assert.Equal(t, s, string(parsed))
		}
	})

	t.Run("unknown_value_rejected", func(t *testing.T) {
		_, err := ParseTransactionStatus("cancelled")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}

func TestParseTransactionType(t *testing.T) {
	for _, s := range []string{"payment", "refund"} {
		parsed, err := ParseTransactionType(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(parsed))
	}

	_, err := ParseTransactionType("chargeback")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestParseAttemptStatus(t *testing.T) {
	for _, s := range []string{"initiated", "success", "failure", "error"} {
		parsed, err := ParseAttemptStatus(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(parsed))
	}

	_, err := ParseAttemptStatus("timeout")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestParseRefundStatus(t *testing.T) {
	for _, s := range []string{"requested", "processed", "failed"} {
		parsed, err := ParseRefundStatus(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(parsed))
	}

	_, err := ParseRefundStatus("pending")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestParsePaymentMethodType(t *testing.T) {
	for _, s := range []string{"credit_card", "debit_card", "bank_transfer", "wallet"} {
		parsed, err := ParsePaymentMethodType(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(parsed))
	}

	_, err := ParsePaymentMethodType("crypto")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}
