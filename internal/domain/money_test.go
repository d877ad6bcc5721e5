package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMoney(t *testing.T, amount, currency string) Money {
	t.Helper()
	m, err := NewMoneyFromString(amount, currency)
	require.NoError(t, err)
	return m
}

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		currency  string
		wantError bool
		errorCode ErrorCode
	}{
		{
			name:     "positive_amount",
			amount:   "100.50",
			currency: "USD",
		},
		{
			name:     "zero_amount",
			amount:   "0",
			currency: "EUR",
		},
		{
			name:      "negative_amount_rejected",
			amount:    "-0.01",
			currency:  "USD",
			wantError: true,
			errorCode: ErrorCodeValidationAmountInvalid,
		},
		{
			name:      "missing_currency_rejected",
			amount:    "10",
			currency:  "",
			wantError: true,
			errorCode: ErrorCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.amount, tt.currency)
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, IsDomainError(err, tt.errorCode),
					"expected error code %s, got %v", tt.errorCode, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.currency, m.Currency())
			assert.True(t, m.Amount().Equal(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestNewMoneyFromString_InvalidDecimal(t *testing.T) {
	_, err := NewMoneyFromString("not-a-number", "USD")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestMoney_Add(t *testing.T) {
	t.Run("same_currency", func(t *testing.T) {
		sum, err := mustMoney(t, "10.25", "USD").Add(mustMoney(t, "5.75", "USD"))
		require.NoError(t, err)
		assert.True(t, sum.Equals(mustMoney(t, "16", "USD")))
	})

	t.Run("currency_mismatch", func(t *testing.T) {
		_, err := mustMoney(t, "10", "USD").Add(mustMoney(t, "10", "EUR"))
		require.Error(t, err)
		assert.True(t, IsCurrencyMismatchError(err))
	})

	t.Run("operands_unchanged", func(t *testing.T) {
		a := mustMoney(t, "10", "USD")
		b := mustMoney(t, "5", "USD")
		_, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, a.Equals(mustMoney(t, "10", "USD")), "Add must not mutate the receiver")
		assert.True(t, b.Equals(mustMoney(t, "5", "USD")), "Add must not mutate the argument")
	})
}

func TestMoney_Subtract(t *testing.T) {
	t.Run("same_currency", func(t *testing.T) {
		diff, err := mustMoney(t, "100", "USD").Subtract(mustMoney(t, "40", "USD"))
		require.NoError(t, err)
		assert.True(t, diff.Equals(mustMoney(t, "60", "USD")))
	})

	t.Run("negative_result_allowed", func(t *testing.T) {
		// Non-negativity is enforced at the point of use, not here.
		diff, err := mustMoney(t, "10", "USD").Subtract(mustMoney(t, "25", "USD"))
		require.NoError(t, err)
		assert.True(t, diff.IsNegative())
	})

	t.Run("currency_mismatch", func(t *testing.T) {
		_, err := mustMoney(t, "10", "USD").Subtract(mustMoney(t, "5", "GBP"))
		require.Error(t, err)
		assert.True(t, IsCurrencyMismatchError(err))
	})
}

func TestMoney_Equals(t *testing.T) {
	tests := []struct {
		name     string
		a        [2]string
		b        [2]string
		expected bool
	}{
		{name: "equal_amount_and_currency", a: [2]string{"10.00", "USD"}, b: [2]string{"10", "USD"}, expected: true},
		{name: "different_amount", a: [2]string{"10", "USD"}, b: [2]string{"11", "USD"}, expected: false},
		{name: "different_currency", a: [2]string{"10", "USD"}, b: [2]string{"10", "EUR"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustMoney(t, tt.a[0], tt.a[1])
			b := mustMoney(t, tt.b[0], tt.b[1])
			assert.Equal(t, tt.expected, a.Equals(b))
		})
	}
}

func TestMoney_GreaterThan(t *testing.T) {
	gt, err := mustMoney(t, "10.01", "USD").GreaterThan(mustMoney(t, "10", "USD"))
	require.NoError(t, err)
	assert.True(t, gt)

	_, err = mustMoney(t, "10", "USD").GreaterThan(mustMoney(t, "10", "JPY"))
	require.Error(t, err)
	assert.True(t, IsCurrencyMismatchError(err))
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	original := mustMoney(t, "123.45", "USD")

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"123.45","currency":"USD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equals(decoded))
}
