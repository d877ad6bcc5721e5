package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an immutable amount in a single currency. Arithmetic between two
// Money values requires matching currencies; every operation returns a new value.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney creates a Money value. Negative amounts are rejected because every
// transaction and refund amount in this domain is non-negative.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if currency == "" {
		return Money{}, NewDomainError(ErrorCodeValidationFailed, "currency is required")
	}
	if amount.IsNegative() {
		return Money{}, NewDomainError(ErrorCodeValidationAmountInvalid, "amount must not be negative").
			WithDetail("amount", amount.String())
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyFromString creates a Money value from a decimal string such as "100.00"
func NewMoneyFromString(amount, currency string) (Money, error) {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, WrapError(ErrorCodeValidationAmountInvalid, "invalid decimal amount", err).
			WithDetail("amount", amount)
	}
	return NewMoney(dec, currency)
}

// ZeroMoney returns a zero amount in the given currency
func ZeroMoney(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() string {
	return m.currency
}

// Add returns m + other, failing if the currencies differ
func (m Money) Add(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns m - other, failing if the currencies differ. A negative
// result is allowed here; non-negativity is enforced at the point of use.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Equals returns true iff amount and currency both match
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// GreaterThan returns true if m > other in the same currency
func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative returns true if the amount is below zero
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// String renders the value as "<amount> <currency>"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.String(), m.currency)
}

func (m Money) assertSameCurrency(other Money) error {
	if m.currency != other.currency {
		return NewDomainError(ErrorCodeCurrencyMismatch, "currency mismatch").
			WithDetail("currency", m.currency).
			WithDetail("other_currency", other.currency)
	}
	return nil
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// MarshalJSON serializes Money as {"amount": <decimal>, "currency": "<code>"}
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount, Currency: m.currency})
}

// UnmarshalJSON restores a Money value from its JSON shape
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.amount = raw.Amount
	m.currency = raw.Currency
	return nil
}
