package domain

// TransactionType represents the type of transaction, fixed at creation
type TransactionType string

const (
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeRefund  TransactionType = "refund"
)

// ParseTransactionType validates a stored transaction type string
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TransactionTypePayment, TransactionTypeRefund:
		return TransactionType(s), nil
	default:
		return "", NewDomainError(ErrorCodeValidationFailed, "unsupported transaction type").
			WithDetail("transaction_type", s)
	}
}

// TransactionStatus represents the lifecycle state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending           TransactionStatus = "pending"
	TransactionStatusSuccessful        TransactionStatus = "successful"
	TransactionStatusFailed            TransactionStatus = "failed"
	TransactionStatusRefunded          TransactionStatus = "refunded"
	TransactionStatusPartiallyRefunded TransactionStatus = "partially_refunded"
)

// ParseTransactionStatus validates a stored transaction status string
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch TransactionStatus(s) {
	case TransactionStatusPending, TransactionStatusSuccessful, TransactionStatusFailed,
		TransactionStatusRefunded, TransactionStatusPartiallyRefunded:
		return TransactionStatus(s), nil
	default:
		return "", NewDomainError(ErrorCodeValidationFailed, "unsupported transaction status").
			WithDetail("status", s)
	}
}

// IsFinalState returns true for every status that no longer accepts new
// payment attempts. Only a pending transaction may still be attempted.
func (s TransactionStatus) IsFinalState() bool {
	switch s {
	case TransactionStatusPending:
		return false
	case TransactionStatusSuccessful, TransactionStatusFailed,
		TransactionStatusRefunded, TransactionStatusPartiallyRefunded:
		return true
	}
	return true
}

// CanBeRefunded returns true if a refund may be created in this state. A fully
// refunded transaction still passes this check; the remaining-amount guard is
// what rejects it, so the caller sees an over-refund error rather than a state
// error.
func (s TransactionStatus) CanBeRefunded() bool {
	return s == TransactionStatusSuccessful ||
		s == TransactionStatusPartiallyRefunded ||
		s == TransactionStatusRefunded
}

// AttemptStatus represents the state of a single payment attempt
type AttemptStatus string

const (
	AttemptStatusInitiated AttemptStatus = "initiated"
	AttemptStatusSuccess   AttemptStatus = "success"
	AttemptStatusFailure   AttemptStatus = "failure"
	AttemptStatusError     AttemptStatus = "error"
)

// ParseAttemptStatus validates a stored attempt status string
func ParseAttemptStatus(s string) (AttemptStatus, error) {
	switch AttemptStatus(s) {
	case AttemptStatusInitiated, AttemptStatusSuccess, AttemptStatusFailure, AttemptStatusError:
		return AttemptStatus(s), nil
	default:
		return "", NewDomainError(ErrorCodeValidationFailed, "unsupported attempt status").
			WithDetail("status", s)
	}
}

// IsTerminal returns true once the attempt has reached a final outcome
func (s AttemptStatus) IsTerminal() bool {
	switch s {
	case AttemptStatusInitiated:
		return false
	case AttemptStatusSuccess, AttemptStatusFailure, AttemptStatusError:
		return true
	}
	return true
}

// RefundStatus represents the state of a single refund request
type RefundStatus string

const (
	RefundStatusRequested RefundStatus = "requested"
	RefundStatusProcessed RefundStatus = "processed"
	RefundStatusFailed    RefundStatus = "failed"
)

// ParseRefundStatus validates a stored refund status string
func ParseRefundStatus(s string) (RefundStatus, error) {
	switch RefundStatus(s) {
	case RefundStatusRequested, RefundStatusProcessed, RefundStatusFailed:
		return RefundStatus(s), nil
	default:
		return "", NewDomainError(ErrorCodeValidationFailed, "unsupported refund status").
			WithDetail("status", s)
	}
}

// IsTerminal returns true once the refund has reached a final outcome
func (s RefundStatus) IsTerminal() bool {
	switch s {
	case RefundStatusRequested:
		return false
	case RefundStatusProcessed, RefundStatusFailed:
		return true
	}
	return true
}

// PaymentMethodType represents the payment method used
type PaymentMethodType string

const (
	PaymentMethodTypeCreditCard   PaymentMethodType = "credit_card"
	PaymentMethodTypeDebitCard    PaymentMethodType = "debit_card"
	PaymentMethodTypeBankTransfer PaymentMethodType = "bank_transfer"
	PaymentMethodTypeWallet       PaymentMethodType = "wallet"
)

// ParsePaymentMethodType validates a stored payment method type string
func ParsePaymentMethodType(s string) (PaymentMethodType, error) {
	switch PaymentMethodType(s) {
	case PaymentMethodTypeCreditCard, PaymentMethodTypeDebitCard,
		PaymentMethodTypeBankTransfer, PaymentMethodTypeWallet:
		return PaymentMethodType(s), nil
	default:
		return "", NewDomainError(ErrorCodeValidationFailed, "unsupported payment method type").
			WithDetail("payment_method_type", s)
	}
}

// PaymentMethodDetails carries the display-safe details of the method used.
// Only the fields relevant to the method type are populated.
type PaymentMethodDetails struct {
	CardBrand       string `json:"card_brand,omitempty"`
	LastFour        string `json:"last_four,omitempty"`
	ExpiryMonth     int    `json:"expiry_month,omitempty"`
	ExpiryYear      int    `json:"expiry_year,omitempty"`
	BankName        string `json:"bank_name,omitempty"`
	WalletProvider  string `json:"wallet_provider,omitempty"`
	GatewayToken    string `json:"gateway_token,omitempty"`
	BillingEmail    string `json:"billing_email,omitempty"`
	BillingPostcode string `json:"billing_postcode,omitempty"`
}
