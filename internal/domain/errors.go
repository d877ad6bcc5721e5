package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid ErrorCode = "VALIDATION_AMOUNT_INVALID"

	// Money Errors
	ErrorCodeCurrencyMismatch ErrorCode = "CURRENCY_MISMATCH"
	ErrorCodeOverRefund       ErrorCode = "REFUND_EXCEEDS_REMAINING"

	// Not Found Errors (*_NOT_FOUND)
	ErrorCodeTxnNotFound     ErrorCode = "TXN_NOT_FOUND"
	ErrorCodeAttemptNotFound ErrorCode = "ATTEMPT_NOT_FOUND"
	ErrorCodeRefundNotFound  ErrorCode = "REFUND_NOT_FOUND"

	// State Errors
	ErrorCodeTxnInvalidState ErrorCode = "TXN_INVALID_STATE"

	// Concurrency Errors
	ErrorCodeTxnConflict ErrorCode = "TXN_CONFLICT"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail returns a copy of the error with the detail added. The receiver
// is never mutated, so the shared sentinels stay free of call-site state and
// a retained error keeps its details across later calls.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{
		Err:     e.Err,
		Details: details,
		Code:    e.Code,
		Message: e.Message,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid
}

// IsCurrencyMismatchError checks if an error is a currency mismatch
func IsCurrencyMismatchError(err error) bool {
	return GetErrorCode(err) == ErrorCodeCurrencyMismatch
}

// IsOverRefundError checks if an error represents a refund exceeding the remaining refundable amount
func IsOverRefundError(err error) bool {
	return GetErrorCode(err) == ErrorCodeOverRefund
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeTxnNotFound ||
		code == ErrorCodeAttemptNotFound ||
		code == ErrorCodeRefundNotFound
}

// IsInvalidStateError checks if an error represents an operation against the wrong lifecycle state
func IsInvalidStateError(err error) bool {
	return GetErrorCode(err) == ErrorCodeTxnInvalidState
}

// IsConflictError checks if an error represents a lost optimistic concurrency race
func IsConflictError(err error) bool {
	return GetErrorCode(err) == ErrorCodeTxnConflict
}

// Sentinel instances for the common failure cases
var (
	ErrTxnNotFound     = NewDomainError(ErrorCodeTxnNotFound, "transaction not found")
	ErrAttemptNotFound = NewDomainError(ErrorCodeAttemptNotFound, "payment attempt not found")
	ErrRefundNotFound  = NewDomainError(ErrorCodeRefundNotFound, "refund not found")
)
