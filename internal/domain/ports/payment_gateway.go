package ports

import (
	"context"
	"time"

	"github.com/kevin07696/transaction-service/internal/domain"
	"github.com/shopspring/decimal"
)

// ChargeRequest represents a request to execute a payment attempt
type ChargeRequest struct {
	TransactionID string
	AttemptID     string
	Amount        decimal.Decimal
	Currency      string
	MethodType    domain.PaymentMethodType
	Method        domain.PaymentMethodDetails
	Metadata      map[string]string
}

// GatewayRefundRequest represents a request to refund a processed payment
type GatewayRefundRequest struct {
	TransactionID string
	RefundID      string
	Amount        decimal.Decimal
	Currency      string
	Reason        string
}

// GatewayOutcome classifies how a gateway call ended
type GatewayOutcome string

const (
	GatewayOutcomeApproved GatewayOutcome = "approved"
	GatewayOutcomeDeclined GatewayOutcome = "declined"
	GatewayOutcomeError    GatewayOutcome = "error"
)

// GatewayResult represents the result of a gateway call
type GatewayResult struct {
	Outcome     GatewayOutcome
	Reference   string // gateway-side transaction/refund reference
	Code        string
	Message     string
	RawResponse map[string]interface{}
	Timestamp   time.Time
}

// PaymentGateway is the caller-side contract for the external gateway adapter.
// The aggregate never calls it; the application service does, between
// registering an attempt/refund and reporting the outcome back.
type PaymentGateway interface {
	// Charge executes a payment attempt
	Charge(ctx context.Context, req *ChargeRequest) (*GatewayResult, error)

	// Refund returns funds for a processed payment
	Refund(ctx context.Context, req *GatewayRefundRequest) (*GatewayResult, error)
}
