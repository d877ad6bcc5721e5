package mocks

import (
	"context"
	"sync"

	"github.com/kevin07696/transaction-service/internal/domain/ports"
)

// MockPaymentGateway is a mock implementation of ports.PaymentGateway for testing
type MockPaymentGateway struct {
	mu sync.Mutex

	chargeResult *ports.GatewayResult
	chargeError  error
	refundResult *ports.GatewayResult
	refundError  error

	ChargeCalls int
	RefundCalls int

	LastChargeReq *ports.ChargeRequest
	LastRefundReq *ports.GatewayRefundRequest
}

// NewMockPaymentGateway creates a new mock payment gateway
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

// SetChargeResult sets the result returned from Charge
func (m *MockPaymentGateway) SetChargeResult(result *ports.GatewayResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chargeResult = result
	m.chargeError = err
}

// SetRefundResult sets the result returned from Refund
func (m *MockPaymentGateway) SetRefundResult(result *ports.GatewayResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundResult = result
	m.refundError = err
}

// Charge records the request and returns the configured result
func (m *MockPaymentGateway) Charge(ctx context.Context, req *ports.ChargeRequest) (*ports.GatewayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChargeCalls++
	m.LastChargeReq = req
	return m.chargeResult, m.chargeError
}

// Refund records the request and returns the configured result
func (m *MockPaymentGateway) Refund(ctx context.Context, req *ports.GatewayRefundRequest) (*ports.GatewayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefundCalls++
	m.LastRefundReq = req
	return m.refundResult, m.refundError
}
