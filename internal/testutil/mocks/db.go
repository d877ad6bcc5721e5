package mocks

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MockDBPort satisfies ports.DBPort without a real database. WithTransaction
// simply invokes the callback; the in-memory repository handles persistence.
type MockDBPort struct {
	TransactionCalls int
	TransactionError error
}

// NewMockDBPort creates a new mock database port
func NewMockDBPort() *MockDBPort {
	return &MockDBPort{}
}

// GetDB returns nil; the mock repository never touches a pool
func (m *MockDBPort) GetDB() *pgxpool.Pool {
	return nil
}

// WithTransaction invokes fn directly, without a database transaction
func (m *MockDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	m.TransactionCalls++
	if m.TransactionError != nil {
		return m.TransactionError
	}
	return fn(ctx, nil)
}
