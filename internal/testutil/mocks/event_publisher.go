package mocks

import (
	"context"
	"sync"

	"github.com/kevin07696/transaction-service/internal/domain/ports"
)

// MockEventPublisher records published outbox events
type MockEventPublisher struct {
	mu sync.Mutex

	publishError error

	Published []ports.OutboxEvent
}

// NewMockEventPublisher creates a new mock publisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// SetPublishError makes Publish fail with the given error
func (m *MockEventPublisher) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishError = err
}

// Publish records the event or returns the configured error
func (m *MockEventPublisher) Publish(ctx context.Context, event ports.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishError != nil {
		return m.publishError
	}
	m.Published = append(m.Published, event)
	return nil
}

// PublishedCount returns the number of recorded events
func (m *MockEventPublisher) PublishedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Published)
}

// Close is a no-op
func (m *MockEventPublisher) Close() error {
	return nil
}
