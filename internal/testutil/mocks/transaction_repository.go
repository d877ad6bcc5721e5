package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kevin07696/transaction-service/internal/domain"
	"github.com/kevin07696/transaction-service/internal/domain/ports"
)

// MockTransactionRepository is an in-memory implementation of
// ports.TransactionRepository for testing. Saved aggregates round-trip through
// their snapshots exactly like the real repository, and drained events are
// appended to an in-memory outbox.
type MockTransactionRepository struct {
	mu sync.Mutex

	transactions map[string]domain.TransactionState
	outbox       []ports.OutboxEvent
	nextEventID  int64

	findError error
	saveError error

	SaveCalls   int
	FindCalls   int
	SavedEvents []domain.Event
}

// NewMockTransactionRepository creates an empty in-memory repository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]domain.TransactionState),
		nextEventID:  1,
	}
}

// SetFindError makes FindByID fail with the given error
func (m *MockTransactionRepository) SetFindError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findError = err
}

// SetSaveError makes Save fail with the given error
func (m *MockTransactionRepository) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Seed stores an aggregate without draining its events
func (m *MockTransactionRepository) Seed(txn *domain.PaymentTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.ID()] = txn.Snapshot()
}

// FindByID returns a rehydrated copy of the stored aggregate
func (m *MockTransactionRepository) FindByID(ctx context.Context, db ports.DBTX, id string) (*domain.PaymentTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++
	if m.findError != nil {
		return nil, m.findError
	}
	state, ok := m.transactions[id]
	if !ok {
		return nil, domain.ErrTxnNotFound.WithDetail("transaction_id", id)
	}
	return domain.RehydrateTransaction(state), nil
}

// Save stores the aggregate snapshot and drains its events into the outbox.
// It enforces the same version check as the real repository, so a writer
// holding a stale copy gets a conflict error instead of overwriting.
func (m *MockTransactionRepository) Save(ctx context.Context, tx ports.DBTX, txn *domain.PaymentTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.saveError != nil {
		return m.saveError
	}
	if existing, ok := m.transactions[txn.ID()]; ok && existing.Version != txn.Version() {
		return domain.NewDomainError(domain.ErrorCodeTxnConflict, "transaction was modified concurrently").
			WithDetail("transaction_id", txn.ID()).
			WithDetail("expected_version", txn.Version())
	}
	txn.MarkPersisted()
	m.transactions[txn.ID()] = txn.Snapshot()
	for _, event := range txn.PullEvents() {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		m.SavedEvents = append(m.SavedEvents, event)
		m.outbox = append(m.outbox, ports.OutboxEvent{
			ID:          m.nextEventID,
			AggregateID: event.AggregateID(),
			EventType:   event.EventType(),
			Payload:     payload,
			CreatedAt:   event.OccurredAt(),
		})
		m.nextEventID++
	}
	return nil
}

// FindPendingEvents returns unpublished outbox events in insertion order
func (m *MockTransactionRepository) FindPendingEvents(ctx context.Context, db ports.DBTX, limit int32) ([]ports.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []ports.OutboxEvent
	for _, e := range m.outbox {
		if e.PublishedAt == nil && int32(len(pending)) < limit {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

// MarkEventPublished marks the outbox event as delivered
func (m *MockTransactionRepository) MarkEventPublished(ctx context.Context, tx ports.DBTX, eventID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.outbox {
		if m.outbox[i].ID == eventID {
			now := m.outbox[i].CreatedAt
			m.outbox[i].PublishedAt = &now
			return nil
		}
	}
	return domain.ErrTxnNotFound
}
