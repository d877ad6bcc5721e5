package ports

import (
	"context"
	"time"

	"github.com/kevin07696/transaction-service/internal/domain"
)

// OutboxEvent is a domain event persisted alongside the aggregate state,
// waiting to be delivered to the broker by the outbox relay.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// TransactionRepository defines the interface for payment transaction persistence.
// Save must write the transaction, its attempts, its refunds and the drained
// pending events in one atomic database transaction.
type TransactionRepository interface {
	// FindByID loads and rehydrates a transaction aggregate with all of its
	// attempts and refunds. Returns a TXN_NOT_FOUND domain error if absent.
	FindByID(ctx context.Context, db DBTX, id string) (*domain.PaymentTransaction, error)

	// Save upserts the aggregate state and appends its drained events to the
	// outbox. The aggregate's event queue is empty after a successful Save.
	Save(ctx context.Context, tx DBTX, txn *domain.PaymentTransaction) error

	// FindPendingEvents returns unpublished outbox events in insertion order
	FindPendingEvents(ctx context.Context, db DBTX, limit int32) ([]OutboxEvent, error)

	// MarkEventPublished records that the outbox relay delivered the event
	MarkEventPublished(ctx context.Context, tx DBTX, eventID int64) error
}
