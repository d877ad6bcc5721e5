package ports

import "context"

// EventPublisher delivers outbox events to downstream consumers at least once.
// Delivery order across events of one aggregate must be preserved, which the
// Kafka adapter guarantees by keying messages on the aggregate id.
type EventPublisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
	Close() error
}
