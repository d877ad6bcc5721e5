package workers

import (
	"context"
	"time"

	"github.com/kevin07696/transaction-service/internal/domain/ports"
	"github.com/kevin07696/transaction-service/pkg/observability"
	"go.uber.org/zap"
)

// OutboxWorker periodically relays persisted outbox events to the broker.
// Delivery is at-least-once: an event is marked published only after the
// broker confirms it, so a crash in between re-sends on the next cycle.
type OutboxWorker struct {
	txnRepo   ports.TransactionRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
	interval  time.Duration
	batchSize int32
}

// NewOutboxWorker creates an outbox relay worker
func NewOutboxWorker(
	txnRepo ports.TransactionRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
	interval time.Duration,
	batchSize int32,
) *OutboxWorker {
	return &OutboxWorker{
		txnRepo:   txnRepo,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start runs the relay loop until the context is canceled
func (w *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("outbox worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if err := w.process(ctx); err != nil {
				w.logger.Error("failed to process outbox events", zap.Error(err))
			}
		}
	}
}

func (w *OutboxWorker) process(ctx context.Context) error {
	events, err := w.txnRepo.FindPendingEvents(ctx, nil, w.batchSize)
	if err != nil {
		return err
	}
	observability.SetOutboxPending(len(events))

	if len(events) == 0 {
		return nil
	}

	w.logger.Debug("processing outbox events", zap.Int("count", len(events)))

	for _, event := range events {
		if err := w.publisher.Publish(ctx, event); err != nil {
			// Stop the batch here: publishing later events before this one
			// would break per-aggregate ordering.
			w.logger.Error("failed to publish event",
				zap.Int64("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err))
			return err
		}

		if err := w.txnRepo.MarkEventPublished(ctx, nil, event.ID); err != nil {
			w.logger.Error("failed to mark event as published",
				zap.Int64("event_id", event.ID),
				zap.Error(err))
			return err
		}

		observability.RecordOutboxPublished(event.EventType)
	}

	return nil
}
