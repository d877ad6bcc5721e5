package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/transaction-service/internal/domain"
	"github.com/kevin07696/transaction-service/internal/testutil/mocks"
)

func seedOutbox(t *testing.T, repo *mocks.MockTransactionRepository, amounts ...string) {
	t.Helper()
	for _, amount := range amounts {
		money, err := domain.NewMoneyFromString(amount, "USD")
		require.NoError(t, err)
		txn, err := domain.CreatePayment(domain.CreatePaymentParams{
			OrganizationID:    "org_123",
			Amount:            money,
			PaymentMethodType: domain.PaymentMethodTypeCreditCard,
			GatewayID:         "gw_stripe",
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(context.Background(), nil, txn))
	}
}

func TestOutboxWorker_Process(t *testing.T) {
	t.Run("publishes_pending_events_and_marks_them", func(t *testing.T) {
		repo := mocks.NewMockTransactionRepository()
		publisher := mocks.NewMockEventPublisher()
		worker := NewOutboxWorker(repo, publisher, zap.NewNop(), time.Second, 100)
		seedOutbox(t, repo, "10", "20", "30")

		require.NoError(t, worker.process(context.Background()))

		require.Len(t, publisher.Published, 3)
		for _, event := range publisher.Published {
			assert.Equal(t, domain.EventTypeTransactionCreated, event.EventType)

			var payload map[string]interface{}
			require.NoError(t, json.Unmarshal(event.Payload, &payload),
				"published payload must be the serialized event")
			assert.Equal(t, event.AggregateID, payload["id"])
			assert.Equal(t, "org_123", payload["organization_id"])
		}

		// Everything was marked, so a second pass finds nothing.
		require.NoError(t, worker.process(context.Background()))
		assert.Len(t, publisher.Published, 3)
	})

	t.Run("empty_outbox_is_a_noop", func(t *testing.T) {
		repo := mocks.NewMockTransactionRepository()
		publisher := mocks.NewMockEventPublisher()
		worker := NewOutboxWorker(repo, publisher, zap.NewNop(), time.Second, 100)

		require.NoError(t, worker.process(context.Background()))
		assert.Empty(t, publisher.Published)
	})

	t.Run("publish_failure_stops_the_batch", func(t *testing.T) {
		repo := mocks.NewMockTransactionRepository()
		publisher := mocks.NewMockEventPublisher()
		worker := NewOutboxWorker(repo, publisher, zap.NewNop(), time.Second, 100)
		seedOutbox(t, repo, "10", "20")

		publisher.SetPublishError(errors.New("broker unavailable"))
		require.Error(t, worker.process(context.Background()))
		assert.Empty(t, publisher.Published)

		// Once the broker recovers, both events are still pending and relay
		// in their original order.
		publisher.SetPublishError(nil)
		require.NoError(t, worker.process(context.Background()))
		require.Len(t, publisher.Published, 2)
		assert.Less(t, publisher.Published[0].ID, publisher.Published[1].ID)
	})

	t.Run("respects_batch_size", func(t *testing.T) {
		repo := mocks.NewMockTransactionRepository()
		publisher := mocks.NewMockEventPublisher()
		worker := NewOutboxWorker(repo, publisher, zap.NewNop(), time.Second, 2)
		seedOutbox(t, repo, "10", "20", "30")

		require.NoError(t, worker.process(context.Background()))
		assert.Len(t, publisher.Published, 2)

		require.NoError(t, worker.process(context.Background()))
		assert.Len(t, publisher.Published, 3)
	})
}

func TestOutboxWorker_Start(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	publisher := mocks.NewMockEventPublisher()
	worker := NewOutboxWorker(repo, publisher, zap.NewNop(), 5*time.Millisecond, 100)
	seedOutbox(t, repo, "10")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return publisher.PublishedCount() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
