package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/kevin07696/transaction-service/internal/domain/ports"
	"go.uber.org/zap"
)

// Publisher delivers outbox events to Kafka. Messages are keyed on the
// aggregate id so all events of one transaction land on the same partition
// and keep their order. Delivery is at-least-once.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewPublisher creates a Kafka publisher with an idempotent sync producer
func NewPublisher(brokers []string, topic string, logger *zap.Logger) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}, nil
}

// Publish sends one outbox event to the topic
func (p *Publisher) Publish(ctx context.Context, event ports.OutboxEvent) error {
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.AggregateID),
		Value: sarama.ByteEncoder(event.Payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.EventType)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error("failed to send outbox event",
			zap.Error(err),
			zap.Int64("event_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("aggregate_id", event.AggregateID),
		)
		return fmt.Errorf("send outbox event: %w", err)
	}

	p.logger.Debug("outbox event published",
		zap.Int64("event_id", event.ID),
		zap.String("event_type", event.EventType),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close shuts down the underlying producer
func (p *Publisher) Close() error {
	return p.producer.Close()
}
