// Package kafka publishes transaction events to a Kafka topic. Delivery is
// best-effort; the write path never waits on or fails because of it.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/walletworks/balance-service/internal/app/services/balance"
)

// Publisher writes TransactionCompleted events to a single topic.
type Publisher struct {
	writer *kafka.Writer
}

var _ balance.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: 2 * time.Second,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, event balance.TransactionCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Value: data})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
