package kafka

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nevindra/ragforge/queue"
)

// Producer wraps a kafka.Writer for publishing (notably to DLQ topics).
type Producer struct {
	writer *kafkago.Writer
}

// NewProducer builds a Producer that writes to any topic on brokers;
// AllowAutoTopicCreation lets a topic (such as the configured DLQ topic) be
// created on first publish during local development.
func NewProducer(brokers []string) *Producer {
	return &Producer{writer: &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.LeastBytes{},
		AllowAutoTopicCreation: true,
	}}
}

// Publish writes a single message to topic.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafkago.Message{Topic: topic, Key: key, Value: value})
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error { return p.writer.Close() }

var _ queue.Producer = (*Producer)(nil)
