// Package kafka implements queue.Consumer and queue.Producer over
// segmentio/kafka-go, using a worker-pool-over-channel consume loop.
package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nevindra/ragforge/queue"
)

// Consumer wraps a kafka.Reader, fanning fetched messages out to a bounded
// worker pool and committing each after its handler returns.
type Consumer struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewConsumer builds a Consumer reading topic as part of groupID on brokers.
func NewConsumer(brokers []string, groupID, topic string, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, logger: logger}
}

// Run fetches messages and dispatches them to a pool of workers, each
// running handle and committing the message afterward. Run blocks until ctx
// is cancelled or the reader fails unrecoverably.
func (c *Consumer) Run(ctx context.Context, workers int, handle queue.Handler) error {
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan kafkago.Message, workers*4)

	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for msg := range jobs {
				qm := queue.Message{Topic: msg.Topic, Key: msg.Key, Value: msg.Value}
				if err := handle(ctx, qm); err != nil {
					c.logger.Error("queue/kafka: handler returned error", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
				}
				if err := c.reader.CommitMessages(ctx, msg); err != nil {
					c.logger.Error("queue/kafka: commit failed", "topic", msg.Topic, "offset", msg.Offset, "error", err)
				}
			}
			done <- struct{}{}
		}()
	}

	for {
		if ctx.Err() != nil {
			break
		}
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			c.logger.Warn("queue/kafka: fetch error, backing off", "error", err)
			timer := time.NewTimer(500 * time.Millisecond)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
			}
			continue
		}
		select {
		case jobs <- msg:
		case <-ctx.Done():
		}
	}
	close(jobs)
	for i := 0; i < workers; i++ {
		<-done
	}
	return ctx.Err()
}

// Close closes the underlying reader.
func (c *Consumer) Close() error { return c.reader.Close() }

var _ queue.Consumer = (*Consumer)(nil)
