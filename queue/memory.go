package queue

import (
	"context"
	"sync"
)

// MemoryQueue is an in-process Consumer+Producer used by tests. Publish
// appends to an internal slice; Run drains it once and calls handle for
// each message, matching the at-least-once / caller-handles-failure
// contract of the real backends.
type MemoryQueue struct {
	mu       sync.Mutex
	messages []Message
	byTopic  map[string][]Message
}

// NewMemoryQueue returns an empty MemoryQueue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{byTopic: make(map[string][]Message)}
}

func (q *MemoryQueue) Publish(ctx context.Context, topic string, key, value []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	msg := Message{Topic: topic, Key: key, Value: value}
	q.messages = append(q.messages, msg)
	q.byTopic[topic] = append(q.byTopic[topic], msg)
	return nil
}

// Run drains every message published so far, whatever its topic, invoking
// handle for each and then clearing them.
func (q *MemoryQueue) Run(ctx context.Context, workers int, handle Handler) error {
	q.mu.Lock()
	pending := q.messages
	q.messages = nil
	q.mu.Unlock()

	for _, msg := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = handle(ctx, msg)
	}
	return nil
}

// Topic returns the messages published to topic so far, for test assertions.
func (q *MemoryQueue) Topic(topic string) []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Message, len(q.byTopic[topic]))
	copy(out, q.byTopic[topic])
	return out
}

func (q *MemoryQueue) Close() error { return nil }

var (
	_ Consumer = (*MemoryQueue)(nil)
	_ Producer = (*MemoryQueue)(nil)
)
