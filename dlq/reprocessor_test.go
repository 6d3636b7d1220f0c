package dlq_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/dlq"
	"github.com/nevindra/ragforge/queue"
)

func wireMessage(t *testing.T, kind string, entry ragforge.DLQEntry) queue.Message {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"kind": kind, "entry": entry})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return queue.Message{Value: payload}
}

func TestClassifyParseErrorAlwaysAcks(t *testing.T) {
	action := dlq.Classify(ragforge.ParseErrorEntry{Error: "boom"})
	if !action.Ack || action.Retry {
		t.Fatalf("expected ack-only action, got %+v", action)
	}
}

func TestClassifyEmbedErrorRetryableUnderCapSchedulesRetry(t *testing.T) {
	action := dlq.Classify(ragforge.EmbedErrorEntry{Err: "connection timed out", Attempts: 1})
	if !action.Retry {
		t.Fatal("expected retry action")
	}
	if action.Delay != 60*time.Second {
		t.Fatalf("delay = %v, want 60s", action.Delay)
	}
}

func TestClassifyEmbedErrorExhaustedAcks(t *testing.T) {
	action := dlq.Classify(ragforge.EmbedErrorEntry{Err: "connection timed out", Attempts: 3})
	if !action.Ack || action.Retry {
		t.Fatalf("expected ack once attempts exhausted, got %+v", action)
	}
}

func TestClassifyEmbedErrorNonRetryableAcks(t *testing.T) {
	action := dlq.Classify(ragforge.EmbedErrorEntry{Err: "validation failed: bad schema", Attempts: 0})
	if !action.Ack || action.Retry {
		t.Fatalf("expected ack for a non-retryable error, got %+v", action)
	}
}

func TestReprocessorHandleParseErrorIncrementsCounter(t *testing.T) {
	r := dlq.New("retry-topic", queue.NewMemoryQueue(), nil)
	msg := wireMessage(t, "ParseError", ragforge.ParseErrorEntry{Error: "bad json"})

	if err := r.Handle(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Counters.ParsingErrorsProcessed.Load(); got != 1 {
		t.Fatalf("ParsingErrorsProcessed = %d, want 1", got)
	}
}

func TestReprocessorHandleUnknownIncrementsCounter(t *testing.T) {
	r := dlq.New("retry-topic", queue.NewMemoryQueue(), nil)
	msg := queue.Message{Value: []byte("not json at all")}

	if err := r.Handle(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Counters.MessagesMalformed.Load(); got != 1 {
		t.Fatalf("MessagesMalformed = %d, want 1", got)
	}
}

func TestReprocessorHandleEmbedErrorExhaustedDoesNotRetry(t *testing.T) {
	retryQueue := queue.NewMemoryQueue()
	r := dlq.New("retry-topic", retryQueue, nil)
	msg := wireMessage(t, "EmbedError", ragforge.EmbedErrorEntry{
		Err: "connection timed out", Job: ragforge.ContentEvent{ID: "c1"}, Attempts: 3,
	})

	if err := r.Handle(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.Counters.EmbedErrorsExhausted.Load(); got != 1 {
		t.Fatalf("EmbedErrorsExhausted = %d, want 1", got)
	}
	if len(retryQueue.Topic("retry-topic")) != 0 {
		t.Fatal("expected no retry to be published once attempts are exhausted")
	}
}
