package dlq

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/queue"
)

func marshalContentEvent(e ragforge.ContentEvent) ([]byte, error) {
	return json.Marshal(e)
}

// Counters tracks the reprocessor's per-entry-kind metrics.
type Counters struct {
	ParsingErrorsProcessed atomic.Int64
	MessagesMalformed      atomic.Int64
	EmbedErrorsRetried     atomic.Int64
	EmbedErrorsExhausted   atomic.Int64
}

// Reprocessor consumes DLQ entries and acks or schedules a delayed retry for
// each, per Classify.
type Reprocessor struct {
	topic    string
	retryTo  queue.Producer
	logger   *slog.Logger
	Counters Counters
}

// New constructs a Reprocessor. retryTo is the producer used to re-publish
// EmbedError entries for retry (typically the pipeline's original
// new-content topic, or a dedicated retry topic feeding back into it).
func New(topic string, retryTo queue.Producer, logger *slog.Logger) *Reprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reprocessor{topic: topic, retryTo: retryTo, logger: logger}
}

// Handle is a queue.Handler: it decodes the DLQ message, classifies it, and
// either acks (by simply returning nil — the queue commits regardless) or
// schedules the delayed retry in the background.
func (r *Reprocessor) Handle(ctx context.Context, msg queue.Message) error {
	entry := Decode(msg.Value)
	action := Classify(entry)

	switch e := entry.(type) {
	case ragforge.ParseErrorEntry:
		r.Counters.ParsingErrorsProcessed.Add(1)
		r.logger.Info("dlq: parse error acknowledged", "error", e.Error)
	case ragforge.EmbedErrorEntry:
		if action.Retry {
			r.Counters.EmbedErrorsRetried.Add(1)
			r.scheduleRetry(ctx, e, action.Delay)
		} else {
			r.Counters.EmbedErrorsExhausted.Add(1)
			r.logger.Warn("dlq: embed error exhausted retries, acknowledged", "content_id", e.Job.ID, "attempts", e.Attempts, "error", e.Err)
		}
	case ragforge.UnknownEntry:
		r.Counters.MessagesMalformed.Add(1)
		r.logger.Warn("dlq: unrecognized entry, acknowledged")
	}
	return nil
}

// scheduleRetry republishes the job's ContentEvent after delay. The event
// itself carries no attempt count; EmbedErrorEntry.Attempts is maintained by
// the queue system on redelivery. It runs in the background so Handle returns
// immediately and the queue can commit the original DLQ message right away.
func (r *Reprocessor) scheduleRetry(ctx context.Context, e ragforge.EmbedErrorEntry, delay time.Duration) {
	if r.retryTo == nil {
		r.logger.Error("dlq: no retry producer configured, dropping embed error", "content_id", e.Job.ID)
		return
	}
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
		raw, err := marshalContentEvent(e.Job)
		if err != nil {
			r.logger.Error("dlq: failed to marshal retry event", "error", err)
			return
		}
		if err := r.retryTo.Publish(ctx, r.topic, nil, raw); err != nil {
			r.logger.Error("dlq: failed to publish retry", "error", err)
		}
	}()
}
