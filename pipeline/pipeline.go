// Package pipeline implements the embedding pipeline's processBatch entry
// point: text in, chunks out, wired up to the
// chunk/embed/vectorstore/contentstore/queue adapters.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/chunk"
	"github.com/nevindra/ragforge/contentstore"
	"github.com/nevindra/ragforge/embed"
	"github.com/nevindra/ragforge/queue"
	"github.com/nevindra/ragforge/vectorstore"
)

// Config holds the pipeline's per-delivery tunables.
type Config struct {
	MaxBodyChars      int
	MaxChunksPerBatch int
	WindowPause       time.Duration
	ChunkConfig       chunk.Config
}

// DefaultConfig returns the documented defaults: 100,000 char body cap, 50
// chunks per window, a 50ms inter-window pause.
func DefaultConfig() Config {
	return Config{
		MaxBodyChars:      100_000,
		MaxChunksPerBatch: 50,
		WindowPause:       50 * time.Millisecond,
		ChunkConfig:       chunk.DefaultConfig(),
	}
}

// Pipeline wires the content store, embedder, and vector store together to
// turn ContentEvents into upserted VectorRecords.
type Pipeline struct {
	content  contentstore.Store
	embedder *embed.Embedder
	vectors  *vectorstore.Store
	dlq      queue.Producer
	dlqTopic string
	cfg      Config
	logger   *slog.Logger
}

// New constructs a Pipeline. dlq/dlqTopic are used to publish ParseError and
// EmbedError entries; a nil dlq is permitted for tests that only assert on
// return values, but production callers must supply one.
func New(content contentstore.Store, embedder *embed.Embedder, vectors *vectorstore.Store, dlq queue.Producer, dlqTopic string, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{content: content, embedder: embedder, vectors: vectors, dlq: dlq, dlqTopic: dlqTopic, cfg: cfg, logger: logger}
}

// ProcessBatch is the handler invoked per queue delivery: one queue.Message
// per raw ContentEvent. Parse failures and per-job embed/upsert failures are
// routed to the DLQ; the batch itself never fails as a whole.
func (p *Pipeline) ProcessBatch(ctx context.Context, messages []queue.Message) error {
	for _, msg := range messages {
		event, err := parseContentEvent(msg.Value)
		if err != nil {
			p.emitDLQ(ctx, ragforge.ParseErrorEntry{Error: err.Error(), OriginalMessage: msg.Value})
			continue
		}
		if err := p.processJob(ctx, event); err != nil {
			p.logger.Warn("pipeline: job failed, routing to dlq", "content_id", event.ID, "error", err)
			p.emitDLQ(ctx, ragforge.EmbedErrorEntry{Err: err.Error(), Job: event})
		}
	}
	return nil
}

// parseContentEvent decodes and validates a raw ContentEvent. A schema
// violation (missing id) is reported the same way a JSON syntax error is:
// as a parse failure, never a panic.
func parseContentEvent(raw []byte) (ragforge.ContentEvent, error) {
	var event ragforge.ContentEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return ragforge.ContentEvent{}, fmt.Errorf("malformed content event: %w", err)
	}
	if !event.Valid() {
		return ragforge.ContentEvent{}, fmt.Errorf("content event missing required field: id")
	}
	return event, nil
}

// processJob runs steps 3–7 of the per-delivery algorithm for a single
// valid event. Any error returned here is the caller's cue to dead-letter
// the job as an EmbedError and move on.
func (p *Pipeline) processJob(ctx context.Context, event ragforge.ContentEvent) error {
	item, ok, err := p.content.Get(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("fetch content item: %w", err)
	}
	if !ok || item.Body == "" || item.Deleted {
		p.logger.Warn("pipeline: skipping empty or deleted content", "content_id", event.ID)
		return nil
	}

	body := item.Body
	if len(body) > p.cfg.MaxBodyChars {
		p.logger.Info("pipeline: truncating body", "content_id", event.ID, "original_len", len(body), "cap", p.cfg.MaxBodyChars)
		body = body[:p.cfg.MaxBodyChars]
	}

	chunks := chunk.Process(body, p.cfg.ChunkConfig)
	if len(chunks) == 0 {
		p.logger.Warn("pipeline: zero chunks produced, skipping", "content_id", event.ID)
		return nil
	}

	var records []ragforge.VectorRecord
	for start := 0; start < len(chunks); start += p.cfg.MaxChunksPerBatch {
		end := start + p.cfg.MaxChunksPerBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		window := chunks[start:end]

		vecs, err := p.embedder.Embed(ctx, window)
		if err != nil {
			return fmt.Errorf("embed window [%d:%d]: %w", start, end, err)
		}

		for i, vec := range vecs {
			globalIndex := uint32(start + i)
			records = append(records, ragforge.VectorRecord{
				ID:     ragforge.VectorID(event.ID, globalIndex),
				Values: vec,
				Metadata: ragforge.VectorMeta{
					UserID:    event.UserID,
					ContentID: event.ID,
					Category:  event.Category,
					MimeType:  event.MimeType,
					CreatedAt: event.CreatedAtEpochSeconds,
					Version:   event.Version,
				},
			})
		}
		window = nil
		vecs = nil

		if end < len(chunks) && p.cfg.WindowPause > 0 {
			select {
			case <-time.After(p.cfg.WindowPause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if err := p.vectors.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

func (p *Pipeline) emitDLQ(ctx context.Context, entry ragforge.DLQEntry) {
	if p.dlq == nil {
		p.logger.Error("pipeline: no dlq producer configured, dropping entry", "kind", ragforge.DLQKind(entry))
		return
	}
	payload, err := json.Marshal(dlqWireEntry(entry))
	if err != nil {
		p.logger.Error("pipeline: failed to marshal dlq entry", "error", err)
		return
	}
	if err := p.dlq.Publish(ctx, p.dlqTopic, nil, payload); err != nil {
		p.logger.Error("pipeline: failed to publish dlq entry", "error", err)
	}
}

// dlqWireEntry wraps an entry with its kind tag for deserialization by the
// DLQ reprocessor, which must distinguish variants on the wire.
func dlqWireEntry(entry ragforge.DLQEntry) map[string]any {
	return map[string]any{
		"kind":  ragforge.DLQKind(entry),
		"entry": entry,
	}
}
