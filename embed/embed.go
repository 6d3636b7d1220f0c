// Package embed implements the embedding pipeline's batching and retry
// policy over a pluggable backend interface.
package embed

import (
	"context"
	"log/slog"
	"time"

	"github.com/nevindra/ragforge/errs"
)

// Backend embeds a batch of texts in a single round-trip. Implementations
// live in subpackages (openaicompat, ...).
type Backend interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

// Config holds the embedder's tunables.
type Config struct {
	Model          string
	MaxBatchSize   int
	RetryAttempts  int
	RetryDelayMs   int
	InterBatchPause time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxBatchSize:    10,
		RetryAttempts:   3,
		RetryDelayMs:    1000,
		InterBatchPause: 50 * time.Millisecond,
	}
}

// Embedder partitions texts into contiguous batches, embeds each with the
// backend under a linear-backoff retry, and reassembles the vectors in
// input order.
type Embedder struct {
	backend Backend
	cfg     Config
	logger  *slog.Logger
}

// New constructs an Embedder. cfg.Model is not sent to the backend directly
// (the backend is already bound to a model); it is carried for error
// reporting only.
func New(backend Backend, cfg Config, logger *slog.Logger) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{backend: backend, cfg: cfg, logger: logger}
}

// Embed preserves order and length of texts. Empty input returns empty,
// immediately, with no backend call.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.cfg.MaxBatchSize {
		end := start + e.cfg.MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vecs, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)

		if end < len(texts) && e.cfg.InterBatchPause > 0 {
			select {
			case <-time.After(e.cfg.InterBatchPause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return out, nil
}

func (e *Embedder) embedBatchWithRetry(ctx context.Context, batch []string) ([][]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.RetryAttempts; attempt++ {
		vecs, err := e.backend.Embed(ctx, batch)
		if err == nil {
			if len(vecs) != len(batch) {
				return nil, errs.NewEmbedding(e.cfg.Model, len(batch), attempt, nil)
			}
			return vecs, nil
		}
		lastErr = err

		if attempt == e.cfg.RetryAttempts {
			break
		}
		e.logger.Warn("embed: retrying batch", "attempt", attempt, "batch_size", len(batch), "error", err)
		delay := time.Duration(e.cfg.RetryDelayMs*attempt) * time.Millisecond
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, errs.NewEmbedding(e.cfg.Model, len(batch), e.cfg.RetryAttempts, lastErr)
}
