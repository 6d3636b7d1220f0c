package vectorstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/errs"
)

// Store is the adapter clients use: it batches upserts with retry and
// applies the userId → {userId, PublicUserID} filter-widening rule before
// every query, regardless of which Backend is plugged in.
type Store struct {
	backend Backend
	cfg     Config
	logger  *slog.Logger
}

// New wraps backend with the adapter's batching/retry/filter policy.
func New(backend Backend, cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, cfg: cfg, logger: logger}
}

// Upsert writes records in batches of cfg.MaxBatchSize, each retried up to
// cfg.RetryAttempts with linear backoff. A batch that exhausts its retries
// fails the whole call — the caller (the pipeline) routes the job to the DLQ.
func (s *Store) Upsert(ctx context.Context, records []ragforge.VectorRecord) error {
	for start := 0; start < len(records); start += s.cfg.MaxBatchSize {
		end := start + s.cfg.MaxBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.upsertBatchWithRetry(ctx, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertBatchWithRetry(ctx context.Context, batch []ragforge.VectorRecord) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.RetryAttempts; attempt++ {
		err := s.backend.UpsertBatch(ctx, batch)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == s.cfg.RetryAttempts {
			break
		}
		s.logger.Warn("vectorstore: retrying upsert batch", "attempt", attempt, "size", len(batch), "error", err)
		delay := time.Duration(s.cfg.RetryDelayMs*attempt) * time.Millisecond
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errs.NewVectorize("upsert", lastErr)
}

// Query embeds the caller's intent into a widened filter and runs a single
// similarity search. No retry: the caller decides whether to retry a query
// failure.
func (s *Store) Query(ctx context.Context, vec []float32, filter Filter, topK int) ([]Match, error) {
	if topK < 1 {
		topK = 1
	}
	if topK > 1000 {
		topK = 1000
	}
	widened := widen(filter)
	matches, err := s.backend.Query(ctx, vec, widened, topK)
	if err != nil {
		return nil, errs.NewVectorize("query", err)
	}
	return matches, nil
}

// Stats reports the index's current size.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	return s.backend.Stats(ctx)
}

// widen applies the filter-composition rule: a set UserID is replaced by the
// union {UserID, PublicUserID} so public content is always co-retrieved.
// All other fields pass through unchanged.
func widen(f Filter) QueryFilter {
	qf := QueryFilter{
		Category:      f.Category,
		MimeType:      f.MimeType,
		CreatedAfter:  f.CreatedAfter,
		CreatedBefore: f.CreatedBefore,
	}
	if f.UserID != "" {
		qf.UserIDs = []string{f.UserID, ragforge.PublicUserID}
	}
	return qf
}
