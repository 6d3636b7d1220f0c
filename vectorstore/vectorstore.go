// Package vectorstore defines the vector adapter contract: batched upsert,
// metadata-filtered similarity query, and stats, with the
// userId → {userId, PUBLIC_USER_ID} filter-widening rule applied uniformly
// regardless of backend.
package vectorstore

import (
	"context"
	"time"

	"github.com/nevindra/ragforge"
)

// Filter selects records by metadata, as submitted by a caller. Zero-value
// fields are unconstrained.
type Filter struct {
	UserID        string
	Category      string
	MimeType      string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// QueryFilter is the backend-facing, already-widened filter: UserID has been
// replaced by the set of ids to match against (normally {userId,
// PublicUserID}).
type QueryFilter struct {
	UserIDs       []string
	Category      string
	MimeType      string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// Match is one query result: a record id, its similarity score, and metadata.
type Match struct {
	ID       string
	Score    float32
	Metadata ragforge.VectorMeta
}

// Stats summarizes the index's current contents.
type Stats struct {
	VectorCount int
	Dimension   int
}

// Config holds the adapter's batching tunables.
type Config struct {
	MaxBatchSize  int
	RetryAttempts int
	RetryDelayMs  int
}

// DefaultConfig returns the documented defaults: batch 100, 3 retries,
// linear backoff.
func DefaultConfig() Config {
	return Config{MaxBatchSize: 100, RetryAttempts: 3, RetryDelayMs: 1000}
}

// Backend performs a single round-trip against the underlying index.
// Implementations: MemoryBackend in this package, and the qdrant subpackage.
type Backend interface {
	// UpsertBatch writes one batch (already size-bounded by the caller).
	UpsertBatch(ctx context.Context, records []ragforge.VectorRecord) error
	// Query runs a single similarity search with the already-widened filter.
	Query(ctx context.Context, vec []float32, filter QueryFilter, topK int) ([]Match, error)
	// Stats reports the index's current size.
	Stats(ctx context.Context) (Stats, error)
}
