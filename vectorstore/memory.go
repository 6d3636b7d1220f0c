package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/nevindra/ragforge"
)

// MemoryBackend is an in-process Backend used by tests and local runs. It
// performs brute-force cosine similarity.
type MemoryBackend struct {
	mu   sync.RWMutex
	recs map[string]ragforge.VectorRecord
	dim  int
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{recs: make(map[string]ragforge.VectorRecord)}
}

func (m *MemoryBackend) UpsertBatch(ctx context.Context, records []ragforge.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.recs[r.ID] = r
		if len(r.Values) > m.dim {
			m.dim = len(r.Values)
		}
	}
	return nil
}

func (m *MemoryBackend) Query(ctx context.Context, vec []float32, filter QueryFilter, topK int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, r := range m.recs {
		if !matchesFilter(r.Metadata, filter) {
			continue
		}
		matches = append(matches, Match{ID: r.ID, Score: cosine(vec, r.Values), Metadata: r.Metadata})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *MemoryBackend) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{VectorCount: len(m.recs), Dimension: m.dim}, nil
}

func matchesFilter(meta ragforge.VectorMeta, f QueryFilter) bool {
	if len(f.UserIDs) > 0 && !contains(f.UserIDs, meta.UserID) {
		return false
	}
	if f.Category != "" && f.Category != meta.Category {
		return false
	}
	if f.MimeType != "" && f.MimeType != meta.MimeType {
		return false
	}
	if f.CreatedAfter != nil && meta.CreatedAt < f.CreatedAfter.Unix() {
		return false
	}
	if f.CreatedBefore != nil && meta.CreatedAt > f.CreatedBefore.Unix() {
		return false
	}
	return true
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func cosine(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

var _ Backend = (*MemoryBackend)(nil)
