package vectorstore

import (
	"context"
	"testing"

	"github.com/nevindra/ragforge"
)

func rec(id, userID string, vals []float32) ragforge.VectorRecord {
	return ragforge.VectorRecord{ID: id, Values: vals, Metadata: ragforge.VectorMeta{UserID: userID, ContentID: "c1"}}
}

func TestUpsertIdempotence(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend, DefaultConfig(), nil)
	ctx := context.Background()

	r := rec("content:c1:0", "u1", []float32{1, 0, 0})
	if err := s.Upsert(ctx, []ragforge.VectorRecord{r}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats1, _ := s.Stats(ctx)

	if err := s.Upsert(ctx, []ragforge.VectorRecord{r}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats2, _ := s.Stats(ctx)

	if stats1.VectorCount != stats2.VectorCount {
		t.Errorf("expected idempotent upsert, counts %d != %d", stats1.VectorCount, stats2.VectorCount)
	}
}

func TestFilterSafetyWidensToPublic(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend, DefaultConfig(), nil)
	ctx := context.Background()

	records := []ragforge.VectorRecord{
		rec("content:c1:0", "u1", []float32{1, 0}),
		rec("content:c2:0", "u2", []float32{1, 0}),
		rec("content:c3:0", ragforge.PublicUserID, []float32{1, 0}),
	}
	if err := s.Upsert(ctx, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err := s.Query(ctx, []float32{1, 0}, Filter{UserID: "u1"}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, m := range matches {
		if m.Metadata.UserID != "u1" && m.Metadata.UserID != ragforge.PublicUserID {
			t.Errorf("query for u1 returned foreign record: %+v", m)
		}
	}
	if len(matches) != 2 {
		t.Errorf("expected u1's record + public record, got %d matches", len(matches))
	}
}

func TestUpsertBatching(t *testing.T) {
	backend := NewMemoryBackend()
	cfg := DefaultConfig()
	cfg.MaxBatchSize = 2
	s := New(backend, cfg, nil)
	ctx := context.Background()

	var records []ragforge.VectorRecord
	for i := 0; i < 5; i++ {
		records = append(records, rec(ragforge.VectorID("c1", uint32(i)), "u1", []float32{1, 0}))
	}
	if err := s.Upsert(ctx, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats, _ := s.Stats(ctx)
	if stats.VectorCount != 5 {
		t.Errorf("expected 5 records across batches, got %d", stats.VectorCount)
	}
}

func TestQueryTopKClamped(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend, DefaultConfig(), nil)
	ctx := context.Background()
	s.Upsert(ctx, []ragforge.VectorRecord{rec("content:c1:0", "u1", []float32{1})})

	matches, err := s.Query(ctx, []float32{1}, Filter{UserID: "u1"}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected topK clamped to at least 1, got %d matches", len(matches))
	}
}
