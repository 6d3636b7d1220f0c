package checkpoint

import (
	"context"
	"sync"

	"github.com/nevindra/ragforge"
)

// MemoryStore is an in-process Store used by tests and local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	byRun map[string]ragforge.Checkpoint
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byRun: make(map[string]ragforge.Checkpoint)}
}

func (s *MemoryStore) Save(ctx context.Context, cp ragforge.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRun[cp.RunID] = cp
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, runID string) (ragforge.Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.byRun[runID]
	return cp, ok, nil
}

var _ Store = (*MemoryStore)(nil)
