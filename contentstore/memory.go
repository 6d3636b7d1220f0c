package contentstore

import (
	"context"
	"sync"

	"github.com/nevindra/ragforge"
)

// MemoryStore is an in-process Store used by tests and local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]ragforge.ContentItem
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]ragforge.ContentItem)}
}

// Put inserts or replaces an item, for test setup.
func (s *MemoryStore) Put(item ragforge.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *MemoryStore) Get(ctx context.Context, id string) (ragforge.ContentItem, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok, nil
}

var _ Store = (*MemoryStore)(nil)
