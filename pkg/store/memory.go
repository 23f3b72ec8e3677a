package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps saved layouts in process memory. Safe for concurrent
// use; contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	layouts map[string]SavedLayout
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{layouts: make(map[string]SavedLayout)}
}

func (s *MemoryStore) Get(_ context.Context, flowchartID string) (SavedLayout, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	saved, ok := s.layouts[flowchartID]
	return saved, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, saved SavedLayout) error {
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts[saved.FlowchartID] = saved
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, flowchartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layouts, flowchartID)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]SavedLayout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]SavedLayout, 0, len(s.layouts))
	for _, saved := range s.layouts {
		all = append(all, saved)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].FlowchartID < all[j].FlowchartID
	})
	return all, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }
