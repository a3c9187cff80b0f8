package audit

import (
	"context"
	"sync"
)

// MemoryStore keeps events in process memory. Used in tests and in
// deployments without a Kafka sink.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event // hashedUserID -> events
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string][]Event)}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.HashedUserID] = append(s.events[event.HashedUserID], event)
	return nil
}

// ListByUser returns the events recorded for one user partition.
func (s *MemoryStore) ListByUser(_ context.Context, hashedUserID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[hashedUserID]...), nil
}
