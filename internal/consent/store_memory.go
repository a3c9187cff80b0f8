package consent

import (
	"context"
	"sync"
)

// MemoryStore keeps consent records in process memory. Used in tests and
// single-node development setups.
type MemoryStore struct {
	mu       sync.RWMutex
	consents map[string]map[string]string // hashedUserID -> targetedID -> attributeHash
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{consents: make(map[string]map[string]string)}
}

func (s *MemoryStore) GetConsents(_ context.Context, hashedUserID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	partition := s.consents[hashedUserID]
	records := make([]Record, 0, len(partition))
	for targetedID, attributeHash := range partition {
		records = append(records, Record{TargetedID: targetedID, AttributeHash: attributeHash})
	}
	return records, nil
}

func (s *MemoryStore) SaveConsent(_ context.Context, hashedUserID, targetedID, attributeHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	partition := s.consents[hashedUserID]
	if partition == nil {
		partition = make(map[string]string)
		s.consents[hashedUserID] = partition
	}
	partition[targetedID] = attributeHash
	return nil
}

func (s *MemoryStore) DeleteConsent(_ context.Context, hashedUserID, targetedID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	partition := s.consents[hashedUserID]
	if _, ok := partition[targetedID]; !ok {
		return 0, nil
	}
	delete(partition, targetedID)
	return 1, nil
}
