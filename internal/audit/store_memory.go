package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryKey struct {
	entityType string
	itemID     uuid.UUID
}

// MemoryStore is an in-process Recorder for unit tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[memoryKey][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[memoryKey][]Entry)}
}

func (s *MemoryStore) Record(_ context.Context, entry Entry) error {
	if entry.ActionAt.IsZero() {
		entry.ActionAt = time.Now()
	}
	if entry.Tiebreaker == 0 {
		entry.Tiebreaker = NewTiebreaker()
	}
	if entry.Changes == nil {
		entry.Changes = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey{entry.EntityType, entry.ItemID}
	s.entries[key] = append(s.entries[key], entry)
	return nil
}

func (s *MemoryStore) RecentChanges(_ context.Context, entityType string, itemID uuid.UUID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.entries[memoryKey{entityType, itemID}]
	out := append([]Entry{}, stored...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ActionAt.After(out[j].ActionAt)
	})
	if len(out) > RecentLimit {
		out = out[:RecentLimit]
	}
	return out, nil
}

// All returns every entry for the entity in insertion order. Test helper.
func (s *MemoryStore) All(entityType string, itemID uuid.UUID) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries[memoryKey{entityType, itemID}]...)
}
