package servicetype

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"appaccounts/internal/lifecycle"
	"appaccounts/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store used by unit tests.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]ServiceType
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]ServiceType)}
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*ServiceType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.rows[id]; ok {
		return &t, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) FindByBusinessKey(_ context.Context, scopeID uuid.UUID, key string, deleted bool, excludeID uuid.UUID) (*ServiceType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.rows {
		if t.AppAccountID == scopeID && t.TypeName == key && t.IsDeleted == deleted && t.ID != excludeID {
			row := t
			return &row, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) Insert(_ context.Context, t *ServiceType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.AppAccountID == t.AppAccountID && existing.TypeName == t.TypeName && !existing.IsDeleted {
			return sentinel.ErrConflict
		}
	}
	s.rows[t.ID] = *t
	return nil
}

func (s *MemoryStore) Update(_ context.Context, t *ServiceType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[t.ID]; !ok {
		return 0, nil
	}
	s.rows[t.ID] = *t
	return 1, nil
}

func (s *MemoryStore) Page(_ context.Context, req lifecycle.PageRequest) ([]*ServiceType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match := func(t ServiceType) bool {
		if t.AppAccountID != req.ScopeID || t.IsDeleted {
			return false
		}
		if req.Status != lifecycle.FilterAny && string(t.Status) != string(req.Status) {
			return false
		}
		if req.Search != "" {
			needle := strings.ToLower(req.Search)
			if !strings.Contains(strings.ToLower(t.TypeName), needle) &&
				!strings.Contains(strings.ToLower(t.Category), needle) &&
				!strings.Contains(strings.ToLower(t.Note), needle) {
				return false
			}
		}
		if req.Cursor != nil {
			if req.Direction == lifecycle.DirectionPrevious {
				return t.UpdatedAt.After(*req.Cursor)
			}
			return t.UpdatedAt.Before(*req.Cursor)
		}
		return true
	}

	var out []*ServiceType
	for _, t := range s.rows {
		if match(t) {
			row := t
			out = append(out, &row)
		}
	}
	ascending := req.Direction == lifecycle.DirectionPrevious && req.Cursor != nil
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}
