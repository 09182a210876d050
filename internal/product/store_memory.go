package product

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
	rows map[uuid.UUID]Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]Product)}
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.rows[id]; ok {
		return &p, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) FindByBusinessKey(_ context.Context, scopeID uuid.UUID, key string, deleted bool, excludeID uuid.UUID) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rows {
		if p.AppAccountID == scopeID && p.ProductName == key && p.IsDeleted == deleted && p.ID != excludeID {
			row := p
			return &row, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) Insert(_ context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.AppAccountID == p.AppAccountID && existing.ProductName == p.ProductName && !existing.IsDeleted {
			return sentinel.ErrConflict
		}
	}
	s.rows[p.ID] = *p
	return nil
}

func (s *MemoryStore) Update(_ context.Context, p *Product) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[p.ID]; !ok {
		return 0, nil
	}
	s.rows[p.ID] = *p
	return 1, nil
}

func (s *MemoryStore) Page(_ context.Context, req lifecycle.PageRequest) ([]*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Product
	for _, p := range s.rows {
		if p.AppAccountID != req.ScopeID || p.IsDeleted {
			continue
		}
		if req.Status != lifecycle.FilterAny && string(p.Status) != string(req.Status) {
			continue
		}
		if req.Search != "" {
			needle := strings.ToLower(req.Search)
			if !strings.Contains(strings.ToLower(p.ProductName), needle) &&
				!strings.Contains(strings.ToLower(p.Category), needle) &&
				!strings.Contains(strings.ToLower(p.Note), needle) {
				continue
			}
		}
		if req.Cursor != nil {
			if req.Direction == lifecycle.DirectionPrevious {
				if !p.UpdatedAt.After(*req.Cursor) {
					continue
				}
			} else if !p.UpdatedAt.Before(*req.Cursor) {
				continue
			}
		}
		row := p
		out = append(out, &row)
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
