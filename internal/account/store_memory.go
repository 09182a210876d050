package account

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"appaccounts/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store used by unit tests.
type MemoryStore struct {
	mu          sync.Mutex
	accounts    map[uuid.UUID]AppAccount
	memberships map[uuid.UUID]Membership

	failInsertMembership bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:    make(map[uuid.UUID]AppAccount),
		memberships: make(map[uuid.UUID]Membership),
	}
}

// FailInsertMembership makes the next membership insert fail, for
// transaction rollback tests.
func (s *MemoryStore) FailInsertMembership() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failInsertMembership = true
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*AppAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[id]; ok {
		return &acct, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) Insert(_ context.Context, acct *AppAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acct.ID]; ok {
		return sentinel.ErrConflict
	}
	s.accounts[acct.ID] = *acct
	return nil
}

func (s *MemoryStore) Update(_ context.Context, acct *AppAccount) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acct.ID]; !ok {
		return 0, nil
	}
	s.accounts[acct.ID] = *acct
	return 1, nil
}

func (s *MemoryStore) InsertMembership(_ context.Context, m *Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsertMembership {
		s.failInsertMembership = false
		return sentinel.ErrConflict
	}
	s.memberships[m.ID] = *m
	return nil
}

func (s *MemoryStore) Memberships(_ context.Context, accountID uuid.UUID) ([]*Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Membership
	for _, m := range s.memberships {
		if m.AppAccountID == accountID && !m.IsDeleted {
			row := m
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
