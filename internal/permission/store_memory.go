package permission

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"appaccounts/pkg/platform/sentinel"
)

type memoryKey struct {
	actorID uuid.UUID
	scopeID uuid.UUID
}

// MemoryGate is an in-process Gate for unit tests and local development.
type MemoryGate struct {
	mu    sync.RWMutex
	roles map[memoryKey]Role
}

func NewMemoryGate() *MemoryGate {
	return &MemoryGate{roles: make(map[memoryKey]Role)}
}

func (g *MemoryGate) HasPermission(_ context.Context, actorID, scopeID uuid.UUID, allowed ...Role) (bool, error) {
	g.mu.RLock()
	role, ok := g.roles[memoryKey{actorID, scopeID}]
	g.mu.RUnlock()
	if !ok {
		return false, nil
	}
	for _, r := range allowed {
		if role == r {
			return true, nil
		}
	}
	return false, nil
}

func (g *MemoryGate) GetRole(_ context.Context, actorID, scopeID uuid.UUID) (Role, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	role, ok := g.roles[memoryKey{actorID, scopeID}]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return role, nil
}

func (g *MemoryGate) SetRole(_ context.Context, actorID, scopeID uuid.UUID, role Role) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roles[memoryKey{actorID, scopeID}] = role
	return nil
}

func (g *MemoryGate) RemoveRole(_ context.Context, actorID, scopeID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.roles, memoryKey{actorID, scopeID})
	return nil
}

func (g *MemoryGate) BulkSetRoles(_ context.Context, grants []Grant) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, grant := range grants {
		g.roles[memoryKey{grant.ActorID, grant.ScopeID}] = grant.Role
	}
	return len(grants), nil
}

func (g *MemoryGate) PurgeScope(_ context.Context, scopeID uuid.UUID) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	deleted := 0
	for key := range g.roles {
		if key.scopeID == scopeID {
			delete(g.roles, key)
			deleted++
		}
	}
	return deleted, nil
}

func (g *MemoryGate) PurgeAll(_ context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	deleted := len(g.roles)
	g.roles = make(map[memoryKey]Role)
	return deleted, nil
}
