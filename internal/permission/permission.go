// Package permission answers "can this actor perform a role-gated action on
// this scope" from a fast external key-value cache.
//
// The cache is an authorization read model, not the source of truth for
// membership; a miss and a role mismatch are both "forbidden".
package permission

import (
	"context"

	"github.com/google/uuid"
)

// Role is an actor's role within one app account.
type Role string

const (
	RoleAccountAdmin Role = "account-admin"
	RoleAccountUser  Role = "account-user"
)

// AdminRoles is the role set required for entity lifecycle mutations.
var AdminRoles = []Role{RoleAccountAdmin}

// Grant maps an actor to a role within a scope, for bulk provisioning.
type Grant struct {
	ActorID uuid.UUID
	ScopeID uuid.UUID
	Role    Role
}

// Gate checks and provisions (actor, scope) -> role mappings.
type Gate interface {
	// HasPermission reports whether the actor's cached role for the scope
	// is one of the allowed roles. A cache miss is false, not an error.
	HasPermission(ctx context.Context, actorID, scopeID uuid.UUID, allowed ...Role) (bool, error)

	// GetRole returns the actor's role for the scope, or
	// sentinel.ErrNotFound on a miss.
	GetRole(ctx context.Context, actorID, scopeID uuid.UUID) (Role, error)

	SetRole(ctx context.Context, actorID, scopeID uuid.UUID, role Role) error
	RemoveRole(ctx context.Context, actorID, scopeID uuid.UUID) error

	// BulkSetRoles provisions many grants in one round trip and returns
	// the number written.
	BulkSetRoles(ctx context.Context, grants []Grant) (int, error)

	// PurgeScope removes every grant for the scope and returns the number
	// of keys deleted.
	PurgeScope(ctx context.Context, scopeID uuid.UUID) (int, error)

	// PurgeAll removes every grant in the namespace.
	PurgeAll(ctx context.Context) (int, error)
}
