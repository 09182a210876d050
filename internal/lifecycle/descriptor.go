package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"appaccounts/internal/diff"
	"appaccounts/internal/permission"
)

// Descriptor parameterizes the engine for one entity type: how to read and
// write the fields the lifecycle contract cares about, without the engine
// knowing the entity's shape. Per-entity packages build one descriptor and
// hand it to NewEngine; everything else (ordering, auditing, publication,
// pagination semantics) is shared.
type Descriptor[E any] struct {
	// EntityType namespaces audit entries and notification topics,
	// e.g. "appAccountServiceType".
	EntityType string

	// Noun is the human-readable name used in error messages,
	// e.g. "service type".
	Noun string

	// KeyName is the business-key field name used in validation
	// messages, e.g. "typeName".
	KeyName string

	// AllowedRoles gate every mutating operation.
	AllowedRoles []permission.Role

	ID          func(*E) uuid.UUID
	SetID       func(*E, uuid.UUID)
	ScopeID     func(*E) uuid.UUID
	BusinessKey func(*E) string
	Status      func(*E) Status
	SetStatus   func(*E, Status)
	Deleted     func(*E) bool
	SetDeleted  func(*E, bool)
	UpdatedAt   func(*E) time.Time

	// Stamp records actor attribution and the update timestamp.
	Stamp func(*E, Actor, time.Time)

	// SetCreated stamps the creation timestamp on insert.
	SetCreated func(*E, time.Time)

	// AttachScope copies the resolved owning hierarchy onto a new row.
	AttachScope func(*E, Scope)

	// Snapshot returns the ordered field list used for diffing and audit
	// change descriptions. System fields are included; the diff engine
	// filters them.
	Snapshot func(*E) []diff.Field

	// Overwrite copies the draft's business fields onto a tombstoned row
	// during restore-on-recreate. Identity, scope, and createdAt stay.
	Overwrite func(dst *E, draft *E)
}

// Store is the transactional row store for one entity type.
// Implementations return sentinel errors; the engine translates them.
type Store[E any] interface {
	// FindByID returns the row regardless of tombstone state, or
	// sentinel.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*E, error)

	// FindByBusinessKey returns the row matching (scope, key) with the
	// given tombstone state, or sentinel.ErrNotFound. A non-nil
	// excludeID skips that row (uniqueness re-checks during update).
	FindByBusinessKey(ctx context.Context, scopeID uuid.UUID, key string, deleted bool, excludeID uuid.UUID) (*E, error)

	// Insert persists a new row; sentinel.ErrConflict when the business
	// key collides with a non-deleted row.
	Insert(ctx context.Context, entity *E) error

	// Update conditionally overwrites the row matching the entity's
	// primary key and returns the number of rows affected. Zero rows is
	// the optimistic-concurrency signal: the row vanished between load
	// and write.
	Update(ctx context.Context, entity *E) (int64, error)

	// Page returns one keyset page. The request is validated by the
	// engine before the store sees it.
	Page(ctx context.Context, req PageRequest) ([]*E, error)
}

// ScopeResolver resolves the owning account hierarchy during create.
type ScopeResolver interface {
	// ResolveScope returns the scope's hierarchy identifiers and active
	// flag, or sentinel.ErrNotFound.
	ResolveScope(ctx context.Context, scopeID uuid.UUID) (Scope, error)
}
