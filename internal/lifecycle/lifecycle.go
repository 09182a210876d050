// Package lifecycle is the versioned-entity engine: one generic
// implementation of the create / update / status-change / soft-delete /
// restore state machine that every mutable entity shares.
//
// State machine per entity:
//
//	nonexistent → active ⇄ inactive → deleted
//
// with deleted → active reachable only through restore-on-recreate, and
// deleted reachable only from inactive.
//
// Every mutation follows the same ordering contract: load and validate
// preconditions, permission check, uniqueness and business rules, persist,
// diff against the pre-image, append the audit entry, publish the change
// event, return the post-image. Steps after persist run only once persist
// has reported at least one affected row; the engine never retries.
package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

// Status is an entity's transitional state. Deletion is a tombstone flag,
// not a status value.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Transitional reports whether s is a value an entity may be moved to.
func (s Status) Transitional() bool {
	return s == StatusActive || s == StatusInactive
}

// Actor is the attribution pair stamped onto mutated rows and audit
// entries.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// Scope is the owning account hierarchy an entity is created under.
type Scope struct {
	ID              uuid.UUID
	AdminAppID      uuid.UUID
	AdminCustomerID uuid.UUID
	Active          bool
}

// Stamped is the envelope every lifecycle entity embeds.
type Stamped struct {
	ActionByID   uuid.UUID
	ActionByName string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsDeleted    bool
}
