// Package audit is the append-only log of entity mutations. One entry per
// mutation, never updated or deleted; the log is the durable record of who
// changed what, even when a change notification is lost.
package audit

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of mutation an entry records.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionRestore Action = "restore"
	ActionDelete  Action = "delete"
)

// RecentLimit caps RecentChanges result sets.
const RecentLimit = 100

// Entry is one immutable audit record. The composite key
// (EntityType, ItemID, ActionAt, Tiebreaker) stays unique even when two
// entries for the same entity are created in the same millisecond.
type Entry struct {
	EntityType string
	ItemID     uuid.UUID
	ActionAt   time.Time
	Tiebreaker int
	Action     Action
	Changes    []string
	ActorID    uuid.UUID
	ActorName  string
}

// Recorder persists audit entries and serves the per-entity history view.
type Recorder interface {
	// Record appends one entry. ActionAt and Tiebreaker are filled when
	// zero.
	Record(ctx context.Context, entry Entry) error

	// RecentChanges returns up to RecentLimit entries for the entity,
	// most recent first.
	RecentChanges(ctx context.Context, entityType string, itemID uuid.UUID) ([]Entry, error)
}

// NewTiebreaker returns a random 8-digit component for the composite key.
func NewTiebreaker() int {
	return rand.IntN(90000000) + 10000000
}
