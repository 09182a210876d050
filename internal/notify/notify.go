// Package notify broadcasts one structured event per entity mutation to a
// topic scoped by the owning account.
//
// The channel is best-effort, at-most-once: the lifecycle engine logs
// publish failures and moves on, because the audit log is the durable
// record of what happened.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"appaccounts/internal/audit"
)

// Event is the ephemeral payload broadcast to subscribers. It exists only
// for the duration of the publish call.
type Event struct {
	EntityType string
	ScopeID    uuid.UUID
	Action     audit.Action
	Item       any
	Changes    []string
}

// Topic returns the per-entity-type, per-scope topic name.
func (e Event) Topic() string {
	return fmt.Sprintf("%s_%s", e.EntityType, e.ScopeID)
}

// Notifier publishes change events. Implementations must not block on
// subscriber acknowledgement.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}
