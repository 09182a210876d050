package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"appaccounts/internal/audit"
	"appaccounts/internal/diff"
	"appaccounts/internal/notify"
	"appaccounts/internal/permission"
	"appaccounts/internal/platform/metrics"
	dErrors "appaccounts/pkg/domain-errors"
	"appaccounts/pkg/platform/sentinel"
	"appaccounts/pkg/requestcontext"
)

// Engine runs the shared lifecycle contract for one entity type. It owns
// the mutation ordering; the descriptor and store own the entity's shape.
type Engine[E any] struct {
	desc     Descriptor[E]
	store    Store[E]
	gate     PermissionChecker
	recorder audit.Recorder
	scopes   ScopeResolver

	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// PermissionChecker is the slice of permission.Gate the engine needs.
type PermissionChecker interface {
	HasPermission(ctx context.Context, actorID, scopeID uuid.UUID, allowed ...permission.Role) (bool, error)
}

// Option configures optional engine collaborators.
type Option[E any] func(*Engine[E])

// WithNotifier attaches a change-event publisher. Publish failures are
// logged, never returned: the audit log is the durable record.
func WithNotifier[E any](n notify.Notifier) Option[E] {
	return func(e *Engine[E]) { e.notifier = n }
}

// WithLogger overrides the default logger.
func WithLogger[E any](l *slog.Logger) Option[E] {
	return func(e *Engine[E]) { e.logger = l }
}

// WithMetrics attaches mutation and page-latency instruments.
func WithMetrics[E any](m *metrics.Metrics) Option[E] {
	return func(e *Engine[E]) { e.metrics = m }
}

// NewEngine wires a lifecycle engine for one entity type.
func NewEngine[E any](desc Descriptor[E], store Store[E], gate PermissionChecker, recorder audit.Recorder, scopes ScopeResolver, opts ...Option[E]) *Engine[E] {
	e := &Engine[E]{
		desc:     desc,
		store:    store,
		gate:     gate,
		recorder: recorder,
		scopes:   scopes,
		logger:   slog.Default(),
		tracer:   otel.Tracer("lifecycle"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create inserts a new entity, or restores a tombstoned row carrying the
// same business key within the scope. On restore the row keeps its
// identity and creation timestamp, the draft's business fields overwrite
// the old ones, and the status is forced to active regardless of the
// draft's status.
func (e *Engine[E]) Create(ctx context.Context, draft *E, actor Actor) (*E, error) {
	ctx, span := e.tracer.Start(ctx, e.desc.EntityType+".Create")
	defer span.End()

	scopeID := e.desc.ScopeID(draft)
	key := e.desc.BusinessKey(draft)
	if scopeID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "appAccountId is required")
	}
	if key == "" {
		return nil, dErrors.Newf(dErrors.CodeValidation, "%s is required", e.desc.KeyName)
	}
	if st := e.desc.Status(draft); st != "" && !st.Transitional() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid status %q", st)
	}

	if err := e.requirePermission(ctx, actor, scopeID); err != nil {
		return nil, err
	}

	if _, err := e.store.FindByBusinessKey(ctx, scopeID, key, false, uuid.Nil); err == nil {
		return nil, dErrors.Newf(dErrors.CodeValidation, "%s %q already exists", e.desc.Noun, key)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "checking "+e.desc.KeyName)
	}

	tombstone, err := e.store.FindByBusinessKey(ctx, scopeID, key, true, uuid.Nil)
	switch {
	case err == nil:
		return e.restore(ctx, tombstone, draft, actor)
	case errors.Is(err, sentinel.ErrNotFound):
		// fresh insert below
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "checking tombstones")
	}

	scope, err := e.scopes.ResolveScope(ctx, scopeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeIntegrity, "app account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolving app account")
	}
	if !scope.Active {
		return nil, dErrors.New(dErrors.CodeIntegrity, "app account is not active")
	}

	now := requestcontext.Now(ctx)
	e.desc.AttachScope(draft, scope)
	e.desc.SetID(draft, uuid.New())
	e.desc.SetDeleted(draft, false)
	if e.desc.Status(draft) == "" {
		e.desc.SetStatus(draft, StatusActive)
	}
	e.desc.SetCreated(draft, now)
	e.desc.Stamp(draft, actor, now)

	if err := e.store.Insert(ctx, draft); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s %q already exists", e.desc.Noun, key)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "inserting "+e.desc.Noun)
	}

	if err := e.record(ctx, draft, audit.ActionCreate, nil, actor, now); err != nil {
		return nil, err
	}
	e.publish(ctx, draft, audit.ActionCreate, nil)
	e.metrics.RecordMutation(e.desc.EntityType, string(audit.ActionCreate))
	span.SetAttributes(attribute.String("entity.id", e.desc.ID(draft).String()))
	return draft, nil
}

// restore revives a tombstoned row in place of inserting a duplicate.
func (e *Engine[E]) restore(ctx context.Context, row *E, draft *E, actor Actor) (*E, error) {
	now := requestcontext.Now(ctx)
	e.desc.Overwrite(row, draft)
	e.desc.SetDeleted(row, false)
	e.desc.SetStatus(row, StatusActive)
	e.desc.Stamp(row, actor, now)

	if err := e.persist(ctx, row); err != nil {
		return nil, err
	}
	if err := e.record(ctx, row, audit.ActionRestore, nil, actor, now); err != nil {
		return nil, err
	}
	e.publish(ctx, row, audit.ActionRestore, nil)
	e.metrics.RecordMutation(e.desc.EntityType, string(audit.ActionRestore))
	return row, nil
}

// Update loads the current row, applies the caller's mutation to a copy,
// re-checks business-key uniqueness, persists, and records the structural
// diff between pre-image and post-image.
func (e *Engine[E]) Update(ctx context.Context, id uuid.UUID, actor Actor, apply func(*E) error) (*E, error) {
	ctx, span := e.tracer.Start(ctx, e.desc.EntityType+".Update")
	defer span.End()

	current, err := e.loadForMutation(ctx, id)
	if err != nil {
		return nil, err
	}
	scopeID := e.desc.ScopeID(current)
	if err := e.requirePermission(ctx, actor, scopeID); err != nil {
		return nil, err
	}

	before := e.desc.Snapshot(current)

	next := *current
	if err := apply(&next); err != nil {
		return nil, err
	}
	if st := e.desc.Status(&next); !st.Transitional() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid status %q", st)
	}

	key := e.desc.BusinessKey(&next)
	if key == "" {
		return nil, dErrors.Newf(dErrors.CodeValidation, "%s is required", e.desc.KeyName)
	}
	if key != e.desc.BusinessKey(current) {
		if _, err := e.store.FindByBusinessKey(ctx, scopeID, key, false, id); err == nil {
			return nil, dErrors.Newf(dErrors.CodeValidation, "%s %q already exists", e.desc.Noun, key)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "checking "+e.desc.KeyName)
		}
	}

	now := requestcontext.Now(ctx)
	e.desc.Stamp(&next, actor, now)

	if err := e.persist(ctx, &next); err != nil {
		return nil, err
	}

	result := diff.Compare(before, e.desc.Snapshot(&next))
	var changes []string
	if result != nil && !result.NoChanges {
		changes = result.Entries
	}
	if err := e.record(ctx, &next, audit.ActionUpdate, changes, actor, now); err != nil {
		return nil, err
	}
	e.publish(ctx, &next, audit.ActionUpdate, changes)
	e.metrics.RecordMutation(e.desc.EntityType, string(audit.ActionUpdate))
	return &next, nil
}

// UpdateStatus moves the entity between active and inactive.
func (e *Engine[E]) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, actor Actor) (*E, error) {
	if !status.Transitional() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid status %q", status)
	}
	return e.Update(ctx, id, actor, func(entity *E) error {
		e.desc.SetStatus(entity, status)
		return nil
	})
}

// SoftDelete tombstones the entity. The row must already be inactive.
func (e *Engine[E]) SoftDelete(ctx context.Context, id uuid.UUID, actor Actor) (*E, error) {
	ctx, span := e.tracer.Start(ctx, e.desc.EntityType+".SoftDelete")
	defer span.End()

	current, err := e.loadForMutation(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.desc.Status(current) != StatusInactive {
		return nil, dErrors.Newf(dErrors.CodeIntegrity, "%s must be inactive before deletion", e.desc.Noun)
	}
	if err := e.requirePermission(ctx, actor, e.desc.ScopeID(current)); err != nil {
		return nil, err
	}

	before := e.desc.Snapshot(current)

	now := requestcontext.Now(ctx)
	next := *current
	e.desc.SetDeleted(&next, true)
	e.desc.Stamp(&next, actor, now)

	if err := e.persist(ctx, &next); err != nil {
		return nil, err
	}

	result := diff.Compare(before, e.desc.Snapshot(&next))
	var changes []string
	if result != nil && !result.NoChanges {
		changes = result.Entries
	}
	if err := e.record(ctx, &next, audit.ActionDelete, changes, actor, now); err != nil {
		return nil, err
	}
	e.publish(ctx, &next, audit.ActionDelete, changes)
	e.metrics.RecordMutation(e.desc.EntityType, string(audit.ActionDelete))
	return &next, nil
}

// GetByID returns the entity, tombstoned rows included.
func (e *Engine[E]) GetByID(ctx context.Context, id uuid.UUID) (*E, error) {
	return e.load(ctx, id)
}

// RecentChanges returns the entity's audit history, most recent first.
func (e *Engine[E]) RecentChanges(ctx context.Context, id uuid.UUID) ([]audit.Entry, error) {
	entries, err := e.recorder.RecentChanges(ctx, e.desc.EntityType, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading change history")
	}
	return entries, nil
}

// Page returns one keyset page. Previous-direction results are re-sorted
// so callers always see descending updatedAt order.
func (e *Engine[E]) Page(ctx context.Context, req PageRequest) ([]*E, error) {
	ctx, span := e.tracer.Start(ctx, e.desc.EntityType+".Page")
	defer span.End()

	if err := req.normalize(); err != nil {
		return nil, err
	}

	start := time.Now()
	items, err := e.store.Page(ctx, req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "paging "+e.desc.Noun+"s")
	}
	e.metrics.ObservePageDuration(e.desc.EntityType, time.Since(start).Seconds())

	if req.Direction == DirectionPrevious {
		sortDescending(items, e.desc.UpdatedAt)
	}
	return items, nil
}

func (e *Engine[E]) load(ctx context.Context, id uuid.UUID) (*E, error) {
	if id == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "id is required")
	}
	entity, err := e.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "%s not found", e.desc.Noun)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading "+e.desc.Noun)
	}
	return entity, nil
}

// loadForMutation rejects rows that cannot be written: an absent or
// tombstoned row means the caller's view is stale.
func (e *Engine[E]) loadForMutation(ctx context.Context, id uuid.UUID) (*E, error) {
	if id == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "id is required")
	}
	entity, err := e.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeIntegrity, "%s not found", e.desc.Noun)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading "+e.desc.Noun)
	}
	if e.desc.Deleted(entity) {
		return nil, dErrors.Newf(dErrors.CodeIntegrity, "%s has been deleted", e.desc.Noun)
	}
	return entity, nil
}

func (e *Engine[E]) requirePermission(ctx context.Context, actor Actor, scopeID uuid.UUID) error {
	if actor.ID == uuid.Nil {
		return dErrors.New(dErrors.CodeAuth, "actor is not authenticated")
	}
	ok, err := e.gate.HasPermission(ctx, actor.ID, scopeID, e.desc.AllowedRoles...)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "checking permission")
	}
	if !ok {
		e.metrics.RecordPermissionDenial(e.desc.EntityType)
		return dErrors.Newf(dErrors.CodePermission, "not allowed to manage %ss for this app account", e.desc.Noun)
	}
	return nil
}

// persist writes the row conditionally on its primary key. Zero affected
// rows means the row vanished between load and write.
func (e *Engine[E]) persist(ctx context.Context, entity *E) error {
	affected, err := e.store.Update(ctx, entity)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "updating "+e.desc.Noun)
	}
	if affected == 0 {
		return dErrors.Newf(dErrors.CodeIntegrity, "%s was modified concurrently", e.desc.Noun)
	}
	return nil
}

func (e *Engine[E]) record(ctx context.Context, entity *E, action audit.Action, changes []string, actor Actor, at time.Time) error {
	err := e.recorder.Record(ctx, audit.Entry{
		EntityType: e.desc.EntityType,
		ItemID:     e.desc.ID(entity),
		ActionAt:   at,
		Action:     action,
		Changes:    changes,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "recording audit entry")
	}
	return nil
}

// publish is best-effort: a lost notification is logged, not surfaced,
// because the audit log already holds the durable record.
func (e *Engine[E]) publish(ctx context.Context, entity *E, action audit.Action, changes []string) {
	if e.notifier == nil {
		return
	}
	event := notify.Event{
		EntityType: e.desc.EntityType,
		ScopeID:    e.desc.ScopeID(entity),
		Action:     action,
		Item:       entity,
		Changes:    changes,
	}
	if err := e.notifier.Publish(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "change notification failed",
			slog.String("entity_type", e.desc.EntityType),
			slog.String("topic", event.Topic()),
			slog.Any("error", err))
	}
}
