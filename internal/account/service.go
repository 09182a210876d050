package account

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"appaccounts/internal/audit"
	"appaccounts/internal/diff"
	"appaccounts/internal/lifecycle"
	"appaccounts/internal/permission"
	"appaccounts/internal/platform/metrics"
	dErrors "appaccounts/pkg/domain-errors"
	"appaccounts/pkg/platform/sentinel"
	txcontext "appaccounts/pkg/platform/tx"
	"appaccounts/pkg/requestcontext"
	"appaccounts/pkg/sanitize"
)

// EntityType namespaces account audit entries.
const EntityType = "appAccount"

// Service owns app account creation and status transitions. Account create
// is the one multi-row write in the system: the account and the creator's
// membership land in a single transaction.
type Service struct {
	db       *sql.DB
	store    Store
	gate     permission.Gate
	recorder audit.Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the account service. db may be nil when the store is
// non-transactional (unit tests); writes then run without an ambient
// transaction.
func NewService(db *sql.DB, store Store, gate permission.Gate, recorder audit.Recorder, opts ...Option) *Service {
	s := &Service{
		db:       db,
		store:    store,
		gate:     gate,
		recorder: recorder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput is the payload for account creation.
type CreateInput struct {
	AdminAppID      uuid.UUID
	AdminCustomerID uuid.UUID
	Title           string
}

// Create inserts the account and the creator's admin membership in one
// transaction, then provisions the creator's role in the permission cache.
func (s *Service) Create(ctx context.Context, input CreateInput, actor lifecycle.Actor) (*AppAccount, error) {
	if actor.ID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeAuth, "actor is not authenticated")
	}
	title := sanitize.String(input.Title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if input.AdminAppID == uuid.Nil || input.AdminCustomerID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "adminAppId and adminCustomerId are required")
	}

	now := requestcontext.Now(ctx)
	acct := &AppAccount{
		ID:              uuid.New(),
		AdminAppID:      input.AdminAppID,
		AdminCustomerID: input.AdminCustomerID,
		Title:           title,
		Status:          lifecycle.StatusActive,
		Stamped: lifecycle.Stamped{
			ActionByID:   actor.ID,
			ActionByName: actor.Name,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
	membership := &Membership{
		ID:              uuid.New(),
		AdminAppID:      input.AdminAppID,
		AdminCustomerID: input.AdminCustomerID,
		AppAccountID:    acct.ID,
		LoginUserID:     actor.ID,
		UserFullName:    actor.Name,
		Role:            permission.RoleAccountAdmin,
		Status:          lifecycle.StatusActive,
		Stamped:         acct.Stamped,
	}

	err := s.withTx(ctx, func(ctx context.Context) error {
		if err := s.store.Insert(ctx, acct); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "inserting app account")
		}
		if err := s.store.InsertMembership(ctx, membership); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "inserting creator membership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The cache is a read model over membership rows; a failed write here
	// is recoverable through ProvisionPermissions, so the create stands.
	if err := s.gate.SetRole(ctx, actor.ID, acct.ID, permission.RoleAccountAdmin); err != nil {
		s.logger.WarnContext(ctx, "provisioning creator role failed",
			slog.String("app_account_id", acct.ID.String()),
			slog.Any("error", err))
	}

	if err := s.record(ctx, acct, audit.ActionCreate, nil, actor, now); err != nil {
		return nil, err
	}
	s.metrics.RecordMutation(EntityType, string(audit.ActionCreate))
	return acct, nil
}

// GetByID returns the account, tombstoned rows included.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*AppAccount, error) {
	return s.load(ctx, id)
}

// Memberships returns the account's non-deleted memberships.
func (s *Service) Memberships(ctx context.Context, accountID uuid.UUID) ([]*Membership, error) {
	members, err := s.store.Memberships(ctx, accountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading memberships")
	}
	return members, nil
}

// ProvisionPermissions rebuilds the permission cache for one account from
// its membership rows and returns the number of grants written.
func (s *Service) ProvisionPermissions(ctx context.Context, accountID uuid.UUID) (int, error) {
	members, err := s.store.Memberships(ctx, accountID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "loading memberships")
	}
	grants := make([]permission.Grant, 0, len(members))
	for _, m := range members {
		grants = append(grants, permission.Grant{
			ActorID: m.LoginUserID,
			ScopeID: m.AppAccountID,
			Role:    m.Role,
		})
	}
	written, err := s.gate.BulkSetRoles(ctx, grants)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "writing permission grants")
	}
	return written, nil
}

// Deactivate moves the account to inactive, blocking sub-entity creation.
// Membership roles stay cached so reactivation restores access untouched.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) (*AppAccount, error) {
	return s.setStatus(ctx, id, lifecycle.StatusInactive, actor)
}

// Reactivate moves the account back to active.
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID, actor lifecycle.Actor) (*AppAccount, error) {
	return s.setStatus(ctx, id, lifecycle.StatusActive, actor)
}

// ResolveScope implements lifecycle.ScopeResolver. Tombstoned accounts
// resolve as not found.
func (s *Service) ResolveScope(ctx context.Context, scopeID uuid.UUID) (lifecycle.Scope, error) {
	acct, err := s.store.FindByID(ctx, scopeID)
	if err != nil {
		return lifecycle.Scope{}, err
	}
	if acct.IsDeleted {
		return lifecycle.Scope{}, sentinel.ErrNotFound
	}
	return lifecycle.Scope{
		ID:              acct.ID,
		AdminAppID:      acct.AdminAppID,
		AdminCustomerID: acct.AdminCustomerID,
		Active:          acct.Status == lifecycle.StatusActive,
	}, nil
}

func (s *Service) setStatus(ctx context.Context, id uuid.UUID, status lifecycle.Status, actor lifecycle.Actor) (*AppAccount, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsDeleted {
		return nil, dErrors.New(dErrors.CodeIntegrity, "app account is deleted")
	}
	if err := s.requireAdmin(ctx, actor, id); err != nil {
		return nil, err
	}

	before := snapshot(current)
	now := requestcontext.Now(ctx)

	next := *current
	next.Status = status
	next.ActionByID = actor.ID
	next.ActionByName = actor.Name
	next.UpdatedAt = now

	affected, err := s.store.Update(ctx, &next)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "updating app account")
	}
	if affected == 0 {
		return nil, dErrors.New(dErrors.CodeIntegrity, "app account was modified concurrently")
	}

	result := diff.Compare(before, snapshot(&next))
	var changes []string
	if result != nil && !result.NoChanges {
		changes = result.Entries
	}
	if err := s.record(ctx, &next, audit.ActionUpdate, changes, actor, now); err != nil {
		return nil, err
	}
	s.metrics.RecordMutation(EntityType, string(audit.ActionUpdate))
	return &next, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*AppAccount, error) {
	if id == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeValidation, "id is required")
	}
	acct, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "app account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading app account")
	}
	return acct, nil
}

func (s *Service) requireAdmin(ctx context.Context, actor lifecycle.Actor, scopeID uuid.UUID) error {
	if actor.ID == uuid.Nil {
		return dErrors.New(dErrors.CodeAuth, "actor is not authenticated")
	}
	ok, err := s.gate.HasPermission(ctx, actor.ID, scopeID, permission.AdminRoles...)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "checking permission")
	}
	if !ok {
		s.metrics.RecordPermissionDenial(EntityType)
		return dErrors.New(dErrors.CodePermission, "not allowed to manage this app account")
	}
	return nil
}

func (s *Service) record(ctx context.Context, acct *AppAccount, action audit.Action, changes []string, actor lifecycle.Actor, at time.Time) error {
	err := s.recorder.Record(ctx, audit.Entry{
		EntityType: EntityType,
		ItemID:     acct.ID,
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

// withTx runs fn inside a transaction carried in the context. Without a
// pool the store runs standalone writes.
func (s *Service) withTx(ctx context.Context, fn func(context.Context) error) error {
	if s.db == nil {
		return fn(ctx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "beginning transaction")
	}
	if err := fn(txcontext.WithTx(ctx, sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.ErrorContext(ctx, "transaction rollback failed", slog.Any("error", rbErr))
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "committing transaction")
	}
	return nil
}

func snapshot(acct *AppAccount) []diff.Field {
	return []diff.Field{
		{Name: "id", Value: acct.ID.String()},
		{Name: "title", Value: acct.Title},
		{Name: "status", Value: string(acct.Status)},
		{Name: "actionById", Value: acct.ActionByID.String()},
		{Name: "actionByName", Value: acct.ActionByName},
		{Name: "createdAt", Value: acct.CreatedAt},
		{Name: "updatedAt", Value: acct.UpdatedAt},
		{Name: "isDeleted", Value: acct.IsDeleted},
	}
}
