// Package account owns the app account scope: the tenant row every other
// entity hangs off. Accounts are created together with the creator's
// membership in one transaction, and resolve the owning hierarchy for
// sub-entity creation.
package account

import (
	"context"

	"github.com/google/uuid"

	"appaccounts/internal/lifecycle"
	"appaccounts/internal/permission"
)

// AppAccount is one tenant scope.
type AppAccount struct {
	ID              uuid.UUID
	AdminAppID      uuid.UUID
	AdminCustomerID uuid.UUID
	Title           string
	Status          lifecycle.Status
	lifecycle.Stamped
}

// Membership links a login user to an app account with a role. The
// permission cache is provisioned from these rows.
type Membership struct {
	ID              uuid.UUID
	AdminAppID      uuid.UUID
	AdminCustomerID uuid.UUID
	AppAccountID    uuid.UUID
	LoginUserID     uuid.UUID
	UserFullName    string
	Role            permission.Role
	Status          lifecycle.Status
	lifecycle.Stamped
}

// Store is the row store for accounts and memberships. Implementations
// join an ambient transaction when one is carried in the context.
type Store interface {
	// FindByID returns the account regardless of tombstone state, or
	// sentinel.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*AppAccount, error)

	// Insert persists a new account row.
	Insert(ctx context.Context, acct *AppAccount) error

	// Update conditionally overwrites the account row and returns the
	// number of rows affected.
	Update(ctx context.Context, acct *AppAccount) (int64, error)

	// InsertMembership persists one membership row.
	InsertMembership(ctx context.Context, m *Membership) error

	// Memberships returns the non-deleted memberships for the account.
	Memberships(ctx context.Context, accountID uuid.UUID) ([]*Membership, error)
}
