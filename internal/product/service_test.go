package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appaccounts/internal/audit"
	"appaccounts/internal/lifecycle"
	"appaccounts/internal/permission"
	dErrors "appaccounts/pkg/domain-errors"
	"appaccounts/pkg/platform/sentinel"
	"appaccounts/pkg/requestcontext"
)

type scopeMap map[uuid.UUID]lifecycle.Scope

func (m scopeMap) ResolveScope(_ context.Context, scopeID uuid.UUID) (lifecycle.Scope, error) {
	if s, ok := m[scopeID]; ok {
		return s, nil
	}
	return lifecycle.Scope{}, sentinel.ErrNotFound
}

func newFixture(t *testing.T) (*Service, lifecycle.Scope, lifecycle.Actor, context.Context) {
	t.Helper()
	scope := lifecycle.Scope{
		ID:              uuid.New(),
		AdminAppID:      uuid.New(),
		AdminCustomerID: uuid.New(),
		Active:          true,
	}
	admin := lifecycle.Actor{ID: uuid.New(), Name: "Ada Admin"}
	gate := permission.NewMemoryGate()
	require.NoError(t, gate.SetRole(context.Background(), admin.ID, scope.ID, permission.RoleAccountAdmin))

	svc := NewService(NewMemoryStore(), gate, audit.NewMemoryStore(), scopeMap{scope.ID: scope})
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 7, 21, 8, 12, 40, 0, time.UTC))
	return svc, scope, admin, ctx
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, scope, admin, ctx := newFixture(t)

	created, err := svc.Create(ctx, CreateInput{AppAccountID: scope.ID, ProductName: "Lawn Mower"}, admin)
	require.NoError(t, err)

	assert.Equal(t, DefaultCategory, created.Category)
	assert.Equal(t, lifecycle.StatusActive, created.Status)
	assert.Equal(t, scope.AdminAppID, created.AdminAppID)
}

func TestDuplicateNameRejected(t *testing.T) {
	svc, scope, admin, ctx := newFixture(t)

	_, err := svc.Create(ctx, CreateInput{AppAccountID: scope.ID, ProductName: "Lawn Mower"}, admin)
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{AppAccountID: scope.ID, ProductName: "Lawn Mower"}, admin)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRecreateRestoresDeletedProduct(t *testing.T) {
	svc, scope, admin, ctx := newFixture(t)

	created, err := svc.Create(ctx, CreateInput{AppAccountID: scope.ID, ProductName: "Lawn Mower"}, admin)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, created.ID, lifecycle.StatusInactive, admin)
	require.NoError(t, err)
	_, err = svc.Delete(ctx, created.ID, admin)
	require.NoError(t, err)

	restored, err := svc.Create(ctx, CreateInput{AppAccountID: scope.ID, ProductName: "Lawn Mower", Note: "returned stock"}, admin)
	require.NoError(t, err)

	assert.Equal(t, created.ID, restored.ID)
	assert.Equal(t, lifecycle.StatusActive, restored.Status)
	assert.Equal(t, "returned stock", restored.Note)
}

func TestUpdateNilNoteResets(t *testing.T) {
	svc, scope, admin, ctx := newFixture(t)

	created, err := svc.Create(ctx, CreateInput{AppAccountID: scope.ID, ProductName: "Lawn Mower", Note: "display model"}, admin)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateInput{}, admin)
	require.NoError(t, err)
	assert.Equal(t, "", updated.Note)
	assert.Equal(t, "Lawn Mower", updated.ProductName)
}

func TestPageFiltersByScope(t *testing.T) {
	svc, scope, admin, ctx := newFixture(t)

	_, err := svc.Create(ctx, CreateInput{AppAccountID: scope.ID, ProductName: "Lawn Mower"}, admin)
	require.NoError(t, err)

	page, err := svc.Page(ctx, lifecycle.PageRequest{ScopeID: scope.ID})
	require.NoError(t, err)
	require.Len(t, page, 1)

	other, err := svc.Page(ctx, lifecycle.PageRequest{ScopeID: uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, other)
}
