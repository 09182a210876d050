package account

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"appaccounts/internal/audit"
	"appaccounts/internal/lifecycle"
	"appaccounts/internal/permission"
	dErrors "appaccounts/pkg/domain-errors"
	"appaccounts/pkg/platform/sentinel"
	"appaccounts/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite

	ctx      context.Context
	store    *MemoryStore
	gate     *permission.MemoryGate
	recorder *audit.MemoryStore
	service  *Service

	creator lifecycle.Actor
	input   CreateInput
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 5, 2, 11, 4, 17, 0, time.UTC)
	s.creator = lifecycle.Actor{ID: uuid.New(), Name: "Ada Admin"}
	s.input = CreateInput{
		AdminAppID:      uuid.New(),
		AdminCustomerID: uuid.New(),
		Title:           "Acme Home Services",
	}

	s.store = NewMemoryStore()
	s.gate = permission.NewMemoryGate()
	s.recorder = audit.NewMemoryStore()
	s.service = NewService(nil, s.store, s.gate, s.recorder)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) create() *AppAccount {
	acct, err := s.service.Create(s.ctx, s.input, s.creator)
	s.Require().NoError(err)
	return acct
}

func (s *ServiceSuite) TestCreateProvisionsAccountMembershipAndRole() {
	acct := s.create()

	s.NotEqual(uuid.Nil, acct.ID)
	s.Equal("Acme Home Services", acct.Title)
	s.Equal(lifecycle.StatusActive, acct.Status)
	s.Equal(s.now, acct.CreatedAt)

	members, err := s.service.Memberships(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Require().Len(members, 1)
	s.Equal(s.creator.ID, members[0].LoginUserID)
	s.Equal(permission.RoleAccountAdmin, members[0].Role)
	s.Equal("Ada Admin", members[0].UserFullName)

	role, err := s.gate.GetRole(s.ctx, s.creator.ID, acct.ID)
	s.Require().NoError(err)
	s.Equal(permission.RoleAccountAdmin, role)

	entries := s.recorder.All(EntityType, acct.ID)
	s.Require().Len(entries, 1)
	s.Equal(audit.ActionCreate, entries[0].Action)
}

func (s *ServiceSuite) TestCreateSanitizesTitle() {
	s.input.Title = "  Acme <script> Home\t Services  "
	acct := s.create()
	s.Equal("Acme script Home Services", acct.Title)
}

func (s *ServiceSuite) TestCreateRejectsEmptyTitle() {
	s.input.Title = "  \t "
	_, err := s.service.Create(s.ctx, s.input, s.creator)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestCreateRejectsMissingHierarchy() {
	s.input.AdminAppID = uuid.Nil
	_, err := s.service.Create(s.ctx, s.input, s.creator)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestCreateRejectsAnonymousActor() {
	_, err := s.service.Create(s.ctx, s.input, lifecycle.Actor{})
	s.True(dErrors.HasCode(err, dErrors.CodeAuth))
}

func (s *ServiceSuite) TestCreateSurfacesMembershipFailure() {
	s.store.FailInsertMembership()
	_, err := s.service.Create(s.ctx, s.input, s.creator)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, roleErr := s.gate.GetRole(s.ctx, s.creator.ID, uuid.Nil)
	s.ErrorIs(roleErr, sentinel.ErrNotFound, "no role is provisioned for a failed create")
}

func (s *ServiceSuite) TestDeactivateBlocksSubEntityCreation() {
	acct := s.create()

	updated, err := s.service.Deactivate(s.ctx, acct.ID, s.creator)
	s.Require().NoError(err)
	s.Equal(lifecycle.StatusInactive, updated.Status)

	scope, err := s.service.ResolveScope(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.False(scope.Active)

	entries := s.recorder.All(EntityType, acct.ID)
	s.Require().Len(entries, 2)
	s.Equal(audit.ActionUpdate, entries[1].Action)
	s.Require().Len(entries[1].Changes, 1)
	s.Equal("status: active => inactive", entries[1].Changes[0])
}

func (s *ServiceSuite) TestReactivateRestoresScopeWithoutReprovisioning() {
	acct := s.create()
	_, err := s.service.Deactivate(s.ctx, acct.ID, s.creator)
	s.Require().NoError(err)

	_, err = s.service.Reactivate(s.ctx, acct.ID, s.creator)
	s.Require().NoError(err)

	scope, err := s.service.ResolveScope(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.True(scope.Active)

	role, err := s.gate.GetRole(s.ctx, s.creator.ID, acct.ID)
	s.Require().NoError(err)
	s.Equal(permission.RoleAccountAdmin, role, "roles stay cached across deactivation")
}

func (s *ServiceSuite) TestStatusChangeRequiresAdminRole() {
	acct := s.create()
	stranger := lifecycle.Actor{ID: uuid.New(), Name: "Strange"}

	_, err := s.service.Deactivate(s.ctx, acct.ID, stranger)
	s.True(dErrors.HasCode(err, dErrors.CodePermission))
}

func (s *ServiceSuite) TestResolveScopeUnknownAccount() {
	_, err := s.service.ResolveScope(s.ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestResolveScopeCarriesHierarchy() {
	acct := s.create()

	scope, err := s.service.ResolveScope(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal(s.input.AdminAppID, scope.AdminAppID)
	s.Equal(s.input.AdminCustomerID, scope.AdminCustomerID)
	s.True(scope.Active)
}

func (s *ServiceSuite) TestProvisionPermissionsRebuildsCache() {
	acct := s.create()
	_, err := s.gate.PurgeScope(s.ctx, acct.ID)
	s.Require().NoError(err)

	written, err := s.service.ProvisionPermissions(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal(1, written)

	role, err := s.gate.GetRole(s.ctx, s.creator.ID, acct.ID)
	s.Require().NoError(err)
	s.Equal(permission.RoleAccountAdmin, role)
}

func (s *ServiceSuite) TestGetByIDUnknownAccount() {
	_, err := s.service.GetByID(s.ctx, uuid.New())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
