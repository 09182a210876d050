package servicetype

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"appaccounts/internal/audit"
	"appaccounts/internal/lifecycle"
	"appaccounts/internal/notify"
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

type ServiceSuite struct {
	suite.Suite

	ctx      context.Context
	store    *MemoryStore
	gate     *permission.MemoryGate
	recorder *audit.MemoryStore
	notifier *notify.MemoryNotifier
	service  *Service

	scope lifecycle.Scope
	admin lifecycle.Actor
	now   time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 6, 9, 15, 40, 2, 0, time.UTC)
	s.scope = lifecycle.Scope{
		ID:              uuid.New(),
		AdminAppID:      uuid.New(),
		AdminCustomerID: uuid.New(),
		Active:          true,
	}
	s.admin = lifecycle.Actor{ID: uuid.New(), Name: "Ada Admin"}

	s.store = NewMemoryStore()
	s.gate = permission.NewMemoryGate()
	s.recorder = audit.NewMemoryStore()
	s.notifier = notify.NewMemoryNotifier()
	s.Require().NoError(s.gate.SetRole(context.Background(), s.admin.ID, s.scope.ID, permission.RoleAccountAdmin))

	s.service = NewService(s.store, s.gate, s.recorder, scopeMap{s.scope.ID: s.scope},
		lifecycle.WithNotifier[ServiceType](s.notifier))
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) create(input CreateInput) *ServiceType {
	if input.AppAccountID == uuid.Nil {
		input.AppAccountID = s.scope.ID
	}
	created, err := s.service.Create(s.ctx, input, s.admin)
	s.Require().NoError(err)
	return created
}

func (s *ServiceSuite) TestCreateAppliesDefaultsAndHierarchy() {
	created := s.create(CreateInput{TypeName: "Gardening", ImagePath: "/img/uploads/a b?.png"})

	s.Equal("Gardening", created.TypeName)
	s.Equal(DefaultCategory, created.Category)
	s.Equal("", created.Note)
	s.Equal("/img/uploads/a b?.png", created.ImagePath, "image paths are stored untouched")
	s.Equal(lifecycle.StatusActive, created.Status)
	s.Equal(s.scope.AdminAppID, created.AdminAppID)
	s.Equal(s.scope.AdminCustomerID, created.AdminCustomerID)

	events := s.notifier.Events()
	s.Require().Len(events, 1)
	s.Equal(EntityType+"_"+s.scope.ID.String(), events[0].Topic())
}

func (s *ServiceSuite) TestCreateSanitizesTextFields() {
	created := s.create(CreateInput{
		TypeName: "  Deep <Clean>  ",
		Category: "Home & Garden!",
		Note:     "call\tfirst\n",
	})

	s.Equal("Deep Clean", created.TypeName)
	s.Equal("Home & Garden", created.Category)
	s.Equal("call first", created.Note)
}

func (s *ServiceSuite) TestCreateRejectsNameThatSanitizesToEmpty() {
	_, err := s.service.Create(s.ctx, CreateInput{AppAccountID: s.scope.ID, TypeName: "<<<>>>"}, s.admin)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestUpdateNilNoteResetsToEmpty() {
	created := s.create(CreateInput{TypeName: "Gardening", Note: "seasonal only"})

	updated, err := s.service.Update(s.ctx, created.ID, UpdateInput{}, s.admin)
	s.Require().NoError(err)
	s.Equal("", updated.Note)
	s.Equal("Gardening", updated.TypeName, "absent typeName keeps the stored value")
	s.Equal(DefaultCategory, updated.Category)
}

func (s *ServiceSuite) TestUpdateRename() {
	created := s.create(CreateInput{TypeName: "Gardening"})

	name := "Landscaping"
	updated, err := s.service.Update(s.ctx, created.ID, UpdateInput{TypeName: &name}, s.admin)
	s.Require().NoError(err)
	s.Equal("Landscaping", updated.TypeName)

	entries := s.recorder.All(EntityType, created.ID)
	s.Require().Len(entries, 2)
	s.Contains(entries[1].Changes, "typeName: Gardening => Landscaping")
}

func (s *ServiceSuite) TestDeleteThenRecreateRestores() {
	created := s.create(CreateInput{TypeName: "Gardening", Note: "v1"})
	_, err := s.service.UpdateStatus(s.ctx, created.ID, lifecycle.StatusInactive, s.admin)
	s.Require().NoError(err)
	_, err = s.service.Delete(s.ctx, created.ID, s.admin)
	s.Require().NoError(err)

	restored := s.create(CreateInput{TypeName: "Gardening", Note: "v2"})
	s.Equal(created.ID, restored.ID)
	s.Equal("v2", restored.Note)
	s.Equal(lifecycle.StatusActive, restored.Status)
}

func (s *ServiceSuite) TestPageSearchMatchesNote() {
	s.create(CreateInput{TypeName: "Gardening", Note: "seasonal"})
	s.create(CreateInput{TypeName: "Plumbing"})

	page, err := s.service.Page(s.ctx, lifecycle.PageRequest{ScopeID: s.scope.ID, Search: "SEASON"})
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal("Gardening", page[0].TypeName)
}

func (s *ServiceSuite) TestRecentChanges() {
	created := s.create(CreateInput{TypeName: "Gardening"})
	later := requestcontext.WithTime(context.Background(), s.now.Add(time.Minute))
	_, err := s.service.UpdateStatus(later, created.ID, lifecycle.StatusInactive, s.admin)
	s.Require().NoError(err)

	entries, err := s.service.RecentChanges(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(audit.ActionUpdate, entries[0].Action)
	s.Equal(audit.ActionCreate, entries[1].Action)
}
