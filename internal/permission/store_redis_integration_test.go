//go:build integration

package permission_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"appaccounts/internal/permission"
	"appaccounts/pkg/platform/sentinel"
	"appaccounts/pkg/testutil/containers"
)

type RedisGateSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	gate  *permission.RedisGate
}

func TestRedisGateSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisGateSuite))
}

func (s *RedisGateSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.gate = permission.NewRedisGate(s.redis.Client)
}

func (s *RedisGateSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisGateSuite) TestSetGetRemoveRole() {
	ctx := context.Background()
	actor, scope := uuid.New(), uuid.New()

	s.Require().NoError(s.gate.SetRole(ctx, actor, scope, permission.RoleAccountAdmin))

	role, err := s.gate.GetRole(ctx, actor, scope)
	s.Require().NoError(err)
	s.Equal(permission.RoleAccountAdmin, role)

	ok, err := s.gate.HasPermission(ctx, actor, scope, permission.RoleAccountAdmin)
	s.Require().NoError(err)
	s.True(ok)

	s.Require().NoError(s.gate.RemoveRole(ctx, actor, scope))
	_, err = s.gate.GetRole(ctx, actor, scope)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisGateSuite) TestMissReturnsFalseWithoutError() {
	ok, err := s.gate.HasPermission(context.Background(), uuid.New(), uuid.New(), permission.RoleAccountAdmin)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisGateSuite) TestBulkSetRolesSingleRoundTrip() {
	ctx := context.Background()
	scope := uuid.New()
	grants := make([]permission.Grant, 0, 25)
	for i := 0; i < 25; i++ {
		grants = append(grants, permission.Grant{
			ActorID: uuid.New(),
			ScopeID: scope,
			Role:    permission.RoleAccountUser,
		})
	}

	n, err := s.gate.BulkSetRoles(ctx, grants)
	s.Require().NoError(err)
	s.Equal(25, n)

	for _, grant := range grants {
		role, err := s.gate.GetRole(ctx, grant.ActorID, grant.ScopeID)
		s.Require().NoError(err)
		s.Equal(permission.RoleAccountUser, role)
	}
}

func (s *RedisGateSuite) TestPurgeScopeLeavesOtherScopes() {
	ctx := context.Background()
	scopeA, scopeB := uuid.New(), uuid.New()
	actor := uuid.New()

	s.Require().NoError(s.gate.SetRole(ctx, actor, scopeA, permission.RoleAccountAdmin))
	s.Require().NoError(s.gate.SetRole(ctx, actor, scopeB, permission.RoleAccountAdmin))
	s.Require().NoError(s.gate.SetRole(ctx, uuid.New(), scopeA, permission.RoleAccountUser))

	deleted, err := s.gate.PurgeScope(ctx, scopeA)
	s.Require().NoError(err)
	s.Equal(2, deleted)

	role, err := s.gate.GetRole(ctx, actor, scopeB)
	s.Require().NoError(err)
	s.Equal(permission.RoleAccountAdmin, role)
}
