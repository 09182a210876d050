package permission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"appaccounts/pkg/platform/sentinel"
)

var lookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "appaccounts_permission_lookup_duration_ms",
	Help:    "Latency of permission cache lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const (
	// Key layout: appAccountUsers:<actorID>:<scopeID> -> role
	roleKeyPrefix = "appAccountUsers:"

	// purgeScanCount bounds each SCAN round trip during purges.
	purgeScanCount = 512
)

// RedisGate is the production Gate. Every check is a single GET, so no
// caller-side locking is needed even though the cache is shared across all
// request handlers.
type RedisGate struct {
	client *redis.Client
}

// NewRedisGate constructs a Redis-backed permission gate. The client
// lifecycle is managed by the caller.
func NewRedisGate(client *redis.Client) *RedisGate {
	return &RedisGate{client: client}
}

func roleKey(actorID, scopeID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", roleKeyPrefix, actorID, scopeID)
}

func (g *RedisGate) HasPermission(ctx context.Context, actorID, scopeID uuid.UUID, allowed ...Role) (bool, error) {
	start := time.Now()
	defer func() {
		lookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	role, err := g.GetRole(ctx, actorID, scopeID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, r := range allowed {
		if role == r {
			return true, nil
		}
	}
	return false, nil
}

func (g *RedisGate) GetRole(ctx context.Context, actorID, scopeID uuid.UUID) (Role, error) {
	val, err := g.client.Get(ctx, roleKey(actorID, scopeID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get role: %w", err)
	}
	return Role(val), nil
}

func (g *RedisGate) SetRole(ctx context.Context, actorID, scopeID uuid.UUID, role Role) error {
	if err := g.client.Set(ctx, roleKey(actorID, scopeID), string(role), 0).Err(); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

func (g *RedisGate) RemoveRole(ctx context.Context, actorID, scopeID uuid.UUID) error {
	if err := g.client.Del(ctx, roleKey(actorID, scopeID)).Err(); err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	return nil
}

// BulkSetRoles writes all grants with a single MSET.
func (g *RedisGate) BulkSetRoles(ctx context.Context, grants []Grant) (int, error) {
	if len(grants) == 0 {
		return 0, nil
	}
	pairs := make([]any, 0, len(grants)*2)
	for _, grant := range grants {
		pairs = append(pairs, roleKey(grant.ActorID, grant.ScopeID), string(grant.Role))
	}
	if err := g.client.MSet(ctx, pairs...).Err(); err != nil {
		return 0, fmt.Errorf("bulk set roles: %w", err)
	}
	return len(grants), nil
}

func (g *RedisGate) PurgeScope(ctx context.Context, scopeID uuid.UUID) (int, error) {
	return g.purge(ctx, fmt.Sprintf("%s*:%s", roleKeyPrefix, scopeID))
}

func (g *RedisGate) PurgeAll(ctx context.Context) (int, error) {
	return g.purge(ctx, roleKeyPrefix+"*")
}

// purge walks the keyspace with SCAN rather than KEYS so large namespaces
// don't block the server.
func (g *RedisGate) purge(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	iter := g.client.Scan(ctx, 0, pattern, purgeScanCount).Iterator()

	batch := make([]string, 0, purgeScanCount)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := g.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		deleted += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= purgeScanCount {
			if err := flush(); err != nil {
				return deleted, fmt.Errorf("purge roles: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scan roles: %w", err)
	}
	if err := flush(); err != nil {
		return deleted, fmt.Errorf("purge roles: %w", err)
	}
	return deleted, nil
}
