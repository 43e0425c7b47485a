package pattern

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCooldowns is a CooldownRegistry backed by Redis, for deployments
// running more than one pipeline instance. SET NX PX gives the atomic
// check-and-set; key expiry doubles as the cooldown window, so a fresh
// acquire succeeds exactly when the previous window has elapsed.
type RedisCooldowns struct {
	client *redis.Client
	prefix string
}

// NewRedisCooldowns creates a registry on an existing client. Keys are
// namespaced "cooldown:{sessionID}:{ruleID}".
func NewRedisCooldowns(client *redis.Client) *RedisCooldowns {
	return &RedisCooldowns{client: client, prefix: "cooldown"}
}

func (r *RedisCooldowns) key(sessionID, ruleID string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, sessionID, ruleID)
}

// InCooldown implements CooldownRegistry. Errors fail closed: an
// unreachable registry reports the rule as cooling so the matcher skips it
// rather than risking a duplicate dispatch.
func (r *RedisCooldowns) InCooldown(ctx context.Context, sessionID, ruleID string, _ time.Duration, _ time.Time) bool {
	n, err := r.client.Exists(ctx, r.key(sessionID, ruleID)).Result()
	if err != nil {
		return true
	}
	return n > 0
}

// TryAcquire implements CooldownRegistry.
func (r *RedisCooldowns) TryAcquire(ctx context.Context, sessionID, ruleID string, cooldown time.Duration, now time.Time) (bool, error) {
	if cooldown <= 0 {
		return true, nil
	}
	ok, err := r.client.SetNX(ctx, r.key(sessionID, ruleID), now.UnixMilli(), cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown acquire %s/%s: %w", sessionID, ruleID, err)
	}
	return ok, nil
}

// Forget implements CooldownRegistry. Entries expire on their own; this
// just drops them eagerly when a session is evicted.
func (r *RedisCooldowns) Forget(ctx context.Context, sessionID string) error {
	keys, err := r.client.Keys(ctx, fmt.Sprintf("%s:%s:*", r.prefix, sessionID)).Result()
	if err != nil {
		return fmt.Errorf("cooldown scan %s: %w", sessionID, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cooldown forget %s: %w", sessionID, err)
	}
	return nil
}
