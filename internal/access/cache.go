package access

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "gatehouse:rbac:version"

// DecisionCache is an optional Redis-backed cache for decisions. Every
// mutating RBAC operation bumps a version counter and cache keys embed that
// version, so a decision served from cache always reflects the latest
// committed writes. Entries for stale versions simply expire.
type DecisionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDecisionCache constructs a DecisionCache.
func NewDecisionCache(client *redis.Client, ttl time.Duration) *DecisionCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DecisionCache{client: client, ttl: ttl}
}

// Version returns the current invalidation counter. A nil cache reports -1,
// which disables caching in the decision service.
func (c *DecisionCache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return -1, nil
	}
	version, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return -1, err
	}
	return version, nil
}

// Invalidate bumps the version counter. Admin services call this after
// every committed role/group/grant/membership mutation.
func (c *DecisionCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

// Get returns a cached decision for the key, if any.
func (c *DecisionCache) Get(ctx context.Context, key string) (Decision, bool) {
	if c == nil || c.client == nil {
		return Decision{}, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return Decision{}, false
	}
	var decision Decision
	if err := json.Unmarshal(payload, &decision); err != nil {
		return Decision{}, false
	}
	return decision, true
}

// Put stores a decision under the key. Failures are dropped; the cache is
// an optimization, never a source of truth.
func (c *DecisionCache) Put(ctx context.Context, key string, decision Decision) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(decision)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, payload, c.ttl)
}
