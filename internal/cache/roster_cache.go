// Package cache stores finished roster batches in Redis keyed by a hash of
// the originating request, so identical optimization requests are served
// without re-solving.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dfskit/roster-engine/internal/types"
)

const keyPrefix = "roster-engine:batch:"

// RosterCache is a thin Redis-backed result cache. A nil *RosterCache is a
// no-op, so callers can run without Redis configured.
type RosterCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Entry
}

// New returns a cache over the given client.
func New(client *redis.Client, ttl time.Duration, log *logrus.Logger) *RosterCache {
	return &RosterCache{
		client: client,
		ttl:    ttl,
		log:    log.WithField("component", "roster_cache"),
	}
}

// Key derives a stable cache key from a request payload.
func Key(payload []byte) string {
	sum := sha256.Sum256(payload)
	return keyPrefix + hex.EncodeToString(sum[:16])
}

// Get returns the cached batch for key, or nil on miss or error. Cache
// errors are logged, never surfaced.
func (c *RosterCache) Get(ctx context.Context, key string) *types.RosterBatch {
	if c == nil {
		return nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Warn("Cache read failed")
		}
		return nil
	}
	var batch types.RosterBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		c.log.WithError(err).Warn("Cache payload corrupt, ignoring")
		return nil
	}
	return &batch
}

// Set stores the batch under key with the configured TTL.
func (c *RosterCache) Set(ctx context.Context, key string, batch *types.RosterBatch) {
	if c == nil {
		return
	}
	data, err := json.Marshal(batch)
	if err != nil {
		c.log.WithError(err).Warn("Cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("Cache write failed")
	}
}

// Ping verifies connectivity for readiness checks.
func (c *RosterCache) Ping(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("cache not configured")
	}
	return c.client.Ping(ctx).Err()
}
