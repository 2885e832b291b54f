// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// stats.go provides a Valkey-backed memoization layer for capacity
// statistics. Rollups over large subtrees are recomputed at most once per
// TTL, and any slot mutation explicitly invalidates the affected nodes so
// the cache never serves a stale rollup for longer than one write.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"templedesk/internal/models"
)

const (
	// statsKeyPrefix namespaces statistics keys in Valkey.
	statsKeyPrefix = "stats:"

	// DefaultStatsTTL is how long a computed rollup stays cached.
	DefaultStatsTTL = 30 * time.Second
)

// StatsCache memoizes capacity snapshots in Valkey.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a statistics cache backed by the given Valkey client.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl == 0 {
		ttl = DefaultStatsTTL
	}
	return &StatsCache{client: client, ttl: ttl}
}

// statsKey builds the cache key for one node/scope combination.
func statsKey(nodeID uuid.UUID, includeDescendants bool) string {
	scope := "self"
	if includeDescendants {
		scope = "subtree"
	}
	return fmt.Sprintf("%s%s:%s", statsKeyPrefix, nodeID, scope)
}

// Get retrieves a cached snapshot. Returns false on miss or any cache error.
func (c *StatsCache) Get(ctx context.Context, nodeID uuid.UUID, includeDescendants bool) (*models.CapacitySnapshot, bool) {
	payload, err := c.client.Get(ctx, statsKey(nodeID, includeDescendants)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("stats cache get error", "node", nodeID, "error", err)
		return nil, false
	}

	var snap models.CapacitySnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		slog.Warn("stats cache decode error", "node", nodeID, "error", err)
		return nil, false
	}
	return &snap, true
}

// Set stores a computed snapshot with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, nodeID uuid.UUID, includeDescendants bool, snap *models.CapacitySnapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		slog.Warn("stats cache encode error", "node", nodeID, "error", err)
		return
	}
	if err := c.client.Set(ctx, statsKey(nodeID, includeDescendants), payload, c.ttl).Err(); err != nil {
		slog.Warn("stats cache set error", "node", nodeID, "error", err)
	}
}

// Invalidate drops both scope variants for every given node. Callers pass
// the mutated node plus its ancestor chain, since a slot flip changes the
// rollup of every node above it.
func (c *StatsCache) Invalidate(ctx context.Context, nodeIDs ...uuid.UUID) {
	if len(nodeIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(nodeIDs)*2)
	for _, id := range nodeIDs {
		keys = append(keys, statsKey(id, false), statsKey(id, true))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("stats cache invalidate error", "error", err)
	}
}
