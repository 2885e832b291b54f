// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package capacity

import (
	"context"

	"github.com/google/uuid"

	"templedesk/internal/cache"
	"templedesk/internal/models"
)

// CachedAggregator wraps an Aggregator with short-TTL Valkey memoization.
// The cache is a read-through layer only; the database aggregate remains
// the source of truth and writers call Invalidate after slot mutations.
type CachedAggregator struct {
	inner *Aggregator
	cache *cache.StatsCache
}

// NewCachedAggregator wraps agg with the given stats cache. A nil cache
// disables memoization entirely.
func NewCachedAggregator(agg *Aggregator, sc *cache.StatsCache) *CachedAggregator {
	return &CachedAggregator{inner: agg, cache: sc}
}

// Statistics returns the cached rollup when fresh, computing and storing
// it otherwise.
func (c *CachedAggregator) Statistics(ctx context.Context, nodeID uuid.UUID, includeDescendants bool) (*models.CapacitySnapshot, error) {
	if c.cache != nil {
		if snap, ok := c.cache.Get(ctx, nodeID, includeDescendants); ok {
			return snap, nil
		}
	}

	snap, err := c.inner.Statistics(ctx, nodeID, includeDescendants)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(ctx, nodeID, includeDescendants, snap)
	}
	return snap, nil
}

// Invalidate drops cached rollups for the given nodes.
func (c *CachedAggregator) Invalidate(ctx context.Context, nodeIDs ...uuid.UUID) {
	if c.cache != nil {
		c.cache.Invalidate(ctx, nodeIDs...)
	}
}
