// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package capacity computes occupancy rollups for hierarchy nodes.
// Statistics are computed on read with a single aggregate query, so the
// slot table is always the source of truth and there are no denormalized
// counters to keep in sync.
package capacity

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/google/uuid"

	"templedesk/internal/hierarchy"
	"templedesk/internal/models"
)

// Aggregator computes capacity snapshots from slot occupancy.
type Aggregator struct {
	db *sql.DB
}

// NewAggregator returns an Aggregator over the given database.
func NewAggregator(db *sql.DB) *Aggregator {
	return &Aggregator{db: db}
}

// Statistics returns the occupancy rollup for a node. With
// includeDescendants it sums over the whole live subtree; without, only
// slots attached directly to the node count. Blocked slots count as
// occupied: they are not available for booking.
func (a *Aggregator) Statistics(ctx context.Context, nodeID uuid.UUID, includeDescendants bool) (*models.CapacitySnapshot, error) {
	var live int
	if err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM nodes WHERE id = $1 AND deleted_at IS NULL`, nodeID).Scan(&live); err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	if live == 0 {
		return nil, &hierarchy.NotFoundError{ID: nodeID}
	}

	query := `
		SELECT COUNT(sl.id),
		       COUNT(sl.id) FILTER (WHERE sl.occupancy = 'available'),
		       COUNT(sl.id) FILTER (WHERE sl.occupancy <> 'available')
		FROM slots sl
		WHERE sl.node_id = $1`
	if includeDescendants {
		query = `
		WITH RECURSIVE subtree AS (
			SELECT id FROM nodes WHERE id = $1 AND deleted_at IS NULL
			UNION ALL
			SELECT n.id FROM nodes n JOIN subtree st ON n.parent_id = st.id
			WHERE n.deleted_at IS NULL
		)
		SELECT COUNT(sl.id),
		       COUNT(sl.id) FILTER (WHERE sl.occupancy = 'available'),
		       COUNT(sl.id) FILTER (WHERE sl.occupancy <> 'available')
		FROM slots sl
		JOIN subtree st ON st.id = sl.node_id`
	}

	snap := &models.CapacitySnapshot{}
	if err := a.db.QueryRowContext(ctx, query, nodeID).Scan(&snap.Total, &snap.Available, &snap.Occupied); err != nil {
		return nil, fmt.Errorf("statistics aggregate: %w", err)
	}
	snap.Rate = Rate(snap.Occupied, snap.Total)
	return snap, nil
}

// Rate returns the occupancy percentage rounded to two decimals. A node
// with no slots has a rate of exactly 0 — empty is not an error.
func Rate(occupied, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(occupied)/float64(total)*10000) / 100
}
