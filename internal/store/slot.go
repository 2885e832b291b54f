// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"templedesk/internal/hierarchy"
	"templedesk/internal/models"
)

// SlotStore manages leaf capacity slots. Slots are hard-deleted; their
// occupancy state is the single source of truth for capacity rollups —
// no counters are maintained on nodes, so there is nothing to drift.
type SlotStore struct {
	db *sql.DB
}

// NewSlotStore returns a new SlotStore.
func NewSlotStore(db *sql.DB) *SlotStore {
	return &SlotStore{db: db}
}

const slotColumns = `id, node_id, label, occupancy, created_at, updated_at`

// scanSlot scans a row into a Slot struct.
func scanSlot(scanner interface{ Scan(...any) error }) (*models.Slot, error) {
	var sl models.Slot
	err := scanner.Scan(&sl.ID, &sl.NodeID, &sl.Label, &sl.Occupancy, &sl.CreatedAt, &sl.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sl, nil
}

// Create inserts one slot under a node. The owning node must be live.
func (s *SlotStore) Create(ctx context.Context, nodeID uuid.UUID, label string) (*models.Slot, error) {
	var live int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM nodes WHERE id = $1 AND deleted_at IS NULL`, nodeID).Scan(&live); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	if live == 0 {
		return nil, &hierarchy.ReferenceError{Field: "node_id", ID: nodeID}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO slots (id, node_id, label, occupancy)
		VALUES ($1, $2, $3, $4)
		RETURNING `+slotColumns,
		uuid.New(), nodeID, label, models.OccupancyAvailable,
	)
	sl, err := scanSlot(row)
	if err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	return sl, nil
}

// CreateBatch inserts n identically-labeled slots in one transaction,
// numbering them label-1 ... label-n. Used when provisioning a tower floor.
func (s *SlotStore) CreateBatch(ctx context.Context, nodeID uuid.UUID, label string, n int) ([]models.Slot, error) {
	if n <= 0 {
		return nil, &hierarchy.ValidationError{Field: "count", Detail: "count must be positive"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO slots (id, node_id, label, occupancy)
		VALUES ($1, $2, $3, $4)
		RETURNING `+slotColumns)
	if err != nil {
		return nil, fmt.Errorf("prepare slot insert: %w", err)
	}
	defer stmt.Close()

	slots := make([]models.Slot, 0, n)
	for i := 1; i <= n; i++ {
		row := stmt.QueryRowContext(ctx, uuid.New(), nodeID, fmt.Sprintf("%s-%d", label, i), models.OccupancyAvailable)
		sl, err := scanSlot(row)
		if err != nil {
			return nil, fmt.Errorf("insert slot %d: %w", i, err)
		}
		slots = append(slots, *sl)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit slot batch: %w", err)
	}
	return slots, nil
}

// FindByID retrieves a slot by ID. Returns nil if not found.
func (s *SlotStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE id = $1`, id)
	sl, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find slot by id: %w", err)
	}
	return sl, nil
}

// ListByNode returns all slots directly under a node, ordered by label.
func (s *SlotStore) ListByNode(ctx context.Context, nodeID uuid.UUID) ([]models.Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE node_id = $1 ORDER BY label, id`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var items []models.Slot
	for rows.Next() {
		sl, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		items = append(items, *sl)
	}
	return items, rows.Err()
}

// SetOccupancy transitions a slot to the given state unconditionally.
// Used for blocking a slot out of service and for releasing it back.
func (s *SlotStore) SetOccupancy(ctx context.Context, id uuid.UUID, o models.Occupancy) (*models.Slot, error) {
	if !models.ValidOccupancy(o) {
		return nil, &hierarchy.ValidationError{Field: "occupancy", Detail: "unknown occupancy state"}
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE slots SET occupancy = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+slotColumns, o, id)
	sl, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &hierarchy.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("set occupancy: %w", err)
	}
	return sl, nil
}

// Delete removes a slot. A booked slot cannot be deleted.
func (s *SlotStore) Delete(ctx context.Context, id uuid.UUID) error {
	sl, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if sl == nil {
		return &hierarchy.NotFoundError{ID: id}
	}
	if sl.Occupancy == models.OccupancyBooked {
		return &hierarchy.StructuralError{Reason: hierarchy.ReasonHasDependents, Detail: "slot is booked"}
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// claimAvailable atomically claims one available slot under a node inside
// the given transaction, flipping it to booked. FOR UPDATE SKIP LOCKED
// lets concurrent claims take distinct rows instead of queueing on the
// same one, so N parallel bookings against N free slots all succeed with
// no lost updates.
func claimAvailable(ctx context.Context, tx *sql.Tx, nodeID uuid.UUID) (*models.Slot, error) {
	row := tx.QueryRowContext(ctx, `
		UPDATE slots SET occupancy = $1, updated_at = NOW()
		WHERE id = (
			SELECT id FROM slots
			WHERE node_id = $2 AND occupancy = $3
			ORDER BY label, id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+slotColumns,
		models.OccupancyBooked, nodeID, models.OccupancyAvailable)
	sl, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // no free slot under this node
	}
	if err != nil {
		return nil, fmt.Errorf("claim slot: %w", err)
	}
	return sl, nil
}
