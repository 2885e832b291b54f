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
	"github.com/jackc/pgx/v5/pgconn"

	"templedesk/internal/hierarchy"
	"templedesk/internal/models"
)

// NodeStore manages hierarchy nodes in the database. Deletes are soft:
// removed nodes keep their row with deleted_at set, and every query here
// filters them out, so "live" in the engine's invariants means
// deleted_at IS NULL.
type NodeStore struct {
	db *sql.DB
}

// NewNodeStore returns a new NodeStore.
func NewNodeStore(db *sql.DB) *NodeStore {
	return &NodeStore{db: db}
}

const nodeColumns = `id, node_type, code, name, description, parent_id, active, sort_order, created_by, updated_by, created_at, updated_at`

// nodeOrder is the deterministic listing order: sort key first, business
// code as the tie-break, id last. Keeps pagination stable.
const nodeOrder = `ORDER BY sort_order, code, id`

// scanNode scans a row into a Node struct.
func scanNode(scanner interface{ Scan(...any) error }) (*models.Node, error) {
	var n models.Node
	err := scanner.Scan(
		&n.ID, &n.Type, &n.Code, &n.Name, &n.Description, &n.ParentID,
		&n.Active, &n.SortOrder, &n.CreatedBy, &n.UpdatedBy,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// scanNodes collects all rows of a node query.
func scanNodes(rows *sql.Rows) ([]models.Node, error) {
	defer rows.Close()
	var items []models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		items = append(items, *n)
	}
	return items, rows.Err()
}

// Insert persists a new node. A unique-violation on (node_type, code)
// surfaces as a ValidationError in case a concurrent create slipped past
// the guard's pre-check.
func (s *NodeStore) Insert(ctx context.Context, n *models.Node) error {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO nodes (id, node_type, code, name, description, parent_id, active, sort_order, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		n.ID, n.Type, n.Code, n.Name, n.Description, n.ParentID,
		n.Active, n.SortOrder, n.CreatedBy, n.UpdatedBy,
	)
	if err := row.Scan(&n.CreatedAt, &n.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return &hierarchy.ValidationError{Field: "code", Detail: "code already in use"}
		}
		return fmt.Errorf("insert node: %w", err)
	}
	return nil
}

// Save writes back a node's mutable attributes.
func (s *NodeStore) Save(ctx context.Context, n *models.Node) error {
	row := s.db.QueryRowContext(ctx, `
		UPDATE nodes SET
			code = $1, name = $2, description = $3, parent_id = $4,
			active = $5, sort_order = $6, updated_by = $7, updated_at = NOW()
		WHERE id = $8 AND deleted_at IS NULL
		RETURNING updated_at`,
		n.Code, n.Name, n.Description, n.ParentID,
		n.Active, n.SortOrder, n.UpdatedBy, n.ID,
	)
	if err := row.Scan(&n.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &hierarchy.NotFoundError{ID: n.ID}
		}
		if isUniqueViolation(err) {
			return &hierarchy.ValidationError{Field: "code", Detail: "code already in use"}
		}
		return fmt.Errorf("save node: %w", err)
	}
	return nil
}

// Remove soft-deletes a node. Preconditions (no children, no slots, no
// dependents) are the mutation guard's job; once called, the store removes
// unconditionally.
func (s *NodeStore) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE nodes SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("remove node: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove node: %w", err)
	}
	if affected == 0 {
		return &hierarchy.NotFoundError{ID: id}
	}
	return nil
}

// FindByID retrieves a live node by ID. Returns nil if not found.
func (s *NodeStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Node, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id = $1 AND deleted_at IS NULL`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find node by id: %w", err)
	}
	return n, nil
}

// ListByType returns every live node of one hierarchy in display order.
func (s *NodeStore) ListByType(ctx context.Context, t models.NodeType) ([]models.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE node_type = $1 AND deleted_at IS NULL `+nodeOrder, t)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return scanNodes(rows)
}

// ListChildren returns the direct live children of a node in display order.
func (s *NodeStore) ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE parent_id = $1 AND deleted_at IS NULL `+nodeOrder, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return scanNodes(rows)
}

// ListRoots returns the live parentless nodes of one hierarchy in display order.
func (s *NodeStore) ListRoots(ctx context.Context, t models.NodeType) ([]models.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE node_type = $1 AND parent_id IS NULL AND deleted_at IS NULL `+nodeOrder, t)
	if err != nil {
		return nil, fmt.Errorf("list roots: %w", err)
	}
	return scanNodes(rows)
}

// CountChildren counts a node's direct live children.
func (s *NodeStore) CountChildren(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM nodes WHERE parent_id = $1 AND deleted_at IS NULL`, id).Scan(&count)
	return count, err
}

// CountSlots counts the slots attached directly to a node.
func (s *NodeStore) CountSlots(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM slots WHERE node_id = $1`, id).Scan(&count)
	return count, err
}

// CountByType counts live nodes of one hierarchy. Used by the guard to
// bound its ancestor walk.
func (s *NodeStore) CountByType(ctx context.Context, t models.NodeType) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM nodes WHERE node_type = $1 AND deleted_at IS NULL`, t).Scan(&count)
	return count, err
}

// CodeInUse reports whether a live node of the given type already carries
// this code under a different id.
func (s *NodeStore) CodeInUse(ctx context.Context, t models.NodeType, code string, exclude uuid.UUID) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM nodes
		WHERE node_type = $1 AND code = $2 AND id <> $3 AND deleted_at IS NULL`,
		t, code, exclude).Scan(&count)
	return count > 0, err
}

// AncestorIDs returns the ids of a node and all its live ancestors, walking
// the parent chain upward in one recursive query. Used to invalidate
// cached statistics for every rollup a slot mutation touches.
func (s *NodeStore) AncestorIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, 0 AS depth FROM nodes WHERE id = $1 AND deleted_at IS NULL
			UNION ALL
			SELECT n.id, n.parent_id, c.depth + 1 FROM nodes n
			JOIN chain c ON n.id = c.parent_id
			WHERE n.deleted_at IS NULL AND c.depth < 64
		)
		SELECT id FROM chain`, id)
	if err != nil {
		return nil, fmt.Errorf("ancestor ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var nodeID uuid.UUID
		if err := rows.Scan(&nodeID); err != nil {
			return nil, fmt.Errorf("scan ancestor id: %w", err)
		}
		ids = append(ids, nodeID)
	}
	return ids, rows.Err()
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
