// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"templedesk/internal/models"
)

// NodeReader is the read surface of the node store the guard operates on.
// All checks run against the current persisted snapshot; the guard itself
// keeps no state between calls.
type NodeReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Node, error)
	CountChildren(ctx context.Context, id uuid.UUID) (int, error)
	CountSlots(ctx context.Context, id uuid.UUID) (int, error)
	CountByType(ctx context.Context, t models.NodeType) (int, error)
	CodeInUse(ctx context.Context, t models.NodeType, code string, exclude uuid.UUID) (bool, error)
}

// DependencyCheck reports whether a node still has active dependents of one
// module-specific kind: staff holding a designation, confirmed bookings
// under a tower block. Modules register their own predicate instead of the
// guard hardcoding per-entity SQL.
type DependencyCheck func(ctx context.Context, nodeID uuid.UUID) (bool, error)

// Decision is the guard's verdict on a proposed structural edit. Reason is
// set only when the edit is rejected.
type Decision struct {
	Allowed bool
	Reason  Reason
}

var allowed = Decision{Allowed: true}

// Guard enforces structural invariants in front of the node store: no
// cycles, no deleting nodes with live dependents, no code collisions.
type Guard struct {
	nodes  NodeReader
	checks map[models.NodeType][]DependencyCheck
}

// NewGuard creates a mutation guard reading from the given node store.
func NewGuard(nodes NodeReader) *Guard {
	return &Guard{
		nodes:  nodes,
		checks: make(map[models.NodeType][]DependencyCheck),
	}
}

// RegisterDependency adds a module-specific active-dependent predicate for
// one node type. CanDelete consults every registered check.
func (g *Guard) RegisterDependency(t models.NodeType, check DependencyCheck) {
	g.checks[t] = append(g.checks[t], check)
}

// CanDelete reports whether the node may be removed. A node with live
// children, live slots, or active module dependents cannot be deleted, and
// the decision carries which of those blocked it.
func (g *Guard) CanDelete(ctx context.Context, id uuid.UUID) (Decision, error) {
	node, err := g.nodes.FindByID(ctx, id)
	if err != nil {
		return Decision{}, err
	}
	if node == nil {
		return Decision{}, &NotFoundError{ID: id}
	}

	children, err := g.nodes.CountChildren(ctx, id)
	if err != nil {
		return Decision{}, fmt.Errorf("count children: %w", err)
	}
	if children > 0 {
		return Decision{Reason: ReasonHasChildren}, nil
	}

	slots, err := g.nodes.CountSlots(ctx, id)
	if err != nil {
		return Decision{}, fmt.Errorf("count slots: %w", err)
	}
	if slots > 0 {
		return Decision{Reason: ReasonHasSlots}, nil
	}

	for _, check := range g.checks[node.Type] {
		busy, err := check(ctx, id)
		if err != nil {
			return Decision{}, fmt.Errorf("dependency check: %w", err)
		}
		if busy {
			return Decision{Reason: ReasonHasDependents}, nil
		}
	}

	return allowed, nil
}

// CanReparent reports whether node may be moved under newParent. Moving a
// node under itself or under any of its own descendants would close a
// cycle. The check walks the parent chain upward from newParent; the walk
// is bounded by the live node count of the type, so a corrupted graph
// cannot loop it forever.
func (g *Guard) CanReparent(ctx context.Context, id, newParent uuid.UUID) (Decision, error) {
	if id == newParent {
		return Decision{Reason: ReasonSelfParent}, nil
	}

	node, err := g.nodes.FindByID(ctx, id)
	if err != nil {
		return Decision{}, err
	}
	if node == nil {
		return Decision{}, &NotFoundError{ID: id}
	}

	bound, err := g.nodes.CountByType(ctx, node.Type)
	if err != nil {
		return Decision{}, fmt.Errorf("count nodes: %w", err)
	}

	current := newParent
	for steps := 0; steps <= bound; steps++ {
		ancestor, err := g.nodes.FindByID(ctx, current)
		if err != nil {
			return Decision{}, err
		}
		if ancestor == nil {
			return Decision{}, &ReferenceError{Field: "parent_id", ID: current}
		}
		if ancestor.ID == id {
			return Decision{Reason: ReasonCycle}, nil
		}
		if ancestor.ParentID == nil {
			return allowed, nil
		}
		current = *ancestor.ParentID
	}

	// Walked more ancestors than nodes exist: the stored graph already
	// contains a cycle. Refuse the edit rather than making it worse.
	return Decision{Reason: ReasonCycle}, nil
}

// CanRename reports whether proposedCode is free among live nodes of the
// given type, excluding the node being renamed.
func (g *Guard) CanRename(ctx context.Context, t models.NodeType, proposedCode string, exclude uuid.UUID) (bool, error) {
	taken, err := g.nodes.CodeInUse(ctx, t, proposedCode, exclude)
	if err != nil {
		return false, fmt.Errorf("code lookup: %w", err)
	}
	return !taken, nil
}
