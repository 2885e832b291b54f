// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package hierarchy implements the tree engine shared by categories,
// designations, pagoda towers, and venue sections: typed hierarchy nodes
// with code uniqueness, cycle prevention, guarded structural edits, and
// in-memory forest assembly.
package hierarchy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Reason is a machine-readable code explaining why the mutation guard
// rejected a structural edit. Callers surface these distinctly.
type Reason string

const (
	ReasonSelfParent    Reason = "self_parent"
	ReasonCycle         Reason = "cycle"
	ReasonHasChildren   Reason = "has_children"
	ReasonHasSlots      Reason = "has_slots"
	ReasonHasDependents Reason = "has_dependents"
)

// ValidationError reports malformed input or a business-code collision.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Detail)
}

// NotFoundError reports that a node addressed by id does not exist.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node %s not found", e.ID)
}

// ReferenceError reports that a supplied foreign id (a parent reference)
// does not resolve to a live node.
type ReferenceError struct {
	Field string
	ID    uuid.UUID
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("reference: %s %s does not exist", e.Field, e.ID)
}

// StructuralError reports a guard precondition violation: a cycle would be
// created, or a node with live dependents would be deleted.
type StructuralError struct {
	Reason Reason
	Detail string
}

func (e *StructuralError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("structural: %s", e.Reason)
	}
	return fmt.Sprintf("structural: %s: %s", e.Reason, e.Detail)
}

// ErrConflict signals that a mutation lost a serialization race and may be
// retried. Writers retry a bounded number of times before surfacing it.
var ErrConflict = errors.New("concurrent update conflict")
