// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// NodeType identifies which hierarchy a node belongs to. Codes are unique
// per type, and parent/child links never cross types.
type NodeType string

const (
	NodeTypeCategory    NodeType = "category"    // inventory categories
	NodeTypeDesignation NodeType = "designation" // staff designations
	NodeTypeTower       NodeType = "tower"       // pagoda tower / block / floor levels
	NodeTypeVenue       NodeType = "venue"       // venue sections
)

// ValidNodeType reports whether t is one of the known hierarchy types.
func ValidNodeType(t NodeType) bool {
	switch t {
	case NodeTypeCategory, NodeTypeDesignation, NodeTypeTower, NodeTypeVenue:
		return true
	}
	return false
}

// Node is one element of a self-referencing hierarchy (a category, a
// designation, a tower block, a venue section). ParentID is a weak
// back-reference: a node records who its parent is but does not own it.
type Node struct {
	ID          uuid.UUID  `json:"id"`
	Type        NodeType   `json:"type"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	Active      bool       `json:"active"`
	SortOrder   int        `json:"sort_order"`
	CreatedBy   *uuid.UUID `json:"created_by"`
	UpdatedBy   *uuid.UUID `json:"updated_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsRoot returns true if the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// TreeNode is a read-only projection of a Node annotated with its assembled
// children. Children is always non-nil so childless nodes serialize as []
// rather than null.
type TreeNode struct {
	Node
	Depth    int        `json:"depth"`
	Children []TreeNode `json:"children"`
}

// CapacitySnapshot is a derived occupancy rollup for a node (optionally
// including its whole subtree). It is computed on read and never persisted.
type CapacitySnapshot struct {
	Total     int     `json:"total"`
	Available int     `json:"available"`
	Occupied  int     `json:"occupied"`
	Rate      float64 `json:"occupancy_rate"`
}
