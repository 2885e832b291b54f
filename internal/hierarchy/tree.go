// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"sort"

	"github.com/google/uuid"

	"templedesk/internal/models"
)

// BuildTree assembles a flat node list into an ordered forest of
// TreeNode projections. Siblings are ordered by sort order, then business
// code, so repeated calls produce identical listings. A node whose parent
// is missing from the input is treated as a root.
//
// The walk keeps a visited set: if the input somehow contains a cycle the
// store invariants should have prevented, BuildTree returns a
// StructuralError instead of recursing forever.
func BuildTree(nodes []models.Node) ([]models.TreeNode, error) {
	byID := make(map[uuid.UUID]models.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	children := make(map[uuid.UUID][]models.Node)
	var roots []models.Node
	for _, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		if _, ok := byID[*n.ParentID]; !ok {
			roots = append(roots, n)
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], n)
	}

	sortSiblings(roots)
	for id := range children {
		sortSiblings(children[id])
	}

	visited := make(map[uuid.UUID]struct{}, len(nodes))
	var build func(n models.Node, depth int) models.TreeNode
	build = func(n models.Node, depth int) models.TreeNode {
		visited[n.ID] = struct{}{}
		tn := models.TreeNode{Node: n, Depth: depth, Children: []models.TreeNode{}}
		for _, c := range children[n.ID] {
			if _, seen := visited[c.ID]; seen {
				continue
			}
			tn.Children = append(tn.Children, build(c, depth+1))
		}
		return tn
	}

	forest := make([]models.TreeNode, 0, len(roots))
	for _, r := range roots {
		if _, seen := visited[r.ID]; seen {
			continue
		}
		forest = append(forest, build(r, 0))
	}

	// Every node must have been reached from a root. Anything left over sits
	// on a parent chain that never terminates, which means a cycle.
	if len(visited) != len(byID) {
		return nil, &StructuralError{Reason: ReasonCycle, Detail: "storage contains an unreachable parent chain"}
	}

	return forest, nil
}

// sortSiblings orders one level of the tree: sort order first, business
// code as the tie-break, id last so equal codes still order stably.
func sortSiblings(nodes []models.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].SortOrder != nodes[j].SortOrder {
			return nodes[i].SortOrder < nodes[j].SortOrder
		}
		if nodes[i].Code != nodes[j].Code {
			return nodes[i].Code < nodes[j].Code
		}
		return nodes[i].ID.String() < nodes[j].ID.String()
	})
}

// Flatten walks a forest depth-first and returns the nodes in display
// order with Depth set. Useful for indentation in select dropdowns.
func Flatten(forest []models.TreeNode) []models.TreeNode {
	var out []models.TreeNode
	var walk func(nodes []models.TreeNode)
	walk = func(nodes []models.TreeNode) {
		for _, n := range nodes {
			out = append(out, n)
			if len(n.Children) > 0 {
				walk(n.Children)
			}
		}
	}
	walk(forest)
	return out
}
