// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"templedesk/internal/models"
	"templedesk/internal/slug"
)

// NodeWriter is the full store surface the service needs: the guard's read
// surface plus persistence and listing.
type NodeWriter interface {
	NodeReader
	Insert(ctx context.Context, n *models.Node) error
	Save(ctx context.Context, n *models.Node) error
	Remove(ctx context.Context, id uuid.UUID) error
	ListByType(ctx context.Context, t models.NodeType) ([]models.Node, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.Node, error)
	ListRoots(ctx context.Context, t models.NodeType) ([]models.Node, error)
}

// NodeInput carries the caller-supplied attributes for creating or
// updating a node. Code is normalized; when empty on create it is derived
// from the name.
type NodeInput struct {
	Type        models.NodeType
	Code        string
	Name        string
	Description string
	ParentID    *uuid.UUID
	SortOrder   int
	Active      *bool // nil = leave unchanged (update) / default true (create)
	ActorID     *uuid.UUID
}

// Service is the write front door for hierarchy nodes. Every structural
// edit goes through the mutation guard before it reaches the store.
type Service struct {
	nodes NodeWriter
	guard *Guard
}

// NewService creates a hierarchy service over the given store and guard.
func NewService(nodes NodeWriter, guard *Guard) *Service {
	return &Service{nodes: nodes, guard: guard}
}

// Guard exposes the underlying mutation guard so modules can register
// their own dependency checks.
func (s *Service) Guard() *Guard {
	return s.guard
}

// Create validates the input and inserts a new node. The business code
// must be unique among live nodes of the same type, and the parent (when
// supplied) must be a live node of the same type.
func (s *Service) Create(ctx context.Context, in NodeInput) (*models.Node, error) {
	if !models.ValidNodeType(in.Type) {
		return nil, &ValidationError{Field: "type", Detail: "unknown node type"}
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Detail: "name is required"}
	}

	code := normalizeCode(in.Code)
	if code == "" {
		code = normalizeCode(name)
	}
	if code == "" {
		return nil, &ValidationError{Field: "code", Detail: "code is required"}
	}

	free, err := s.guard.CanRename(ctx, in.Type, code, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, &ValidationError{Field: "code", Detail: "code already in use"}
	}

	if in.ParentID != nil {
		parent, err := s.nodes.FindByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, &ReferenceError{Field: "parent_id", ID: *in.ParentID}
		}
		if parent.Type != in.Type {
			return nil, &ValidationError{Field: "parent_id", Detail: "parent belongs to a different hierarchy"}
		}
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	node := &models.Node{
		ID:          uuid.New(),
		Type:        in.Type,
		Code:        code,
		Name:        name,
		Description: in.Description,
		ParentID:    in.ParentID,
		Active:      active,
		SortOrder:   in.SortOrder,
		CreatedBy:   in.ActorID,
		UpdatedBy:   in.ActorID,
	}
	if err := s.nodes.Insert(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Update mutates an existing node's attributes. Code collisions and parent
// changes are re-checked against the current snapshot; a parent change
// that would close a cycle is rejected by the guard.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in NodeInput) (*models.Node, error) {
	node, err := s.nodes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &NotFoundError{ID: id}
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		node.Name = name
	}
	node.Description = in.Description
	node.SortOrder = in.SortOrder
	if in.Active != nil {
		node.Active = *in.Active
	}
	node.UpdatedBy = in.ActorID

	if code := normalizeCode(in.Code); code != "" && code != node.Code {
		free, err := s.guard.CanRename(ctx, node.Type, code, node.ID)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, &ValidationError{Field: "code", Detail: "code already in use"}
		}
		node.Code = code
	}

	if !sameParent(node.ParentID, in.ParentID) {
		if err := s.checkReparent(ctx, node, in.ParentID); err != nil {
			return nil, err
		}
		node.ParentID = in.ParentID
	}

	if err := s.nodes.Save(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Reparent moves a node under a new parent (or to the root when newParent
// is nil) without touching its other attributes.
func (s *Service) Reparent(ctx context.Context, id uuid.UUID, newParent *uuid.UUID) (*models.Node, error) {
	node, err := s.nodes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &NotFoundError{ID: id}
	}
	if sameParent(node.ParentID, newParent) {
		return node, nil
	}
	if err := s.checkReparent(ctx, node, newParent); err != nil {
		return nil, err
	}
	node.ParentID = newParent
	if err := s.nodes.Save(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// checkReparent runs the guard's cycle check and verifies the new parent
// is a live node of the same hierarchy.
func (s *Service) checkReparent(ctx context.Context, node *models.Node, newParent *uuid.UUID) error {
	if newParent == nil {
		return nil // moving to root can never create a cycle
	}
	parent, err := s.nodes.FindByID(ctx, *newParent)
	if err != nil {
		return err
	}
	if parent == nil {
		return &ReferenceError{Field: "parent_id", ID: *newParent}
	}
	if parent.Type != node.Type {
		return &ValidationError{Field: "parent_id", Detail: "parent belongs to a different hierarchy"}
	}
	decision, err := s.guard.CanReparent(ctx, node.ID, *newParent)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &StructuralError{Reason: decision.Reason}
	}
	return nil
}

// Delete removes a node after the guard confirms it has no live children,
// slots, or module dependents. The store performs the removal
// unconditionally once the guard has passed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	decision, err := s.guard.CanDelete(ctx, id)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &StructuralError{Reason: decision.Reason}
	}
	return s.nodes.Remove(ctx, id)
}

// ToggleActive flips a node's active flag and returns the updated node.
func (s *Service) ToggleActive(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (*models.Node, error) {
	node, err := s.nodes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &NotFoundError{ID: id}
	}
	node.Active = !node.Active
	node.UpdatedBy = actor
	if err := s.nodes.Save(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Node returns a single node by id.
func (s *Service) Node(ctx context.Context, id uuid.UUID) (*models.Node, error) {
	node, err := s.nodes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, &NotFoundError{ID: id}
	}
	return node, nil
}

// Children lists the direct children of a node in display order.
func (s *Service) Children(ctx context.Context, parentID uuid.UUID) ([]models.Node, error) {
	return s.nodes.ListChildren(ctx, parentID)
}

// Roots lists the root nodes of one hierarchy in display order.
func (s *Service) Roots(ctx context.Context, t models.NodeType) ([]models.Node, error) {
	return s.nodes.ListRoots(ctx, t)
}

// Tree assembles the full forest for one hierarchy type.
func (s *Service) Tree(ctx context.Context, t models.NodeType) ([]models.TreeNode, error) {
	nodes, err := s.nodes.ListByType(ctx, t)
	if err != nil {
		return nil, err
	}
	return BuildTree(nodes)
}

// normalizeCode slug-normalizes and uppercases a business code so that
// "ct0001" and "CT0001" collide and stray punctuation is stripped.
func normalizeCode(code string) string {
	return strings.ToUpper(slug.Generate(code))
}

// sameParent compares two optional parent references.
func sameParent(a, b *uuid.UUID) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
