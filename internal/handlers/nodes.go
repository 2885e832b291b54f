// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"templedesk/internal/capacity"
	"templedesk/internal/hierarchy"
	"templedesk/internal/middleware"
	"templedesk/internal/models"
)

// Nodes groups the hierarchy-node HTTP handlers: CRUD, reparenting,
// activation toggles, tree assembly, and capacity statistics.
type Nodes struct {
	service *hierarchy.Service
	stats   *capacity.CachedAggregator
}

// NewNodes creates the node handler group.
func NewNodes(service *hierarchy.Service, stats *capacity.CachedAggregator) *Nodes {
	return &Nodes{service: service, stats: stats}
}

// nodeRequest is the JSON body for create and update.
type nodeRequest struct {
	Type        string     `json:"type"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   int        `json:"sort_order"`
	Active      *bool      `json:"active"`
}

// input converts the request body to a service NodeInput, stamping the
// acting user from the session.
func (req *nodeRequest) input(r *http.Request) hierarchy.NodeInput {
	in := hierarchy.NodeInput{
		Type:        models.NodeType(req.Type),
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
		Active:      req.Active,
	}
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		actor := sess.UserID
		in.ActorID = &actor
	}
	return in
}

// List returns all live nodes of one hierarchy in display order.
// GET /api/v1/nodes?type=category
func (h *Nodes) List(w http.ResponseWriter, r *http.Request) {
	t := models.NodeType(r.URL.Query().Get("type"))
	if !models.ValidNodeType(t) {
		respondBadRequest(w, "unknown or missing type parameter")
		return
	}
	if r.URL.Query().Get("all") == "true" {
		// Flattened depth-first listing of the whole hierarchy, with Depth
		// set for indentation.
		forest, err := h.service.Tree(r.Context(), t)
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, hierarchy.Flatten(forest))
		return
	}
	nodes, err := h.service.Roots(r.Context(), t)
	if err != nil {
		respondError(w, err)
		return
	}
	if nodes == nil {
		nodes = []models.Node{}
	}
	respond(w, http.StatusOK, nodes)
}

// Tree returns the assembled forest for one hierarchy.
// GET /api/v1/nodes/tree?type=tower
func (h *Nodes) Tree(w http.ResponseWriter, r *http.Request) {
	t := models.NodeType(r.URL.Query().Get("type"))
	if !models.ValidNodeType(t) {
		respondBadRequest(w, "unknown or missing type parameter")
		return
	}
	forest, err := h.service.Tree(r.Context(), t)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, forest)
}

// Get returns one node by id.
// GET /api/v1/nodes/{id}
func (h *Nodes) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid node id")
		return
	}
	node, err := h.service.Node(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, node)
}

// Children lists the direct children of a node.
// GET /api/v1/nodes/{id}/children
func (h *Nodes) Children(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid node id")
		return
	}
	children, err := h.service.Children(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if children == nil {
		children = []models.Node{}
	}
	respond(w, http.StatusOK, children)
}

// Create inserts a new node.
// POST /api/v1/nodes
func (h *Nodes) Create(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}
	if msg := validateNode(req.Name, req.Code, req.Description); msg != "" {
		respondBadRequest(w, msg)
		return
	}
	node, err := h.service.Create(r.Context(), req.input(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, node)
}

// Update mutates a node's attributes.
// PUT /api/v1/nodes/{id}
func (h *Nodes) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid node id")
		return
	}
	var req nodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}
	if msg := validateNode(req.Name, req.Code, req.Description); msg != "" {
		respondBadRequest(w, msg)
		return
	}
	node, err := h.service.Update(r.Context(), id, req.input(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, node)
}

// Delete removes a node once the mutation guard allows it.
// DELETE /api/v1/nodes/{id}
func (h *Nodes) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid node id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"deleted": id.String()})
}

// Reparent moves a node under a new parent, or to the root when parent_id
// is null.
// POST /api/v1/nodes/{id}/reparent
func (h *Nodes) Reparent(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid node id")
		return
	}
	var req struct {
		ParentID *uuid.UUID `json:"parent_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}
	node, err := h.service.Reparent(r.Context(), id, req.ParentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, node)
}

// ToggleActive flips a node's active flag.
// POST /api/v1/nodes/{id}/toggle
func (h *Nodes) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid node id")
		return
	}
	var actor *uuid.UUID
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		a := sess.UserID
		actor = &a
	}
	node, err := h.service.ToggleActive(r.Context(), id, actor)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, node)
}

// Statistics returns the capacity rollup for a node. The subtree scope is
// the default; pass descendants=false for just the node's own slots.
// GET /api/v1/nodes/{id}/statistics
func (h *Nodes) Statistics(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid node id")
		return
	}
	includeDescendants := r.URL.Query().Get("descendants") != "false"
	snap, err := h.stats.Statistics(r.Context(), id, includeDescendants)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, snap)
}
