// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"templedesk/internal/capacity"
	"templedesk/internal/models"
	"templedesk/internal/store"
)

// Slots groups the slot HTTP handlers: provisioning capacity under a node,
// blocking slots out of service, and releasing them.
type Slots struct {
	slots *store.SlotStore
	nodes *store.NodeStore
	stats *capacity.CachedAggregator
}

// NewSlots creates the slot handler group.
func NewSlots(slots *store.SlotStore, nodes *store.NodeStore, stats *capacity.CachedAggregator) *Slots {
	return &Slots{slots: slots, nodes: nodes, stats: stats}
}

// invalidateStats drops cached rollups for the slot's node and every
// ancestor, since a slot mutation changes all of their rollups.
func (h *Slots) invalidateStats(r *http.Request, sl *models.Slot) {
	ids, err := h.nodes.AncestorIDs(r.Context(), sl.NodeID)
	if err != nil || len(ids) == 0 {
		// Fall back to the owning node alone; the TTL bounds any staleness.
		h.stats.Invalidate(r.Context(), sl.NodeID)
		return
	}
	h.stats.Invalidate(r.Context(), ids...)
}

// ListByNode returns the slots directly under a node.
// GET /api/v1/nodes/{id}/slots
func (h *Slots) ListByNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid node id")
		return
	}
	slots, err := h.slots.ListByNode(r.Context(), nodeID)
	if err != nil {
		respondError(w, err)
		return
	}
	if slots == nil {
		slots = []models.Slot{}
	}
	respond(w, http.StatusOK, slots)
}

// Create provisions slots under a node. With count > 1 the slots are
// numbered from the label prefix in one transaction.
// POST /api/v1/nodes/{id}/slots
func (h *Slots) Create(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid node id")
		return
	}
	var req struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}
	req.Label = strings.TrimSpace(req.Label)
	if msg := validateSlotLabel(req.Label); msg != "" {
		respondBadRequest(w, msg)
		return
	}
	if req.Count > maxSlotBatch {
		respondBadRequest(w, "Count is too large (max 1,000 slots per batch).")
		return
	}

	if req.Count > 1 {
		slots, err := h.slots.CreateBatch(r.Context(), nodeID, req.Label, req.Count)
		if err != nil {
			respondError(w, err)
			return
		}
		h.invalidateStats(r, &slots[0])
		respond(w, http.StatusCreated, slots)
		return
	}

	sl, err := h.slots.Create(r.Context(), nodeID, req.Label)
	if err != nil {
		respondError(w, err)
		return
	}
	h.invalidateStats(r, sl)
	respond(w, http.StatusCreated, sl)
}

// SetOccupancy blocks a slot out of service or releases it. Booking goes
// through the bookings endpoint, not here.
// POST /api/v1/slots/{id}/occupancy
func (h *Slots) SetOccupancy(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid slot id")
		return
	}
	var req struct {
		Occupancy string `json:"occupancy"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}
	o := models.Occupancy(req.Occupancy)
	if o == models.OccupancyBooked {
		respondBadRequest(w, "slots are booked through the bookings endpoint")
		return
	}
	sl, err := h.slots.SetOccupancy(r.Context(), id, o)
	if err != nil {
		respondError(w, err)
		return
	}
	h.invalidateStats(r, sl)
	respond(w, http.StatusOK, sl)
}

// Delete removes an unbooked slot.
// DELETE /api/v1/slots/{id}
func (h *Slots) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid slot id")
		return
	}
	sl, err := h.slots.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.slots.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	if sl != nil {
		h.invalidateStats(r, sl)
	}
	respond(w, http.StatusOK, map[string]string{"deleted": id.String()})
}
