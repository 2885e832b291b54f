// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"templedesk/internal/capacity"
	"templedesk/internal/models"
	"templedesk/internal/qrticket"
	"templedesk/internal/store"
)

// Bookings groups the booking HTTP handlers: reserving a slot under a
// node, issuing the encrypted QR ticket, and verifying a scanned ticket.
type Bookings struct {
	bookings *store.BookingStore
	slots    *store.SlotStore
	nodes    *store.NodeStore
	stats    *capacity.CachedAggregator
	issuer   *qrticket.Issuer
}

// NewBookings creates the booking handler group.
func NewBookings(bookings *store.BookingStore, slots *store.SlotStore, nodes *store.NodeStore, stats *capacity.CachedAggregator, issuer *qrticket.Issuer) *Bookings {
	return &Bookings{bookings: bookings, slots: slots, nodes: nodes, stats: stats, issuer: issuer}
}

// bookingResponse is the booking plus its issued ticket.
type bookingResponse struct {
	Booking *models.Booking `json:"booking"`
	Slot    *models.Slot    `json:"slot,omitempty"`
	// QRPayload is the sealed ticket string the QR image encodes; clients
	// that render their own code can use it directly.
	QRPayload string `json:"qr_payload,omitempty"`
	// QRImage is the ticket QR code as a base64 PNG.
	QRImage string `json:"qr_image,omitempty"`
}

// Create books one available slot under the given node and returns the
// booking with its QR ticket. Responds 409 when the node is fully booked.
// POST /api/v1/bookings
func (h *Bookings) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NodeID       string `json:"node_id"`
		DevoteeName  string `json:"devotee_name"`
		DevoteePhone string `json:"devotee_phone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}
	if msg := validateBooking(req.DevoteeName, req.DevoteePhone); msg != "" {
		respondBadRequest(w, msg)
		return
	}
	nodeID, err := uuid.Parse(req.NodeID)
	if err != nil {
		respondBadRequest(w, "invalid node_id")
		return
	}

	booking, slot, err := h.bookings.Book(r.Context(), nodeID, strings.TrimSpace(req.DevoteeName), strings.TrimSpace(req.DevoteePhone))
	if err != nil {
		respondError(w, err)
		return
	}

	// The claimed slot changed this node's rollup and every ancestor's.
	if ids, aerr := h.nodes.AncestorIDs(r.Context(), slot.NodeID); aerr == nil && len(ids) > 0 {
		h.stats.Invalidate(r.Context(), ids...)
	} else {
		h.stats.Invalidate(r.Context(), slot.NodeID)
	}

	resp := &bookingResponse{Booking: booking, Slot: slot}
	payload, err := h.issuer.Seal(&qrticket.Ticket{
		BookingID: booking.ID,
		Reference: booking.Reference,
		SlotID:    booking.SlotID,
		IssuedAt:  time.Now(),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	resp.QRPayload = payload

	png, err := qrticket.PNG(payload)
	if err != nil {
		respondError(w, err)
		return
	}
	resp.QRImage = base64.StdEncoding.EncodeToString(png)

	respond(w, http.StatusCreated, resp)
}

// Get returns one booking by id.
// GET /api/v1/bookings/{id}
func (h *Bookings) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid booking id")
		return
	}
	booking, err := h.bookings.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if booking == nil {
		respondNotFound(w, "booking not found")
		return
	}
	respond(w, http.StatusOK, booking)
}

// Verify decrypts a scanned QR payload and marks the booking verified.
// A forged or tampered payload, or a booking that is not in the confirmed
// state, is rejected.
// POST /api/v1/bookings/verify
func (h *Bookings) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payload string `json:"payload"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid JSON body")
		return
	}

	ticket, err := h.issuer.Open(strings.TrimSpace(req.Payload))
	if err != nil {
		respondBadRequest(w, "ticket is not valid")
		return
	}

	booking, err := h.bookings.MarkVerified(r.Context(), ticket.BookingID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, booking)
}

// Cancel cancels a booking and releases its slot.
// POST /api/v1/bookings/{id}/cancel
func (h *Bookings) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid booking id")
		return
	}
	booking, err := h.bookings.Cancel(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	if slot, serr := h.slots.FindByID(r.Context(), booking.SlotID); serr == nil && slot != nil {
		if ids, aerr := h.nodes.AncestorIDs(r.Context(), slot.NodeID); aerr == nil && len(ids) > 0 {
			h.stats.Invalidate(r.Context(), ids...)
		} else {
			h.stats.Invalidate(r.Context(), slot.NodeID)
		}
	}
	respond(w, http.StatusOK, booking)
}
