// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a slot booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingVerified  BookingStatus = "verified" // QR ticket scanned at the temple
	BookingCancelled BookingStatus = "cancelled"
)

// Booking records the reservation of one slot by a devotee. Reference is
// the human-readable booking number printed on the ticket; the QR payload
// carries the booking ID in encrypted form.
type Booking struct {
	ID           uuid.UUID     `json:"id"`
	SlotID       uuid.UUID     `json:"slot_id"`
	DevoteeName  string        `json:"devotee_name"`
	DevoteePhone string        `json:"devotee_phone"`
	Reference    string        `json:"reference"`
	Status       BookingStatus `json:"status"`
	BookedAt     time.Time     `json:"booked_at"`
	VerifiedAt   *time.Time    `json:"verified_at"`
}
