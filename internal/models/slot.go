// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Occupancy is the state of a single capacity slot.
type Occupancy string

const (
	OccupancyAvailable Occupancy = "available"
	OccupancyBooked    Occupancy = "booked"
	OccupancyBlocked   Occupancy = "blocked" // held out of service, counts as occupied
)

// ValidOccupancy reports whether o is a known occupancy state.
func ValidOccupancy(o Occupancy) bool {
	switch o {
	case OccupancyAvailable, OccupancyBooked, OccupancyBlocked:
		return true
	}
	return false
}

// Slot is a terminal capacity unit owned by exactly one node — a light slot
// under a tower floor, a seat under a venue section, an item position under
// an inventory category.
type Slot struct {
	ID        uuid.UUID `json:"id"`
	NodeID    uuid.UUID `json:"node_id"`
	Label     string    `json:"label"`
	Occupancy Occupancy `json:"occupancy"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
