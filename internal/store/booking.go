// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"templedesk/internal/hierarchy"
	"templedesk/internal/models"
)

// maxClaimAttempts bounds the retry loop when a booking transaction loses
// a serialization race. After this many failures the conflict surfaces to
// the caller.
const maxClaimAttempts = 3

// BookingStore manages slot bookings. Claiming a slot and recording the
// booking happen in one transaction: either both persist or neither does.
type BookingStore struct {
	db *sql.DB
}

// NewBookingStore returns a new BookingStore.
func NewBookingStore(db *sql.DB) *BookingStore {
	return &BookingStore{db: db}
}

const bookingColumns = `id, slot_id, devotee_name, devotee_phone, reference, status, booked_at, verified_at`

// scanBooking scans a row into a Booking struct.
func scanBooking(scanner interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	err := scanner.Scan(&b.ID, &b.SlotID, &b.DevoteeName, &b.DevoteePhone,
		&b.Reference, &b.Status, &b.BookedAt, &b.VerifiedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Book claims one available slot under the given node and records a
// confirmed booking for it. Returns the booking and the claimed slot.
// When every slot under the node is taken, returns a StructuralError so
// the caller can surface "fully booked" rather than a generic failure.
// Serialization conflicts are retried up to maxClaimAttempts times.
func (s *BookingStore) Book(ctx context.Context, nodeID uuid.UUID, devoteeName, devoteePhone string) (*models.Booking, *models.Slot, error) {
	var lastErr error
	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		booking, slot, err := s.bookOnce(ctx, nodeID, devoteeName, devoteePhone)
		if err == nil {
			return booking, slot, nil
		}
		if !errors.Is(err, hierarchy.ErrConflict) {
			return nil, nil, err
		}
		lastErr = err
	}
	return nil, nil, lastErr
}

// bookOnce runs one claim-and-record transaction.
func (s *BookingStore) bookOnce(ctx context.Context, nodeID uuid.UUID, devoteeName, devoteePhone string) (*models.Booking, *models.Slot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	slot, err := claimAvailable(ctx, tx, nodeID)
	if err != nil {
		if isSerializationFailure(err) {
			return nil, nil, hierarchy.ErrConflict
		}
		return nil, nil, err
	}
	if slot == nil {
		return nil, nil, &hierarchy.StructuralError{Reason: hierarchy.ReasonHasDependents, Detail: "no available slot under node"}
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO bookings (id, slot_id, devotee_name, devotee_phone, reference, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+bookingColumns,
		uuid.New(), slot.ID, devoteeName, devoteePhone, newReference(), models.BookingConfirmed)
	booking, err := scanBooking(row)
	if err != nil {
		return nil, nil, fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return nil, nil, hierarchy.ErrConflict
		}
		return nil, nil, fmt.Errorf("commit booking: %w", err)
	}
	return booking, slot, nil
}

// FindByID retrieves a booking by ID. Returns nil if not found.
func (s *BookingStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find booking by id: %w", err)
	}
	return b, nil
}

// FindByReference retrieves a booking by its human-readable reference.
func (s *BookingStore) FindByReference(ctx context.Context, ref string) (*models.Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE reference = $1`, strings.ToUpper(ref))
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find booking by reference: %w", err)
	}
	return b, nil
}

// MarkVerified transitions a confirmed booking to verified, recording the
// scan time. Verifying an already-verified or cancelled booking fails.
func (s *BookingStore) MarkVerified(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE bookings SET status = $1, verified_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+bookingColumns,
		models.BookingVerified, id, models.BookingConfirmed)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		existing, findErr := s.FindByID(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		if existing == nil {
			return nil, &hierarchy.NotFoundError{ID: id}
		}
		return nil, &hierarchy.ValidationError{Field: "status", Detail: fmt.Sprintf("booking is %s, not confirmed", existing.Status)}
	}
	if err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	return b, nil
}

// Cancel cancels a booking and releases its slot back to available, in one
// transaction.
func (s *BookingStore) Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		UPDATE bookings SET status = $1
		WHERE id = $2 AND status IN ($3, $4)
		RETURNING `+bookingColumns,
		models.BookingCancelled, id, models.BookingConfirmed, models.BookingVerified)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &hierarchy.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE slots SET occupancy = $1, updated_at = NOW() WHERE id = $2`,
		models.OccupancyAvailable, b.SlotID); err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel: %w", err)
	}
	return b, nil
}

// CountActiveUnderNode counts confirmed or verified bookings on slots in
// the subtree rooted at nodeID. Registered with the mutation guard as the
// tower/venue dependency check: a block with live bookings cannot be
// deleted even after its slots are cleared out.
func (s *BookingStore) CountActiveUnderNode(ctx context.Context, nodeID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM nodes WHERE id = $1 AND deleted_at IS NULL
			UNION ALL
			SELECT n.id FROM nodes n JOIN subtree st ON n.parent_id = st.id
			WHERE n.deleted_at IS NULL
		)
		SELECT COUNT(*) FROM bookings b
		JOIN slots sl ON sl.id = b.slot_id
		JOIN subtree st ON st.id = sl.node_id
		WHERE b.status IN ($2, $3)`,
		nodeID, models.BookingConfirmed, models.BookingVerified).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active bookings: %w", err)
	}
	return count, nil
}

// newReference generates a short human-readable booking reference.
func newReference() string {
	return "BK-" + strings.ToUpper(uuid.NewString()[:8])
}

// isSerializationFailure reports whether err is a Postgres serialization
// failure or deadlock (SQLSTATE 40001 / 40P01), both safe to retry.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
