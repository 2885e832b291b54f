package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"templedesk/internal/hierarchy"
	"templedesk/internal/models"
)

func TestSlotStoreCreate(t *testing.T) {
	db := testDB(t)
	nodes := NewNodeStore(db)
	slots := NewSlotStore(db)
	prefix := testPrefix()
	ctx := context.Background()
	t.Cleanup(func() { cleanNodes(t, db, prefix) })

	floor := mustNode(t, nodes, models.NodeTypeTower, prefix, 1, nil)

	sl, err := slots.Create(ctx, floor.ID, "niche-a1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sl.Occupancy != models.OccupancyAvailable {
		t.Errorf("new slot occupancy: got %q, want available", sl.Occupancy)
	}
	if sl.NodeID != floor.ID {
		t.Errorf("node id: got %s, want %s", sl.NodeID, floor.ID)
	}
}

func TestSlotStoreCreateUnderMissingNode(t *testing.T) {
	db := testDB(t)
	slots := NewSlotStore(db)

	_, err := slots.Create(context.Background(), uuid.New(), "ghost")
	var refErr *hierarchy.ReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferenceError, got %v", err)
	}
	if refErr.Field != "node_id" {
		t.Errorf("field: got %q, want node_id", refErr.Field)
	}
}

func TestSlotStoreCreateBatch(t *testing.T) {
	db := testDB(t)
	nodes := NewNodeStore(db)
	slots := NewSlotStore(db)
	prefix := testPrefix()
	ctx := context.Background()
	t.Cleanup(func() { cleanNodes(t, db, prefix) })

	floor := mustNode(t, nodes, models.NodeTypeTower, prefix, 1, nil)

	batch, err := slots.CreateBatch(ctx, floor.ID, "niche", 5)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if len(batch) != 5 {
		t.Fatalf("batch size: got %d, want 5", len(batch))
	}
	for i, sl := range batch {
		want := fmt.Sprintf("niche-%d", i+1)
		if sl.Label != want {
			t.Errorf("label %d: got %q, want %q", i, sl.Label, want)
		}
	}

	_, err = slots.CreateBatch(ctx, floor.ID, "bad", 0)
	var vErr *hierarchy.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("zero count: expected ValidationError, got %v", err)
	}
}

func TestSlotStoreSetOccupancy(t *testing.T) {
	db := testDB(t)
	nodes := NewNodeStore(db)
	slots := NewSlotStore(db)
	prefix := testPrefix()
	ctx := context.Background()
	t.Cleanup(func() { cleanNodes(t, db, prefix) })

	floor := mustNode(t, nodes, models.NodeTypeTower, prefix, 1, nil)
	sl, err := slots.Create(ctx, floor.ID, "niche-a1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	blocked, err := slots.SetOccupancy(ctx, sl.ID, models.OccupancyBlocked)
	if err != nil {
		t.Fatalf("SetOccupancy: %v", err)
	}
	if blocked.Occupancy != models.OccupancyBlocked {
		t.Errorf("occupancy: got %q, want blocked", blocked.Occupancy)
	}

	_, err = slots.SetOccupancy(ctx, sl.ID, "parked")
	var vErr *hierarchy.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("invalid state: expected ValidationError, got %v", err)
	}

	_, err = slots.SetOccupancy(ctx, uuid.New(), models.OccupancyAvailable)
	var nfErr *hierarchy.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Errorf("unknown slot: expected NotFoundError, got %v", err)
	}
}

func TestSlotStoreDeleteBookedRefused(t *testing.T) {
	db := testDB(t)
	nodes := NewNodeStore(db)
	slots := NewSlotStore(db)
	bookings := NewBookingStore(db)
	prefix := testPrefix()
	ctx := context.Background()
	t.Cleanup(func() { cleanNodes(t, db, prefix) })

	floor := mustNode(t, nodes, models.NodeTypeTower, prefix, 1, nil)
	sl, err := slots.Create(ctx, floor.ID, "niche-a1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, _, err := bookings.Book(ctx, floor.ID, "Devotee", ""); err != nil {
		t.Fatalf("Book: %v", err)
	}

	err = slots.Delete(ctx, sl.ID)
	var sErr *hierarchy.StructuralError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected StructuralError for booked slot, got %v", err)
	}
	if sErr.Reason != hierarchy.ReasonHasDependents {
		t.Errorf("reason: got %q, want %q", sErr.Reason, hierarchy.ReasonHasDependents)
	}
}

func TestSlotStoreDelete(t *testing.T) {
	db := testDB(t)
	nodes := NewNodeStore(db)
	slots := NewSlotStore(db)
	prefix := testPrefix()
	ctx := context.Background()
	t.Cleanup(func() { cleanNodes(t, db, prefix) })

	floor := mustNode(t, nodes, models.NodeTypeTower, prefix, 1, nil)
	sl, err := slots.Create(ctx, floor.ID, "niche-a1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := slots.Delete(ctx, sl.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	found, err := slots.FindByID(ctx, sl.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found != nil {
		t.Error("slot still present after delete")
	}

	err = slots.Delete(ctx, sl.ID)
	var nfErr *hierarchy.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Errorf("second delete: expected NotFoundError, got %v", err)
	}
}
