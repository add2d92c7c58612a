package mealslot

import (
	"context"
	"testing"

	"mealmesh/internal/modules/timewindow"
	"mealmesh/internal/types"
)

type memStore struct {
	slots map[types.ID]*MealSlot
}

func newMemStore() *memStore {
	return &memStore{slots: map[types.ID]*MealSlot{}}
}

func (m *memStore) Create(_ context.Context, slot *MealSlot) error {
	cp := *slot
	m.slots[slot.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*MealSlot, error) {
	slot, ok := m.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *slot
	return &cp, nil
}

func (m *memStore) ListByVendor(_ context.Context, vendorID types.ID, activeOnly bool) ([]MealSlot, error) {
	var out []MealSlot
	for _, slot := range m.slots {
		if slot.VendorID != vendorID {
			continue
		}
		if activeOnly && !slot.IsActive {
			continue
		}
		out = append(out, *slot)
	}
	return out, nil
}

func (m *memStore) Deactivate(_ context.Context, id types.ID) error {
	slot, ok := m.slots[id]
	if !ok {
		return ErrNotFound
	}
	slot.IsActive = false
	return nil
}

func TestCreateValidatesInvariant(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	slot, err := svc.Create(ctx, CreateCommand{
		VendorID:      "v1",
		Name:          "Lunch",
		Start:         "12:00",
		End:           "14:00",
		Cutoff:        "10:00",
		WindowMinutes: 30,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !slot.IsActive {
		t.Error("new slot should be active")
	}

	_, err = svc.Create(ctx, CreateCommand{
		VendorID:      "v1",
		Name:          "Broken",
		Start:         "12:00",
		End:           "14:00",
		Cutoff:        "13:00", // cutoff after start
		WindowMinutes: 30,
	})
	if err != timewindow.ErrInvalidSlotConfiguration {
		t.Errorf("err = %v, want ErrInvalidSlotConfiguration", err)
	}

	_, err = svc.Create(ctx, CreateCommand{
		VendorID: "v1", Name: "Bad clock", Start: "noon", End: "14:00", Cutoff: "10:00", WindowMinutes: 30,
	})
	if err != timewindow.ErrInvalidTimeFormat {
		t.Errorf("err = %v, want ErrInvalidTimeFormat", err)
	}
}

func TestDeactivateIsSoftDelete(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	slot, err := svc.Create(ctx, CreateCommand{
		VendorID: "v1", Name: "Dinner", Start: "19:00", End: "22:00", Cutoff: "17:00", WindowMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Deactivate(ctx, slot.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	// Still resolvable for orders that reference it.
	got, err := svc.Get(ctx, slot.ID)
	if err != nil {
		t.Fatalf("Get after deactivate: %v", err)
	}
	if got.IsActive {
		t.Error("slot should be inactive")
	}

	active, err := svc.Slots(ctx, "v1", true)
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active slots = %d, want 0", len(active))
	}
	all, err := svc.Slots(ctx, "v1", false)
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("all slots = %d, want 1", len(all))
	}
}

func TestDeliveryWindows(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	slot, err := svc.Create(ctx, CreateCommand{
		VendorID: "v1", Name: "Lunch", Start: "12:00", End: "14:00", Cutoff: "10:00", WindowMinutes: 30,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	windows, err := svc.DeliveryWindows(ctx, slot.ID)
	if err != nil {
		t.Fatalf("DeliveryWindows: %v", err)
	}
	if len(windows) != 4 {
		t.Errorf("got %d windows, want 4", len(windows))
	}

	if _, err := svc.DeliveryWindows(ctx, "missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
