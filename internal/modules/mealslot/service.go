// README: Meal slot service; creation invariants and delivery window enumeration.
package mealslot

import (
	"context"

	"github.com/google/uuid"

	"mealmesh/internal/modules/timewindow"
	"mealmesh/internal/types"
)

// SlotStore is the persistence surface the service needs; *Store implements it.
type SlotStore interface {
	Create(ctx context.Context, m *MealSlot) error
	Get(ctx context.Context, id types.ID) (*MealSlot, error)
	ListByVendor(ctx context.Context, vendorID types.ID, activeOnly bool) ([]MealSlot, error)
	Deactivate(ctx context.Context, id types.ID) error
}

type Service struct {
	store SlotStore
}

func NewService(store SlotStore) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	VendorID      types.ID
	Name          string
	Start         string
	End           string
	Cutoff        string
	WindowMinutes int
}

// Create parses the clock strings, enforces cutoff < start < end, and
// persists the slot active.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*MealSlot, error) {
	start, err := timewindow.ParseClock(cmd.Start)
	if err != nil {
		return nil, err
	}
	end, err := timewindow.ParseClock(cmd.End)
	if err != nil {
		return nil, err
	}
	cutoff, err := timewindow.ParseClock(cmd.Cutoff)
	if err != nil {
		return nil, err
	}

	m := &MealSlot{
		ID:            types.ID(uuid.NewString()),
		VendorID:      cmd.VendorID,
		Name:          cmd.Name,
		Start:         start,
		End:           end,
		Cutoff:        cutoff,
		WindowMinutes: cmd.WindowMinutes,
		IsActive:      true,
	}
	if err := timewindow.ValidateSlot(m.Slot()); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*MealSlot, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Slots(ctx context.Context, vendorID types.ID, activeOnly bool) ([]MealSlot, error) {
	return s.store.ListByVendor(ctx, vendorID, activeOnly)
}

// DeliveryWindows enumerates the slot's tiled delivery sub-windows.
func (s *Service) DeliveryWindows(ctx context.Context, id types.ID) ([]timewindow.Window, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return timewindow.EnumerateWindows(m.Slot())
}

func (s *Service) Deactivate(ctx context.Context, id types.ID) error {
	return s.store.Deactivate(ctx, id)
}