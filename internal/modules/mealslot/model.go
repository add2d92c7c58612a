// Package mealslot manages vendor-defined recurring ordering windows.
package mealslot

import (
	"errors"

	"mealmesh/internal/modules/timewindow"
	"mealmesh/internal/types"
)

var (
	ErrNotFound    = errors.New("meal slot not found")
	ErrUnavailable = errors.New("meal slot unavailable")
)

// MealSlot is a recurring time-of-day ordering window with an order cutoff
// and tiled delivery sub-windows. Slots are soft-deleted (IsActive=false) so
// existing orders keep a resolvable reference.
type MealSlot struct {
	ID            types.ID
	VendorID      types.ID
	Name          string
	Start         timewindow.Clock
	End           timewindow.Clock
	Cutoff        timewindow.Clock
	WindowMinutes int
	IsActive      bool
}

// Slot converts to the evaluator's value type.
func (m MealSlot) Slot() timewindow.Slot {
	return timewindow.Slot{
		Start:         m.Start,
		End:           m.End,
		Cutoff:        m.Cutoff,
		WindowMinutes: m.WindowMinutes,
	}
}
