package timewindow

import "errors"

var (
	ErrInvalidSlotConfiguration = errors.New("invalid slot configuration: cutoff must precede start, start must precede end")
	ErrWindowOutOfRange         = errors.New("delivery window out of slot range")
)

// Slot is a vendor ordering window: orders close at Cutoff, food is handed
// out between Start and End in sub-windows of WindowMinutes.
type Slot struct {
	Start         Clock
	End           Clock
	Cutoff        Clock
	WindowMinutes int
}

// Window is a half-open [Start, End) delivery sub-window.
type Window struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// ValidateSlot enforces the creation invariant cutoff < start < end and a
// positive window duration.
func ValidateSlot(s Slot) error {
	if !s.Cutoff.Before(s.Start) || !s.Start.Before(s.End) {
		return ErrInvalidSlotConfiguration
	}
	if s.WindowMinutes <= 0 {
		return ErrInvalidSlotConfiguration
	}
	return nil
}

// IsWithinCutoff reports whether now is strictly before the cutoff.
func IsWithinCutoff(now, cutoff Clock) bool {
	return now.Before(cutoff)
}

// IsWithinSlot reports start <= t < end.
func IsWithinSlot(t Clock, s Slot) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// ValidateDeliveryWindow checks a customer-preferred [ws, we) window lies
// inside the slot's delivery span.
func ValidateDeliveryWindow(s Slot, ws, we Clock) error {
	if ws.Before(s.Start) || s.End.Before(we) || !ws.Before(we) {
		return ErrWindowOutOfRange
	}
	return nil
}

// EnumerateWindows tiles [start, end) with consecutive windows of
// WindowMinutes. A tail window that would cross end of day is clamped to
// 23:59 instead of wrapping; that clamp is deliberate policy.
func EnumerateWindows(s Slot) ([]Window, error) {
	if err := ValidateSlot(s); err != nil {
		return nil, err
	}
	var windows []Window
	cur := s.Start
	for cur.Before(s.End) {
		next, clamped := cur.AddMinutes(s.WindowMinutes)
		windows = append(windows, Window{Start: cur, End: next})
		if clamped {
			break
		}
		cur = next
	}
	return windows, nil
}
