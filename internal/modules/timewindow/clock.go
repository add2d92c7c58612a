// Package timewindow contains pure evaluation over "HH:MM" clock values:
// cutoff checks, slot membership, and delivery-window tiling.
package timewindow

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")

// Clock is a time of day with minute resolution. Comparisons are structured,
// never lexical, so "09:00" vs "23:30" behaves correctly.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a strict "HH:MM" value: two digits, a colon, two digits.
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return Clock{}, ErrInvalidTimeFormat
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return Clock{}, ErrInvalidTimeFormat
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return Clock{}, ErrInvalidTimeFormat
	}
	return Clock{Hour: h, Minute: m}, nil
}

// ClockOf truncates a wall time to its clock-of-day value.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns the offset from midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) Before(other Clock) bool {
	return c.Minutes() < other.Minutes()
}

func (c Clock) After(other Clock) bool {
	return c.Minutes() > other.Minutes()
}

// AddMinutes advances the clock without wrapping past end of day; results
// beyond 23:59 are reported via the second return value.
func (c Clock) AddMinutes(n int) (Clock, bool) {
	total := c.Minutes() + n
	if total > 23*60+59 {
		return Clock{Hour: 23, Minute: 59}, true
	}
	return Clock{Hour: total / 60, Minute: total % 60}, false
}
