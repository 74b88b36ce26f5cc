package schedule

import (
	"errors"
	"fmt"
)

// TimeOfDay is minutes since midnight, in [0, 1440).
type TimeOfDay int

const (
	// Working day boundaries: 07:00 through 20:00.
	DayOpen  TimeOfDay = 7 * 60
	DayClose TimeOfDay = 20 * 60

	// SlotStep is the grid granularity.
	SlotStep = 15
)

var ErrInvalidTime = errors.New("invalid time of day")

// ParseTimeOfDay parses a zero-padded 24h "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return TimeOfDay(h*60 + m), nil
}

// String renders the canonical "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// OnGrid reports whether t is one of the bookable grid points.
func (t TimeOfDay) OnGrid() bool {
	return t >= DayOpen && t <= DayClose && int(t)%SlotStep == 0
}

// Grid returns the ordered universe of bookable start times for a working
// day: 07:00 through 20:00 inclusive, every 15 minutes.
func Grid() []TimeOfDay {
	grid := make([]TimeOfDay, 0, (DayClose-DayOpen)/SlotStep+1)
	for t := DayOpen; t <= DayClose; t += SlotStep {
		grid = append(grid, t)
	}
	return grid
}
