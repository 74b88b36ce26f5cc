package schedule

const (
	// DefaultDuration is assumed when a reservation carries no duration.
	DefaultDuration = 60

	// preBuffer blocks the hour before a reservation starts, so nobody
	// books back-to-back with no transition time.
	preBuffer = 60

	// postBuffer is the cleanup window after a reservation ends.
	postBuffer = 75
)

// Booked is the slice of an existing reservation the scheduling core needs:
// its start and total duration in minutes.
type Booked struct {
	Start    TimeOfDay
	Duration int
}

func (b Booked) duration() int {
	if b.Duration <= 0 {
		return DefaultDuration
	}
	return b.Duration
}

// End is the reservation's end time (start + duration).
func (b Booked) End() TimeOfDay {
	return b.Start + TimeOfDay(b.duration())
}

// BlockedSet is a set of grid points unusable as new start candidates.
type BlockedSet map[TimeOfDay]struct{}

func (s BlockedSet) Contains(t TimeOfDay) bool {
	_, ok := s[t]
	return ok
}

// Times returns the set's members in ascending order.
func (s BlockedSet) Times() []TimeOfDay {
	out := make([]TimeOfDay, 0, len(s))
	for t := DayOpen; t <= DayClose; t += SlotStep {
		if s.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// ComputeBlocked derives the grid points that cannot start a new reservation
// given the day's existing bookings for one room.
//
// Each booking with start S and duration D blocks two ranges:
//   - [S-60, S): the hour before the session,
//   - [S, S+D+75]: the session itself plus the cleanup window after it.
//
// Ranges are stepped by the grid granularity, clamped to the working day,
// and unioned across bookings. The set flags start candidates for the
// baseline 60-minute service; validating a longer service against later
// bookings is HasConflict's job.
func ComputeBlocked(booked []Booked) BlockedSet {
	blocked := make(BlockedSet)

	for _, b := range booked {
		addRange(blocked, b.Start-preBuffer, b.Start-SlotStep)
		addRange(blocked, b.Start, b.End()+postBuffer)
	}

	return blocked
}

// addRange inserts every grid-aligned point in [from, to] that falls inside
// the working day. The start is snapped up to the grid first, so a stored
// reservation with an off-grid start cannot leak off-grid members into the
// set. Out-of-day points are discarded silently.
func addRange(set BlockedSet, from, to TimeOfDay) {
	if rem := ((from % SlotStep) + SlotStep) % SlotStep; rem != 0 {
		from += SlotStep - rem
	}
	for m := from; m <= to; m += SlotStep {
		if m >= DayOpen && m <= DayClose {
			set[m] = struct{}{}
		}
	}
}
