package schedule

// Extension tiers selectable on top of the base 60-minute service.
const (
	BaseServiceMinutes = 60

	// trailingGap is what a new booking must leave free after itself for
	// whoever comes next. Distinct from the cleanup buffers in blocking:
	// that one protects existing bookings, this one protects later ones
	// when the candidate grows by an extension.
	trailingGap = 15

	// closeGrace allows a booking to run up to 15 minutes past closing
	// before its trailing gap counts as out of bounds.
	closeGrace = 15
)

// ValidExtension reports whether ext is one of the offered tiers.
func ValidExtension(ext int) bool {
	return ext == 0 || ext == 15 || ext == 30
}

// HasConflict reports whether starting a service of 60+ext minutes at start
// would collide with any existing booking or overrun the closing boundary.
//
// The candidate occupies [start, start+60+ext+15): its service time plus the
// mandatory trailing gap. Intervals are half-open, so a candidate whose
// buffered end exactly touches an existing start does not conflict.
//
// A booking whose start equals the candidate's is skipped: that is the slot
// being re-validated with a new extension, not a competitor.
func HasConflict(start TimeOfDay, ext int, booked []Booked) bool {
	bufferedEnd := start + TimeOfDay(BaseServiceMinutes+ext+trailingGap)

	if bufferedEnd > DayClose+closeGrace {
		return true
	}

	for _, b := range booked {
		if b.Start == start {
			continue
		}
		if bufferedEnd > b.Start && start < b.End() {
			return true
		}
	}

	return false
}
