package schedule

// Week-count bounds for recurring bookings.
const (
	MinRecurrenceWeeks = 0
	MaxRecurrenceWeeks = 12
)

// ValidWeekCount reports whether weeks is inside the offered range.
func ValidWeekCount(weeks int) bool {
	return weeks >= MinRecurrenceWeeks && weeks <= MaxRecurrenceWeeks
}

// ExpandRecurrence materializes the concrete dates of a weekly series:
// the anchor itself plus one date per extra week, each exactly 7 days after
// the previous. Returns weeks+1 dates.
//
// Callers clamp weeks to [0, 12] before calling; out-of-range input is a
// contract violation, not a runtime error here.
func ExpandRecurrence(anchor Date, weeks int) []Date {
	dates := make([]Date, 0, weeks+1)
	for i := 0; i <= weeks; i++ {
		dates = append(dates, anchor.AddDays(7*i))
	}
	return dates
}
