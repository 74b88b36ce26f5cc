package schedule

import "time"

// Holiday is a recurring day+month pair, year-independent.
type Holiday struct {
	Day   int
	Month time.Month
}

// DefaultHolidays is the studio's fixed closure list.
var DefaultHolidays = []Holiday{
	{Day: 4, Month: time.March},
	{Day: 24, Month: time.December},
	{Day: 25, Month: time.December},
	{Day: 31, Month: time.December},
	{Day: 1, Month: time.January},
}

// Calendar decides which days and slots are selectable. It owns no state
// beyond its configuration; "today" comes from the clock it is given.
type Calendar struct {
	holidays     []Holiday
	backMonths   int
	forwardWeeks int
	loc          *time.Location
	now          func() time.Time
}

// NewCalendar builds a calendar with the studio defaults: bookings reach
// back to the first day of the month two months ago (for history display)
// and forward twelve weeks.
func NewCalendar(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{
		holidays:     DefaultHolidays,
		backMonths:   2,
		forwardWeeks: 12,
		loc:          loc,
		now:          now,
	}
}

// DayStatus is the calendar-level view of one day.
type DayStatus struct {
	Selectable  bool
	Holiday     bool
	OutOfWindow bool
	// Weekend days stay selectable but the UI shows a contract advisory.
	Weekend bool
}

// DayStatus classifies a calendar day. A day is disabled when it falls
// before the trailing window, past the forward window, or on a holiday.
func (c *Calendar) DayStatus(d Date) DayStatus {
	st := DayStatus{
		Weekend: d.Weekday() == time.Saturday || d.Weekday() == time.Sunday,
		Holiday: c.isHoliday(d),
	}

	today := DateOf(c.now().In(c.loc))
	windowStart := Date{Year: today.Year, Month: today.Month - time.Month(c.backMonths), Day: 1}
	windowStart = DateOf(windowStart.Time(time.UTC)) // normalize month underflow
	windowEnd := today.AddDays(7 * c.forwardWeeks)

	st.OutOfWindow = d.Before(windowStart) || d.After(windowEnd)
	st.Selectable = !st.OutOfWindow && !st.Holiday
	return st
}

// IsDaySelectable reports whether a booking flow may proceed on d.
func (c *Calendar) IsDaySelectable(d Date) bool {
	return c.DayStatus(d).Selectable
}

func (c *Calendar) isHoliday(d Date) bool {
	for _, h := range c.holidays {
		if h.Day == d.Day && h.Month == d.Month {
			return true
		}
	}
	return false
}

// SlotState classifies one grid point for one day.
type SlotState string

const (
	SlotOpen    SlotState = "open"
	SlotBlocked SlotState = "blocked"
	SlotElapsed SlotState = "elapsed"
)

// SlotStatus combines buffer blocking with the same-day clock: a slot on
// today's date whose time has already passed cannot be booked. Future dates
// never elapse; past dates are already excluded at day level.
func (c *Calendar) SlotStatus(d Date, t TimeOfDay, blocked BlockedSet) SlotState {
	if blocked.Contains(t) {
		return SlotBlocked
	}
	now := c.now().In(c.loc)
	if DateOf(now) == d && t < TimeOfDay(now.Hour()*60+now.Minute()) {
		return SlotElapsed
	}
	return SlotOpen
}

// IsSlotSelectable reports whether t can start a new booking on d.
func (c *Calendar) IsSlotSelectable(d Date, t TimeOfDay, blocked BlockedSet) bool {
	return c.SlotStatus(d, t, blocked) == SlotOpen
}
