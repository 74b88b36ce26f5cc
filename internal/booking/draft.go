// Package booking models the in-progress reservation a client threads
// through the selection flow. The draft is explicit and immutable: each step
// returns a new draft or an error, and every transition re-validates against
// the scheduling rules instead of trusting ambient session state.
package booking

import (
	"errors"
	"fmt"

	"github.com/coworkingterapia/agenda-interativa/internal/reservation"
	"github.com/coworkingterapia/agenda-interativa/internal/schedule"
)

type State string

const (
	SelectingDate       State = "selecting_date"
	SelectingSlot       State = "selecting_slot"
	SelectingExtension  State = "selecting_extension"
	SelectingRoom       State = "selecting_room"
	SelectingRecurrence State = "selecting_recurrence"
	Payment             State = "payment"
	Summary             State = "summary"
	Confirmed           State = "confirmed"
)

var ErrWrongStep = errors.New("draft is not at the right step for this transition")

// Draft is a booking in progress. Zero value is not usable; start with New.
type Draft struct {
	State            State
	ProfessionalID   string
	Date             schedule.Date
	Start            schedule.TimeOfDay
	ExtensionMinutes int
	Room             string
	Weeks            int
	PaymentMethod    reservation.PaymentMethod
}

// New opens a draft for a professional at the date-selection step.
func New(professionalID string) Draft {
	return Draft{
		State:          SelectingDate,
		ProfessionalID: reservation.NormalizeProfessionalID(professionalID),
	}
}

func (d Draft) at(want State) error {
	if d.State != want {
		return fmt.Errorf("%w: have %s, want %s", ErrWrongStep, d.State, want)
	}
	return nil
}

// WithDate picks the calendar day. The day must be selectable right now.
func (d Draft) WithDate(date schedule.Date, cal *schedule.Calendar) (Draft, error) {
	if err := d.at(SelectingDate); err != nil {
		return d, err
	}
	if !cal.IsDaySelectable(date) {
		return d, reservation.ErrDayNotBookable
	}
	d.Date = date
	d.State = SelectingSlot
	return d, nil
}

// WithSlot picks a start time off the grid. The slot must be open given the
// day's blocked set and the clock. Room is not chosen yet, so the blocked
// set covers the whole studio.
func (d Draft) WithSlot(start schedule.TimeOfDay, blocked schedule.BlockedSet, cal *schedule.Calendar) (Draft, error) {
	if err := d.at(SelectingSlot); err != nil {
		return d, err
	}
	if !start.OnGrid() {
		return d, reservation.ErrInvalidStart
	}
	if !cal.IsSlotSelectable(d.Date, start, blocked) {
		return d, reservation.ErrSlotNotBookable
	}
	d.Start = start
	d.State = SelectingExtension
	return d, nil
}

// WithExtension picks an extension tier. Growing the service must not
// collide with reservations already committed later in the day, so the
// conflict rule runs here with the fresh snapshot.
func (d Draft) WithExtension(minutes int, booked []schedule.Booked) (Draft, error) {
	if err := d.at(SelectingExtension); err != nil {
		return d, err
	}
	if !schedule.ValidExtension(minutes) {
		return d, reservation.ErrInvalidExtension
	}
	if schedule.HasConflict(d.Start, minutes, booked) {
		return d, reservation.ErrSlotConflict
	}
	d.ExtensionMinutes = minutes
	d.State = SelectingRoom
	return d, nil
}

// WithRoom picks one of the studio rooms.
func (d Draft) WithRoom(room string) (Draft, error) {
	if err := d.at(SelectingRoom); err != nil {
		return d, err
	}
	if !reservation.ValidRoom(room) {
		return d, reservation.ErrUnknownRoom
	}
	d.Room = room
	d.State = SelectingRecurrence
	return d, nil
}

// WithRecurrence picks how many extra weeks the booking repeats.
func (d Draft) WithRecurrence(weeks int) (Draft, error) {
	if err := d.at(SelectingRecurrence); err != nil {
		return d, err
	}
	if !schedule.ValidWeekCount(weeks) {
		return d, reservation.ErrInvalidWeekCount
	}
	d.Weeks = weeks
	d.State = Payment
	return d, nil
}

// WithPayment picks how the professional pays.
func (d Draft) WithPayment(method reservation.PaymentMethod) (Draft, error) {
	if err := d.at(Payment); err != nil {
		return d, err
	}
	if !reservation.ValidPaymentMethod(method) {
		return d, reservation.ErrInvalidPayment
	}
	d.PaymentMethod = method
	d.State = Summary
	return d, nil
}

// Confirm seals the draft and hands back the request the reservation
// service persists. The service re-validates everything under its lock;
// this only checks the flow completed.
func (d Draft) Confirm() (Draft, reservation.BookingRequest, error) {
	if err := d.at(Summary); err != nil {
		return d, reservation.BookingRequest{}, err
	}
	d.State = Confirmed
	return d, reservation.BookingRequest{
		Date:             d.Date,
		Room:             d.Room,
		Start:            d.Start,
		ExtensionMinutes: d.ExtensionMinutes,
		Weeks:            d.Weeks,
		ProfessionalID:   d.ProfessionalID,
		PaymentMethod:    d.PaymentMethod,
	}, nil
}
