package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coworkingterapia/agenda-interativa/internal/pricing"
	redisclient "github.com/coworkingterapia/agenda-interativa/internal/redis"
	"github.com/coworkingterapia/agenda-interativa/internal/schedule"
)

var (
	ErrUnknownRoom       = errors.New("unknown room")
	ErrInvalidStart      = errors.New("start time is not on the booking grid")
	ErrInvalidExtension  = errors.New("extension must be 0, 15 or 30 minutes")
	ErrInvalidWeekCount  = errors.New("recurrence must be between 0 and 12 weeks")
	ErrInvalidPayment    = errors.New("payment method must be antecipado or no-dia")
	ErrDayNotBookable    = errors.New("day is not open for booking")
	ErrSlotNotBookable   = errors.New("slot is blocked or already past")
	ErrSlotConflict      = errors.New("requested time conflicts with an existing reservation")
	ErrBookingInProgress = errors.New("slot is currently being booked, please retry")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cal    *schedule.Calendar
	credit pricing.CreditPolicy
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cal *schedule.Calendar, credit pricing.CreditPolicy) *Service {
	if credit == nil {
		credit = pricing.FullCreditWhenPaid
	}
	return &Service{
		repo:   repo,
		locker: locker,
		cal:    cal,
		credit: credit,
		now:    time.Now,
	}
}

// BlockedSlots computes the grid points unusable as start candidates for one
// room and date, from the current reservation snapshot.
func (s *Service) BlockedSlots(ctx context.Context, date schedule.Date, room string) (schedule.BlockedSet, error) {
	if !ValidRoom(room) {
		return nil, ErrUnknownRoom
	}
	existing, err := s.repo.ListByDate(ctx, date, room)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return schedule.ComputeBlocked(AsBooked(existing)), nil
}

// SlotView is one grid point with its selectability state.
type SlotView struct {
	Time  schedule.TimeOfDay
	State schedule.SlotState
}

// DaySlots returns the whole grid for a room and date with per-slot states,
// ready for a booking UI to render.
func (s *Service) DaySlots(ctx context.Context, date schedule.Date, room string) ([]SlotView, error) {
	blocked, err := s.BlockedSlots(ctx, date, room)
	if err != nil {
		return nil, err
	}

	grid := schedule.Grid()
	views := make([]SlotView, 0, len(grid))
	for _, t := range grid {
		views = append(views, SlotView{Time: t, State: s.cal.SlotStatus(date, t, blocked)})
	}
	return views, nil
}

// CheckConflict reports whether starting a 60+ext minute service at start
// would violate the trailing-gap rule against existing reservations or the
// closing boundary. Advisory only: InsertSeries is the consistency boundary.
func (s *Service) CheckConflict(ctx context.Context, date schedule.Date, room string, start schedule.TimeOfDay, ext int) (bool, error) {
	if !ValidRoom(room) {
		return false, ErrUnknownRoom
	}
	if !schedule.ValidExtension(ext) {
		return false, ErrInvalidExtension
	}
	existing, err := s.repo.ListByDate(ctx, date, room)
	if err != nil {
		return false, fmt.Errorf("list reservations: %w", err)
	}
	return schedule.HasConflict(start, ext, AsBooked(existing)), nil
}

// RecurrencePreview is what the recurrence step shows before confirmation.
type RecurrencePreview struct {
	Dates     []schedule.Date
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// PreviewRecurrence expands a weekly series and prices it.
func (s *Service) PreviewRecurrence(anchor schedule.Date, weeks, ext int) (*RecurrencePreview, error) {
	if !schedule.ValidWeekCount(weeks) {
		return nil, ErrInvalidWeekCount
	}
	if !schedule.ValidExtension(ext) {
		return nil, ErrInvalidExtension
	}
	return &RecurrencePreview{
		Dates:     schedule.ExpandRecurrence(anchor, weeks),
		UnitPrice: pricing.UnitPrice(ext),
		Total:     pricing.SeriesTotal(ext, weeks),
	}, nil
}

// BookingRequest is a confirmed draft ready to persist.
type BookingRequest struct {
	Date             schedule.Date
	Room             string
	Start            schedule.TimeOfDay
	ExtensionMinutes int
	Weeks            int
	ProfessionalID   string
	PaymentMethod    PaymentMethod
}

// BookSeries validates a booking request end to end and persists one
// reservation per recurrence date, all under the slot lock so concurrent
// requests for the same (room, date, start) serialize. Every date in the
// series is re-checked against a fresh snapshot inside the critical section.
func (s *Service) BookSeries(ctx context.Context, req BookingRequest) ([]Reservation, error) {
	if !ValidRoom(req.Room) {
		return nil, ErrUnknownRoom
	}
	if !req.Start.OnGrid() {
		return nil, ErrInvalidStart
	}
	if !schedule.ValidExtension(req.ExtensionMinutes) {
		return nil, ErrInvalidExtension
	}
	if !schedule.ValidWeekCount(req.Weeks) {
		return nil, ErrInvalidWeekCount
	}
	if !ValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPayment
	}

	prof, err := s.repo.GetProfessionalByID(ctx, NormalizeProfessionalID(req.ProfessionalID))
	if err != nil {
		if errors.Is(err, ErrProfessionalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load professional: %w", err)
	}

	if !s.cal.IsDaySelectable(req.Date) {
		return nil, ErrDayNotBookable
	}

	dates := schedule.ExpandRecurrence(req.Date, req.Weeks)
	unitPrice := pricing.UnitPrice(req.ExtensionMinutes)
	duration := schedule.BaseServiceMinutes + req.ExtensionMinutes

	var created []Reservation

	err = s.locker.WithBookingLock(ctx, req.Room, req.Date, req.Start, func(lockCtx context.Context) error {
		now := s.now()
		series := make([]Reservation, 0, len(dates))

		for _, date := range dates {
			existing, err := s.repo.ListByDate(lockCtx, date, req.Room)
			if err != nil {
				return fmt.Errorf("list reservations for %s: %w", date, err)
			}

			booked := AsBooked(existing)
			if date == req.Date {
				// The anchor is what the user picked off the grid;
				// it must still be selectable right now.
				blocked := schedule.ComputeBlocked(booked)
				if !s.cal.IsSlotSelectable(date, req.Start, blocked) {
					return ErrSlotNotBookable
				}
			}
			// HasConflict skips a same-start booking (self-exclusion for
			// extension re-validation), so an occupied identical start on
			// a later series date must be rejected explicitly.
			for _, b := range booked {
				if b.Start == req.Start {
					return fmt.Errorf("%w: %s %s", ErrSlotConflict, date, req.Start)
				}
			}
			if schedule.HasConflict(req.Start, req.ExtensionMinutes, booked) {
				return fmt.Errorf("%w: %s %s", ErrSlotConflict, date, req.Start)
			}

			series = append(series, Reservation{
				ID:               uuid.New(),
				Date:             date,
				Room:             req.Room,
				StartTime:        req.Start,
				DurationMinutes:  duration,
				ExtensionMinutes: req.ExtensionMinutes,
				ProfessionalID:   prof.ID,
				UnitPrice:        unitPrice,
				PaymentMethod:    req.PaymentMethod,
				PaymentStatus:    PaymentPending,
				Status:           StatusActive,
				RecurrenceWeeks:  req.Weeks,
				CreatedAt:        now,
				Credit:           decimal.Zero,
			})
		}

		if err := s.repo.InsertSeries(lockCtx, series); err != nil {
			return err
		}

		created = series
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	log.Printf("booked series professional=%s room=%s start=%s dates=%d total=%s",
		prof.ID, req.Room, req.Start, len(created), pricing.SeriesTotal(req.ExtensionMinutes, req.Weeks))

	return created, nil
}

// CancelResult reports the outcome of a soft cancel.
type CancelResult struct {
	Reservation *Reservation
	CancelledAt time.Time
	Credit      decimal.Decimal
}

// Cancel flips a reservation to cancelled and grants credit per the
// configured policy. Records are never deleted.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*CancelResult, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	cancelledAt := s.now()
	credit := s.credit(pricing.CancelledReservation{
		Date:        r.Date.Time(time.UTC),
		UnitPrice:   r.UnitPrice,
		Paid:        r.PaymentStatus == PaymentPaid,
		CancelledAt: cancelledAt,
	})

	updated, err := s.repo.MarkCancelled(ctx, id, cancelledAt, credit)
	if err != nil {
		return nil, err
	}

	log.Printf("cancelled reservation id=%s credit=%s", id, credit)

	return &CancelResult{Reservation: updated, CancelledAt: cancelledAt, Credit: credit}, nil
}

// History returns every reservation a professional ever made, newest first,
// including cancelled ones. Storage is the sole source of truth here; there
// is no client-side cache to drift from it.
func (s *Service) History(ctx context.Context, professionalID string) ([]Reservation, error) {
	return s.repo.ListByProfessional(ctx, NormalizeProfessionalID(professionalID))
}

// ValidateProfessional looks up a studio id, tolerating sloppy input.
func (s *Service) ValidateProfessional(ctx context.Context, rawID string) (*Professional, error) {
	return s.repo.GetProfessionalByID(ctx, NormalizeProfessionalID(rawID))
}

// MonthReservations lists active reservations for the calendar view.
func (s *Service) MonthReservations(ctx context.Context, year int, month time.Month) ([]Reservation, error) {
	return s.repo.ListByMonth(ctx, year, month)
}

// DayReservations lists active reservations for one date, all rooms when
// room is empty.
func (s *Service) DayReservations(ctx context.Context, date schedule.Date, room string) ([]Reservation, error) {
	if room != "" && !ValidRoom(room) {
		return nil, ErrUnknownRoom
	}
	return s.repo.ListByDate(ctx, date, room)
}

// Calendar exposes the eligibility filter to transport handlers.
func (s *Service) Calendar() *schedule.Calendar {
	return s.cal
}

// NormalizeProfessionalID uppercases and trims a studio id before lookup.
func NormalizeProfessionalID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
