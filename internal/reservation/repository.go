package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coworkingterapia/agenda-interativa/internal/schedule"
)

var (
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrAlreadyCancelled     = errors.New("reservation is already cancelled")

	// ErrSlotTaken is the storage boundary's verdict: another writer got
	// the (room, date, start) first.
	ErrSlotTaken = errors.New("slot was just taken by another booking")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// ListByDate returns active reservations for one date, all rooms when
	// room is empty.
	ListByDate(ctx context.Context, date schedule.Date, room string) ([]Reservation, error)

	// ListByMonth returns active reservations for a calendar month, used
	// by the calendar view to mark days that already carry bookings.
	ListByMonth(ctx context.Context, year int, month time.Month) ([]Reservation, error)

	// ListByProfessional returns all reservations (any status) for one
	// professional, newest date first. History views show cancellations.
	ListByProfessional(ctx context.Context, professionalID string) ([]Reservation, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// InsertSeries persists an expanded recurrence atomically. A unique
	// violation on (room, date, start) surfaces as ErrSlotTaken.
	InsertSeries(ctx context.Context, rs []Reservation) error

	// MarkCancelled flips an active reservation to cancelled, recording
	// the credit granted. Cancelling twice is ErrAlreadyCancelled.
	MarkCancelled(ctx context.Context, id uuid.UUID, cancelledAt time.Time, credit decimal.Decimal) (*Reservation, error)

	GetProfessionalByID(ctx context.Context, id string) (*Professional, error)
}
