package reservation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coworkingterapia/agenda-interativa/internal/schedule"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

type PaymentMethod string

const (
	// PayUpfront is the prepaid option ("antecipado").
	PayUpfront PaymentMethod = "antecipado"
	// PayOnDay settles at the session ("no-dia") and carries a surcharge
	// handled by the payment collaborator, not here.
	PayOnDay PaymentMethod = "no-dia"
)

// ValidPaymentMethod reports whether m is one of the offered methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	return m == PayUpfront || m == PayOnDay
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Room is one of the studio's bookable rooms.
type Room struct {
	Code string
	Name string
}

// Rooms is the studio's fixed room set.
var Rooms = []Room{
	{Code: "01", Name: "Sala 01"},
	{Code: "02", Name: "Sala 02"},
	{Code: "03", Name: "Sala 03 (com maca)"},
	{Code: "04", Name: "Sala 04"},
}

// ValidRoom reports whether code names a real room.
func ValidRoom(code string) bool {
	for _, r := range Rooms {
		if r.Code == code {
			return true
		}
	}
	return false
}

// Professional is a credentialed renter, identified by an opaque studio id
// such as "011-K".
type Professional struct {
	ID        string
	Name      string
	Honorific string
}

// Reservation is one booked interval in one room on one date. A recurring
// booking produces one record per date, sharing everything but the date.
// Records are never deleted: cancellation flips the status and may grant
// credit.
type Reservation struct {
	ID               uuid.UUID
	Date             schedule.Date
	Room             string
	StartTime        schedule.TimeOfDay
	DurationMinutes  int
	ExtensionMinutes int
	ProfessionalID   string
	UnitPrice        decimal.Decimal
	PaymentMethod    PaymentMethod
	PaymentStatus    PaymentStatus
	Status           Status
	RecurrenceWeeks  int
	CreatedAt        time.Time
	CancelledAt      *time.Time
	Credit           decimal.Decimal
}

// EndTime is StartTime plus the booked duration.
func (r *Reservation) EndTime() schedule.TimeOfDay {
	d := r.DurationMinutes
	if d <= 0 {
		d = schedule.DefaultDuration
	}
	return r.StartTime + schedule.TimeOfDay(d)
}

// Booked projects the reservation down to what the scheduling core needs.
func (r *Reservation) Booked() schedule.Booked {
	return schedule.Booked{Start: r.StartTime, Duration: r.DurationMinutes}
}

// AsBooked projects a snapshot of reservations for the scheduling core.
func AsBooked(rs []Reservation) []schedule.Booked {
	out := make([]schedule.Booked, len(rs))
	for i := range rs {
		out[i] = rs[i].Booked()
	}
	return out
}
