package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/coworkingterapia/agenda-interativa/internal/reservation"
	"github.com/coworkingterapia/agenda-interativa/internal/schedule"
)

type ValidateIDRequest struct {
	ProfessionalID string `json:"professional_id"`
}

type ProfessionalPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Honorific string `json:"honorific"`
}

type ValidateIDResponse struct {
	Valid        bool                 `json:"valid"`
	Professional *ProfessionalPayload `json:"professional,omitempty"`
}

type BookSeriesRequest struct {
	Date             string `json:"date"`
	Room             string `json:"room"`
	Start            string `json:"start"`
	ExtensionMinutes int    `json:"extension_minutes"`
	Weeks            int    `json:"weeks"`
	ProfessionalID   string `json:"professional_id"`
	PaymentMethod    string `json:"payment_method"`
}

type ReservationPayload struct {
	ID               uuid.UUID  `json:"id"`
	Date             string     `json:"date"`
	Room             string     `json:"room"`
	Start            string     `json:"start"`
	End              string     `json:"end"`
	DurationMinutes  int        `json:"duration_minutes"`
	ExtensionMinutes int        `json:"extension_minutes"`
	ProfessionalID   string     `json:"professional_id"`
	UnitPrice        string     `json:"unit_price"`
	PaymentMethod    string     `json:"payment_method"`
	PaymentStatus    string     `json:"payment_status"`
	Status           string     `json:"status"`
	RecurrenceWeeks  int        `json:"recurrence_weeks"`
	CreatedAt        time.Time  `json:"created_at"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	Credit           string     `json:"credit,omitempty"`
}

func toReservationPayload(r reservation.Reservation) ReservationPayload {
	return ReservationPayload{
		ID:               r.ID,
		Date:             r.Date.String(),
		Room:             r.Room,
		Start:            r.StartTime.String(),
		End:              r.EndTime().String(),
		DurationMinutes:  r.DurationMinutes,
		ExtensionMinutes: r.ExtensionMinutes,
		ProfessionalID:   r.ProfessionalID,
		UnitPrice:        r.UnitPrice.StringFixed(2),
		PaymentMethod:    string(r.PaymentMethod),
		PaymentStatus:    string(r.PaymentStatus),
		Status:           string(r.Status),
		RecurrenceWeeks:  r.RecurrenceWeeks,
		CreatedAt:        r.CreatedAt,
		CancelledAt:      r.CancelledAt,
		Credit:           r.Credit.StringFixed(2),
	}
}

func toReservationPayloads(rs []reservation.Reservation) []ReservationPayload {
	out := make([]ReservationPayload, len(rs))
	for i, r := range rs {
		out[i] = toReservationPayload(r)
	}
	return out
}

type BookSeriesResponse struct {
	Reservations []ReservationPayload `json:"reservations"`
	Total        string               `json:"total"`
}

type SlotPayload struct {
	Time  string `json:"time"`
	State string `json:"state"`
}

type BlockedSlotsResponse struct {
	Date    string   `json:"date"`
	Room    string   `json:"room"`
	Blocked []string `json:"blocked"`
}

type ConflictResponse struct {
	Conflict bool `json:"conflict"`
}

type RecurrencePreviewResponse struct {
	Dates     []string `json:"dates"`
	Sessions  int      `json:"sessions"`
	UnitPrice string   `json:"unit_price"`
	Total     string   `json:"total"`
}

type DayPayload struct {
	Date        string `json:"date"`
	Selectable  bool   `json:"selectable"`
	Holiday     bool   `json:"holiday,omitempty"`
	Weekend     bool   `json:"weekend,omitempty"`
	OutOfWindow bool   `json:"out_of_window,omitempty"`
	Reserved    bool   `json:"reserved,omitempty"`
}

type CancelResponse struct {
	Reservation ReservationPayload `json:"reservation"`
	CancelledAt time.Time          `json:"cancelled_at"`
	Credit      string             `json:"credit"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func timesToStrings(ts []schedule.TimeOfDay) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}

func datesToStrings(ds []schedule.Date) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}
