package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coworkingterapia/agenda-interativa/internal/pricing"
	"github.com/coworkingterapia/agenda-interativa/internal/reservation"
	"github.com/coworkingterapia/agenda-interativa/internal/schedule"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// Query helpers

func dateParam(r *http.Request, name string) (schedule.Date, error) {
	return schedule.ParseDate(r.URL.Query().Get(name))
}

func timeParam(r *http.Request, name string) (schedule.TimeOfDay, error) {
	return schedule.ParseTimeOfDay(r.URL.Query().Get(name))
}

func intParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(r.URL.Query().Get(name))
}

// Handlers

func validateIDHandler(svc *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValidateIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		prof, err := svc.ValidateProfessional(r.Context(), req.ProfessionalID)
		if err != nil {
			if errors.Is(err, reservation.ErrProfessionalNotFound) {
				writeJSON(w, http.StatusOK, ValidateIDResponse{Valid: false})
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, ValidateIDResponse{
			Valid: true,
			Professional: &ProfessionalPayload{
				ID:        prof.ID,
				Name:      prof.Name,
				Honorific: prof.Honorific,
			},
		})
	}
}

func listReservationsHandler(svc *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		switch {
		case q.Get("date") != "":
			date, err := dateParam(r, "date")
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			rs, err := svc.DayReservations(r.Context(), date, q.Get("room"))
			if err != nil {
				handleServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toReservationPayloads(rs))

		case q.Get("professional_id") != "":
			rs, err := svc.History(r.Context(), q.Get("professional_id"))
			if err != nil {
				handleServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toReservationPayloads(rs))

		case q.Get("month") != "" && q.Get("year") != "":
			month, merr := intParam(r, "month")
			year, yerr := intParam(r, "year")
			if merr != nil || yerr != nil || month < 1 || month > 12 {
				writeError(w, http.StatusBadRequest, "invalid_month", "month must be 1-12, year numeric")
				return
			}
			rs, err := svc.MonthReservations(r.Context(), year, time.Month(month))
			if err != nil {
				handleServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toReservationPayloads(rs))

		default:
			writeError(w, http.StatusBadRequest, "missing_filter", "pass date=, month=&year=, or professional_id=")
		}
	}
}

func daySlotsHandler(svc *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := dateParam(r, "date")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		views, err := svc.DaySlots(r.Context(), date, r.URL.Query().Get("room"))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		payload := make([]SlotPayload, len(views))
		for i, v := range views {
			payload[i] = SlotPayload{Time: v.Time.String(), State: string(v.State)}
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

func blockedSlotsHandler(svc *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := dateParam(r, "date")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		room := r.URL.Query().Get("room")

		blocked, err := svc.BlockedSlots(r.Context(), date, room)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, BlockedSlotsResponse{
			Date:    date.String(),
			Room:    room,
			Blocked: timesToStrings(blocked.Times()),
		})
	}
}

func conflictHandler(svc *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := dateParam(r, "date")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		start, err := timeParam(r, "start")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be HH:MM")
			return
		}
		ext := 0
		if r.URL.Query().Get("extension") != "" {
			if ext, err = intParam(r, "extension"); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_extension", "extension must be numeric minutes")
				return
			}
		}

		conflict, err := svc.CheckConflict(r.Context(), date, r.URL.Query().Get("room"), start, ext)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ConflictResponse{Conflict: conflict})
	}
}

func recurrencePreviewHandler(svc *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := dateParam(r, "date")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		weeks := 0
		if r.URL.Query().Get("weeks") != "" {
			if weeks, err = intParam(r, "weeks"); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_weeks", "weeks must be numeric")
				return
			}
		}
		ext := 0
		if r.URL.Query().Get("extension") != "" {
			if ext, err = intParam(r, "extension"); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_extension", "extension must be numeric minutes")
				return
			}
		}

		preview, err := svc.PreviewRecurrence(date, weeks, ext)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, RecurrencePreviewResponse{
			Dates:     datesToStrings(preview.Dates),
			Sessions:  len(preview.Dates),
			UnitPrice: preview.UnitPrice.StringFixed(2),
			Total:     preview.Total.StringFixed(2),
		})
	}
}

func calendarDaysHandler(svc *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month, merr := intParam(r, "month")
		year, yerr := intParam(r, "year")
		if merr != nil || yerr != nil || month < 1 || month > 12 {
			writeError(w, http.StatusBadRequest, "invalid_month", "month must be 1-12, year numeric")
			return
		}

		reserved := make(map[schedule.Date]bool)
		rs, err := svc.MonthReservations(r.Context(), year, time.Month(month))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		for _, res := range rs {
			reserved[res.Date] = true
		}

		cal := svc.Calendar()
		first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		daysInMonth := first.AddDate(0, 1, -1).Day()

		days := make([]DayPayload, 0, daysInMonth)
		for day := 1; day <= daysInMonth; day++ {
			d := schedule.Date{Year: year, Month: time.Month(month), Day: day}
			st := cal.DayStatus(d)
			days = append(days, DayPayload{
				Date:        d.String(),
				Selectable:  st.Selectable,
				Holiday:     st.Holiday,
				Weekend:     st.Weekend,
				OutOfWindow: st.OutOfWindow,
				Reserved:    reserved[d],
			})
		}
		writeJSON(w, http.StatusOK, days)
	}
}

func bookSeriesHandler(svc *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookSeriesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := schedule.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		start, err := schedule.ParseTimeOfDay(req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be HH:MM")
			return
		}

		method := reservation.PaymentMethod(req.PaymentMethod)
		if method == "" {
			method = reservation.PayUpfront
		}

		created, err := svc.BookSeries(r.Context(), reservation.BookingRequest{
			Date:             date,
			Room:             req.Room,
			Start:            start,
			ExtensionMinutes: req.ExtensionMinutes,
			Weeks:            req.Weeks,
			ProfessionalID:   req.ProfessionalID,
			PaymentMethod:    method,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, BookSeriesResponse{
			Reservations: toReservationPayloads(created),
			Total:        pricing.SeriesTotal(req.ExtensionMinutes, req.Weeks).StringFixed(2),
		})
	}
}

func cancelReservationHandler(svc *reservation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_reservation_id", "id must be a valid UUID")
			return
		}

		result, err := svc.Cancel(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, CancelResponse{
			Reservation: toReservationPayload(*result.Reservation),
			CancelledAt: result.CancelledAt,
			Credit:      result.Credit.StringFixed(2),
		})
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reservation.ErrUnknownRoom),
		errors.Is(err, reservation.ErrInvalidStart),
		errors.Is(err, reservation.ErrInvalidExtension),
		errors.Is(err, reservation.ErrInvalidWeekCount),
		errors.Is(err, reservation.ErrInvalidPayment):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	case errors.Is(err, reservation.ErrProfessionalNotFound):
		writeError(w, http.StatusNotFound, "professional_not_found", err.Error())
	case errors.Is(err, reservation.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, "reservation_not_found", err.Error())
	case errors.Is(err, reservation.ErrDayNotBookable):
		writeError(w, http.StatusConflict, "day_not_bookable", err.Error())
	case errors.Is(err, reservation.ErrSlotNotBookable):
		writeError(w, http.StatusConflict, "slot_not_bookable", err.Error())
	case errors.Is(err, reservation.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, reservation.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", "slot was just booked by someone else, re-check availability")
	case errors.Is(err, reservation.ErrBookingInProgress):
		writeError(w, http.StatusConflict, "booking_in_progress", "slot is currently being booked, please retry shortly")
	case errors.Is(err, reservation.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "already_cancelled", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
