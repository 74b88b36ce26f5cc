package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/coworkingterapia/agenda-interativa/internal/reservation"
)

type RouterConfig struct {
	Service *reservation.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoverMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/validate-id", validateIDHandler(cfg.Service))

	r.Get("/availability/slots", daySlotsHandler(cfg.Service))
	r.Get("/availability/blocked", blockedSlotsHandler(cfg.Service))
	r.Get("/availability/conflict", conflictHandler(cfg.Service))
	r.Get("/recurrence/preview", recurrencePreviewHandler(cfg.Service))
	r.Get("/calendar/days", calendarDaysHandler(cfg.Service))

	r.Get("/reservations", listReservationsHandler(cfg.Service))
	r.Post("/reservations", bookSeriesHandler(cfg.Service))
	r.Post("/reservations/{id}/cancel", cancelReservationHandler(cfg.Service))

	return r
}
