package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/coworkingterapia/agenda-interativa/internal/schedule"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const reservationColumns = `
	id, date, room, start_minutes, duration_minutes, extension_minutes,
	professional_id, unit_price, payment_method, payment_status, status,
	recurrence_weeks, created_at, cancelled_at, credit
`

// Helpers

func scanReservation(row pgx.Row) (*Reservation, error) {
	var r Reservation
	var date time.Time
	var startMinutes int
	var cancelledAt *time.Time

	err := row.Scan(
		&r.ID,
		&date,
		&r.Room,
		&startMinutes,
		&r.DurationMinutes,
		&r.ExtensionMinutes,
		&r.ProfessionalID,
		&r.UnitPrice,
		&r.PaymentMethod,
		&r.PaymentStatus,
		&r.Status,
		&r.RecurrenceWeeks,
		&r.CreatedAt,
		&cancelledAt,
		&r.Credit,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	r.Date = schedule.DateOf(date)
	r.StartTime = schedule.TimeOfDay(startMinutes)
	r.CancelledAt = cancelledAt
	return &r, nil
}

func collectReservations(rows pgx.Rows) ([]Reservation, error) {
	defer rows.Close()

	var result []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Interface methods

func (repo *PgRepository) ListByDate(ctx context.Context, date schedule.Date, room string) ([]Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE date = $1 AND status = 'active'
	`
	args := []any{date.String()}
	if room != "" {
		query += ` AND room = $2`
		args = append(args, room)
	}
	query += ` ORDER BY start_minutes`

	rows, err := repo.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (repo *PgRepository) ListByMonth(ctx context.Context, year int, month time.Month) ([]Reservation, error) {
	rows, err := repo.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE date >= $1 AND date < $2 AND status = 'active'
		ORDER BY date, start_minutes
	`, schedule.DateOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)).String(),
		schedule.DateOf(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)).String())
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (repo *PgRepository) ListByProfessional(ctx context.Context, professionalID string) ([]Reservation, error) {
	rows, err := repo.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE professional_id = $1
		ORDER BY date DESC, start_minutes
	`, professionalID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (repo *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	row := repo.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1
	`, id)
	return scanReservation(row)
}

func (repo *PgRepository) InsertSeries(ctx context.Context, rs []Reservation) error {
	tx, err := repo.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert series: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range rs {
		_, err := tx.Exec(ctx, `
			INSERT INTO reservations (
				id, date, room, start_minutes, duration_minutes, extension_minutes,
				professional_id, unit_price, payment_method, payment_status, status,
				recurrence_weeks, created_at, credit
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			r.ID, r.Date.String(), r.Room, int(r.StartTime), r.DurationMinutes, r.ExtensionMinutes,
			r.ProfessionalID, r.UnitPrice, r.PaymentMethod, r.PaymentStatus, r.Status,
			r.RecurrenceWeeks, r.CreatedAt, r.Credit,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("insert reservation %s %s: %w", r.Date, r.StartTime, err)
		}
	}

	return tx.Commit(ctx)
}

func (repo *PgRepository) MarkCancelled(ctx context.Context, id uuid.UUID, cancelledAt time.Time, credit decimal.Decimal) (*Reservation, error) {
	row := repo.pool.QueryRow(ctx, `
		UPDATE reservations
		SET status = 'cancelled',
		    cancelled_at = $2,
		    credit = $3
		WHERE id = $1
		  AND status = 'active'
		RETURNING `+reservationColumns, id, cancelledAt, credit)

	r, err := scanReservation(row)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrReservationNotFound) {
		return nil, err
	}

	// Distinguish a missing id from a repeat cancel.
	if _, getErr := repo.GetByID(ctx, id); getErr == nil {
		return nil, ErrAlreadyCancelled
	}
	return nil, ErrReservationNotFound
}

func (repo *PgRepository) GetProfessionalByID(ctx context.Context, id string) (*Professional, error) {
	var p Professional
	err := repo.pool.QueryRow(ctx, `
		SELECT id, name, honorific
		FROM professionals
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Honorific)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}
	return &p, nil
}
