package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coworkingterapia/agenda-interativa/internal/db"
	"github.com/coworkingterapia/agenda-interativa/internal/pricing"
	"github.com/coworkingterapia/agenda-interativa/internal/reservation"
	"github.com/coworkingterapia/agenda-interativa/internal/schedule"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := createSchema(context.Background(), pool); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	if err := seedProfessionals(context.Background(), pool); err != nil {
		log.Fatalf("seed professionals: %v", err)
	}
	if err := seedReservations(context.Background(), pool, 40); err != nil {
		log.Fatalf("seed reservations: %v", err)
	}

	log.Println("seed complete")
}

func createSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS professionals (
			id         text PRIMARY KEY,
			name       text NOT NULL,
			honorific  text NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS reservations (
			id                uuid PRIMARY KEY,
			date              date NOT NULL,
			room              text NOT NULL,
			start_minutes     int  NOT NULL,
			duration_minutes  int  NOT NULL,
			extension_minutes int  NOT NULL DEFAULT 0,
			professional_id   text NOT NULL REFERENCES professionals (id),
			unit_price        numeric(10,2) NOT NULL,
			payment_method    text NOT NULL,
			payment_status    text NOT NULL,
			status            text NOT NULL,
			recurrence_weeks  int  NOT NULL DEFAULT 0,
			created_at        timestamptz NOT NULL DEFAULT now(),
			cancelled_at      timestamptz,
			credit            numeric(10,2) NOT NULL DEFAULT 0
		);

		-- The consistency boundary: two active bookings can never share a
		-- room, date and start. Cancelled rows do not count.
		CREATE UNIQUE INDEX IF NOT EXISTS reservations_slot_active
			ON reservations (room, date, start_minutes)
			WHERE status = 'active';

		CREATE INDEX IF NOT EXISTS reservations_by_date
			ON reservations (date) WHERE status = 'active';
	`)
	return err
}

// The studio's roster is fixed; ids follow the existing card format.
var professionals = []reservation.Professional{
	{ID: "011-K", Name: "Yasmin Melo", Honorific: "Dra."},
	{ID: "011-T", Name: "Anne Evans", Honorific: "Dra."},
	{ID: "012-T", Name: "Janete das Graças", Honorific: "Dra."},
	{ID: "009-V", Name: "Ana Paula Vieites", Honorific: "Dra."},
	{ID: "014-N", Name: "Eliana Priscilla", Honorific: "Dra."},
	{ID: "016-P", Name: "Graci Santana", Honorific: "Dra."},
	{ID: "008-P", Name: "Julia Moura", Honorific: "Dra."},
	{ID: "001-B", Name: "Sâmia Faulin", Honorific: "Dra."},
	{ID: "020-T", Name: "Sângely", Honorific: "Dra."},
}

func seedProfessionals(ctx context.Context, pool *pgxpool.Pool) error {
	log.Printf("seeding %d professionals", len(professionals))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, p := range professionals {
		_, err := tx.Exec(ctx, `
			INSERT INTO professionals (id, name, honorific)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = $2, honorific = $3
		`, p.ID, p.Name, p.Honorific)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// seedReservations scatters sample bookings over the next few weeks so the
// calendar and grid have something to block.
func seedReservations(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding up to %d reservations", count)

	grid := schedule.Grid()
	extensions := []int{0, 15, 30}
	methods := []reservation.PaymentMethod{reservation.PayUpfront, reservation.PayOnDay}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for i := 0; i < count; i++ {
		date := schedule.DateOf(time.Now()).AddDays(gofakeit.Number(1, 28))
		// Leave room for the service and trailing gap before closing.
		start := grid[gofakeit.Number(0, len(grid)-8)]
		ext := extensions[gofakeit.Number(0, len(extensions)-1)]
		prof := professionals[gofakeit.Number(0, len(professionals)-1)]
		room := reservation.Rooms[gofakeit.Number(0, len(reservation.Rooms)-1)]

		tag, err := tx.Exec(ctx, `
			INSERT INTO reservations (
				id, date, room, start_minutes, duration_minutes, extension_minutes,
				professional_id, unit_price, payment_method, payment_status, status
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'active')
			ON CONFLICT DO NOTHING
		`,
			uuid.New(), date.String(), room.Code, int(start),
			schedule.BaseServiceMinutes+ext, ext, prof.ID,
			pricing.UnitPrice(ext),
			methods[gofakeit.Number(0, 1)], reservation.PaymentPaid,
		)
		if err != nil {
			return err
		}
		inserted += int(tag.RowsAffected())
	}

	log.Printf("inserted %d reservations", inserted)
	return tx.Commit(ctx)
}
