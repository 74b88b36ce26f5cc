// Command simulate hammers the booking API with concurrent clients fighting
// over the same slots, then audits Postgres for double bookings. Exactly one
// writer per (room, date, start) must win; everyone else must get a 409.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coworkingterapia/agenda-interativa/internal/db"
	"github.com/coworkingterapia/agenda-interativa/internal/reservation"
	"github.com/coworkingterapia/agenda-interativa/internal/schedule"
)

type simConfig struct {
	APIBaseURL  string
	PostgresDSN string
	Workers     int
	Rounds      int
}

func loadSimConfig() simConfig {
	cfg := simConfig{
		APIBaseURL:  getenv("API_BASE_URL", "http://127.0.0.1:8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Workers:     getenvInt("SIM_WORKERS", 8),
		Rounds:      getenvInt("SIM_ROUNDS", 10),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required for the audit step")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

type tally struct {
	created   atomic.Int64
	conflicts atomic.Int64
	failures  atomic.Int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cfg := loadSimConfig()

	log.Printf("simulate: workers=%d rounds=%d target=%s", cfg.Workers, cfg.Rounds, cfg.APIBaseURL)

	client := &http.Client{Timeout: 10 * time.Second}
	professionals := []string{"011-K", "011-T", "012-T", "009-V", "014-N"}
	grid := schedule.Grid()

	var t tally
	for round := 0; round < cfg.Rounds; round++ {
		// All workers in a round race for the same slot, far enough out
		// that day eligibility never interferes.
		date := schedule.DateOf(time.Now()).AddDays(30 + round)
		start := grid[rand.Intn(len(grid)-8)]
		room := reservation.Rooms[rand.Intn(len(reservation.Rooms))].Code

		var wg sync.WaitGroup
		for w := 0; w < cfg.Workers; w++ {
			wg.Add(1)
			go func(profID string) {
				defer wg.Done()
				bookOnce(client, cfg.APIBaseURL, date, room, start, profID, &t)
			}(professionals[rand.Intn(len(professionals))])
		}
		wg.Wait()
	}

	log.Printf("results: created=%d conflicts=%d failures=%d",
		t.created.Load(), t.conflicts.Load(), t.failures.Load())

	if err := audit(cfg.PostgresDSN); err != nil {
		log.Fatalf("audit: %v", err)
	}
}

func bookOnce(client *http.Client, baseURL string, date schedule.Date, room string, start schedule.TimeOfDay, profID string, t *tally) {
	body, _ := json.Marshal(map[string]any{
		"date":            date.String(),
		"room":            room,
		"start":           start.String(),
		"professional_id": profID,
		"payment_method":  "antecipado",
	})

	resp, err := client.Post(baseURL+"/reservations", "application/json", bytes.NewReader(body))
	if err != nil {
		t.failures.Add(1)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		t.created.Add(1)
	case http.StatusConflict:
		t.conflicts.Add(1)
	default:
		t.failures.Add(1)
		log.Printf("unexpected status %d booking %s %s %s", resp.StatusCode, date, room, start)
	}
}

// audit asserts the invariant the whole design exists for: no two active
// reservations share a room, date and start.
func audit(dsn string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	var dupes int
	err = pool.QueryRow(ctx, `
		SELECT count(*) FROM (
			SELECT room, date, start_minutes
			FROM reservations
			WHERE status = 'active'
			GROUP BY room, date, start_minutes
			HAVING count(*) > 1
		) d
	`).Scan(&dupes)
	if err != nil {
		return err
	}

	if dupes > 0 {
		return fmt.Errorf("found %d double-booked slots", dupes)
	}
	log.Println("audit passed: no double-booked slots")
	return nil
}
