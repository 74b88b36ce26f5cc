package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	redisclient "github.com/coworkingterapia/agenda-interativa/internal/redis"
	"github.com/coworkingterapia/agenda-interativa/internal/schedule"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	reservations  map[uuid.UUID]*Reservation
	professionals map[string]Professional
	insertErr     error
}

func newMemRepo() *memRepo {
	return &memRepo{
		reservations: make(map[uuid.UUID]*Reservation),
		professionals: map[string]Professional{
			"011-K": {ID: "011-K", Name: "Yasmin Melo", Honorific: "Dra."},
			"009-V": {ID: "009-V", Name: "Ana Paula Vieites", Honorific: "Dra."},
		},
	}
}

func (m *memRepo) ListByDate(_ context.Context, date schedule.Date, room string) ([]Reservation, error) {
	var out []Reservation
	for _, r := range m.reservations {
		if r.Status != StatusActive || r.Date != date {
			continue
		}
		if room != "" && r.Room != room {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *memRepo) ListByMonth(_ context.Context, year int, month time.Month) ([]Reservation, error) {
	var out []Reservation
	for _, r := range m.reservations {
		if r.Status == StatusActive && r.Date.Year == year && r.Date.Month == month {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRepo) ListByProfessional(_ context.Context, professionalID string) ([]Reservation, error) {
	var out []Reservation
	for _, r := range m.reservations {
		if r.ProfessionalID == professionalID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) InsertSeries(_ context.Context, rs []Reservation) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	for i := range rs {
		cp := rs[i]
		m.reservations[cp.ID] = &cp
	}
	return nil
}

func (m *memRepo) MarkCancelled(_ context.Context, id uuid.UUID, cancelledAt time.Time, credit decimal.Decimal) (*Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	if r.Status != StatusActive {
		return nil, ErrAlreadyCancelled
	}
	r.Status = StatusCancelled
	r.CancelledAt = &cancelledAt
	r.Credit = credit
	cp := *r
	return &cp, nil
}

func (m *memRepo) GetProfessionalByID(_ context.Context, id string) (*Professional, error) {
	p, ok := m.professionals[id]
	if !ok {
		return nil, ErrProfessionalNotFound
	}
	return &p, nil
}

// passLocker runs the critical section inline, or refuses like a held lock.
type passLocker struct {
	err   error
	calls int
}

func (l *passLocker) WithBookingLock(ctx context.Context, _ string, _ schedule.Date, _ schedule.TimeOfDay, fn func(ctx context.Context) error) error {
	l.calls++
	if l.err != nil {
		return l.err
	}
	return fn(ctx)
}

// Fixtures: the clock reads Monday 2025-02-10 12:00 UTC.

var testNow = time.Date(2025, time.February, 10, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository, locker *passLocker) *Service {
	cal := schedule.NewCalendar(time.UTC, func() time.Time { return testNow })
	svc := NewService(repo, locker, cal, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func mustTime(t *testing.T, s string) schedule.TimeOfDay {
	t.Helper()
	tod, err := schedule.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return tod
}

func mustDate(t *testing.T, s string) schedule.Date {
	t.Helper()
	d, err := schedule.ParseDate(s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func validRequest(t *testing.T) BookingRequest {
	t.Helper()
	return BookingRequest{
		Date:             mustDate(t, "2025-02-17"),
		Room:             "02",
		Start:            mustTime(t, "10:00"),
		ExtensionMinutes: 15,
		Weeks:            2,
		ProfessionalID:   "011-K",
		PaymentMethod:    PayUpfront,
	}
}

func TestBookSeriesCreatesOneRecordPerWeek(t *testing.T) {
	repo := newMemRepo()
	locker := &passLocker{}
	svc := newTestService(repo, locker)

	created, err := svc.BookSeries(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("BookSeries: %v", err)
	}

	if len(created) != 3 {
		t.Fatalf("expected 3 reservations, got %d", len(created))
	}
	if locker.calls != 1 {
		t.Fatalf("expected 1 lock acquisition, got %d", locker.calls)
	}

	wantDates := []string{"2025-02-17", "2025-02-24", "2025-03-03"}
	for i, r := range created {
		if r.Date.String() != wantDates[i] {
			t.Fatalf("reservation %d on %s, want %s", i, r.Date, wantDates[i])
		}
		if r.Room != "02" || r.StartTime != mustTime(t, "10:00") {
			t.Fatalf("reservation %d has wrong slot: %s %s", i, r.Room, r.StartTime)
		}
		if r.DurationMinutes != 75 {
			t.Fatalf("reservation %d duration %d, want 75", i, r.DurationMinutes)
		}
		if r.UnitPrice.StringFixed(2) != "38.00" {
			t.Fatalf("reservation %d unit price %s, want 38.00", i, r.UnitPrice)
		}
		if r.Status != StatusActive || r.PaymentStatus != PaymentPending {
			t.Fatalf("reservation %d has status %s/%s", i, r.Status, r.PaymentStatus)
		}
	}

	stored, _ := repo.ListByProfessional(context.Background(), "011-K")
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored reservations, got %d", len(stored))
	}
}

func TestBookSeriesValidation(t *testing.T) {
	svc := newTestService(newMemRepo(), &passLocker{})
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*BookingRequest)
		wantErr error
	}{
		{"unknown room", func(r *BookingRequest) { r.Room = "99" }, ErrUnknownRoom},
		{"off-grid start", func(r *BookingRequest) { r.Start = mustTime(t, "10:05") }, ErrInvalidStart},
		{"bad extension", func(r *BookingRequest) { r.ExtensionMinutes = 45 }, ErrInvalidExtension},
		{"too many weeks", func(r *BookingRequest) { r.Weeks = 13 }, ErrInvalidWeekCount},
		{"negative weeks", func(r *BookingRequest) { r.Weeks = -1 }, ErrInvalidWeekCount},
		{"made-up payment method", func(r *BookingRequest) { r.PaymentMethod = PaymentMethod("dinheiro-na-mao") }, ErrInvalidPayment},
		{"empty payment method", func(r *BookingRequest) { r.PaymentMethod = "" }, ErrInvalidPayment},
		{"unknown professional", func(r *BookingRequest) { r.ProfessionalID = "999-Z" }, ErrProfessionalNotFound},
		{"holiday anchor", func(r *BookingRequest) { r.Date = mustDate(t, "2025-03-04") }, ErrDayNotBookable},
		{"beyond forward window", func(r *BookingRequest) { r.Date = mustDate(t, "2025-06-02") }, ErrDayNotBookable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(t)
			tc.mutate(&req)
			_, err := svc.BookSeries(ctx, req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBookSeriesInvalidPaymentNeverReachesStorage(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &passLocker{})

	req := validRequest(t)
	req.PaymentMethod = PaymentMethod("dinheiro-na-mao")

	if _, err := svc.BookSeries(context.Background(), req); !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("expected ErrInvalidPayment, got %v", err)
	}
	if len(repo.reservations) != 0 {
		t.Fatalf("rejected booking persisted %d reservations", len(repo.reservations))
	}
}

func TestBookSeriesRejectsElapsedAnchorSlot(t *testing.T) {
	svc := newTestService(newMemRepo(), &passLocker{})

	req := validRequest(t)
	req.Date = mustDate(t, "2025-02-10") // today, clock at 12:00
	req.Start = mustTime(t, "09:00")

	_, err := svc.BookSeries(context.Background(), req)
	if !errors.Is(err, ErrSlotNotBookable) {
		t.Fatalf("expected ErrSlotNotBookable, got %v", err)
	}
}

func TestBookSeriesDetectsConflictOnLaterDate(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &passLocker{})
	ctx := context.Background()

	// Commit a booking on what will be the second series date.
	existing := validRequest(t)
	existing.Date = mustDate(t, "2025-02-24")
	existing.Start = mustTime(t, "11:00")
	existing.ExtensionMinutes = 0
	existing.Weeks = 0
	if _, err := svc.BookSeries(ctx, existing); err != nil {
		t.Fatalf("setup booking: %v", err)
	}

	// The new series is clear on its anchor but its +30 extension crosses
	// the 11:00 booking one week in.
	req := validRequest(t)
	req.ExtensionMinutes = 30
	_, err := svc.BookSeries(ctx, req)
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
}

func TestBookSeriesRejectsOccupiedStartOnLaterDate(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &passLocker{})
	ctx := context.Background()

	existing := validRequest(t)
	existing.Date = mustDate(t, "2025-02-24")
	existing.Weeks = 0
	if _, err := svc.BookSeries(ctx, existing); err != nil {
		t.Fatalf("setup booking: %v", err)
	}

	// Same start time, one week earlier, recurring into the taken slot.
	// Self-exclusion must not hide an occupied identical start.
	req := validRequest(t)
	req.Weeks = 1
	_, err := svc.BookSeries(ctx, req)
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
}

func TestBookSeriesLockContention(t *testing.T) {
	svc := newTestService(newMemRepo(), &passLocker{err: redisclient.ErrLockNotAcquired})

	_, err := svc.BookSeries(context.Background(), validRequest(t))
	if !errors.Is(err, ErrBookingInProgress) {
		t.Fatalf("expected ErrBookingInProgress, got %v", err)
	}
}

func TestBookSeriesSlotTakenPassesThrough(t *testing.T) {
	repo := newMemRepo()
	repo.insertErr = ErrSlotTaken
	svc := newTestService(repo, &passLocker{})

	_, err := svc.BookSeries(context.Background(), validRequest(t))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestCancelGrantsCreditWhenPaid(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &passLocker{})
	ctx := context.Background()

	created, err := svc.BookSeries(ctx, validRequest(t))
	if err != nil {
		t.Fatalf("BookSeries: %v", err)
	}
	id := created[0].ID
	repo.reservations[id].PaymentStatus = PaymentPaid

	result, err := svc.Cancel(ctx, id)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if result.Credit.StringFixed(2) != "38.00" {
		t.Fatalf("credit = %s, want 38.00", result.Credit)
	}
	if result.Reservation.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", result.Reservation.Status)
	}
	if result.Reservation.CancelledAt == nil {
		t.Fatal("cancelled_at not set")
	}

	// The record survives as a soft-cancelled row.
	stored, _ := repo.GetByID(ctx, id)
	if stored.Status != StatusCancelled {
		t.Fatal("cancellation did not persist")
	}
}

func TestCancelUnpaidYieldsNoCredit(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &passLocker{})
	ctx := context.Background()

	created, err := svc.BookSeries(ctx, validRequest(t))
	if err != nil {
		t.Fatalf("BookSeries: %v", err)
	}

	result, err := svc.Cancel(ctx, created[0].ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !result.Credit.IsZero() {
		t.Fatalf("credit = %s, want 0", result.Credit)
	}
}

func TestCancelTwice(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &passLocker{})
	ctx := context.Background()

	created, err := svc.BookSeries(ctx, validRequest(t))
	if err != nil {
		t.Fatalf("BookSeries: %v", err)
	}
	if _, err := svc.Cancel(ctx, created[0].ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if _, err := svc.Cancel(ctx, created[0].ID); !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
}

func TestCancelUnknownID(t *testing.T) {
	svc := newTestService(newMemRepo(), &passLocker{})

	_, err := svc.Cancel(context.Background(), uuid.New())
	if !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound, got %v", err)
	}
}

func TestBlockedSlotsUsesSnapshot(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &passLocker{})
	ctx := context.Background()

	req := validRequest(t)
	req.ExtensionMinutes = 0
	req.Weeks = 0
	if _, err := svc.BookSeries(ctx, req); err != nil {
		t.Fatalf("BookSeries: %v", err)
	}

	blocked, err := svc.BlockedSlots(ctx, req.Date, "02")
	if err != nil {
		t.Fatalf("BlockedSlots: %v", err)
	}
	// 10:00 booking for 60 minutes: 09:00 through 12:15 unavailable.
	for _, s := range []string{"09:00", "10:00", "12:15"} {
		if !blocked.Contains(mustTime(t, s)) {
			t.Fatalf("expected %s blocked", s)
		}
	}
	if blocked.Contains(mustTime(t, "08:45")) {
		t.Fatal("08:45 should be open")
	}

	// Another room's grid is untouched.
	other, err := svc.BlockedSlots(ctx, req.Date, "03")
	if err != nil {
		t.Fatalf("BlockedSlots: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("room 03 should have no blocked slots, got %d", len(other))
	}
}

func TestCheckConflictAdvisory(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, &passLocker{})
	ctx := context.Background()

	req := validRequest(t)
	req.Start = mustTime(t, "11:00")
	req.ExtensionMinutes = 0
	req.Weeks = 0
	if _, err := svc.BookSeries(ctx, req); err != nil {
		t.Fatalf("BookSeries: %v", err)
	}

	conflict, err := svc.CheckConflict(ctx, req.Date, "02", mustTime(t, "10:00"), 0)
	if err != nil {
		t.Fatalf("CheckConflict: %v", err)
	}
	if !conflict {
		t.Fatal("10:00 against an 11:00 booking must conflict")
	}

	conflict, err = svc.CheckConflict(ctx, req.Date, "02", mustTime(t, "09:45"), 0)
	if err != nil {
		t.Fatalf("CheckConflict: %v", err)
	}
	if conflict {
		t.Fatal("09:45 buffered end touches 11:00, must not conflict")
	}

	if _, err := svc.CheckConflict(ctx, req.Date, "02", mustTime(t, "10:00"), 20); !errors.Is(err, ErrInvalidExtension) {
		t.Fatalf("expected ErrInvalidExtension, got %v", err)
	}
}

func TestValidateProfessionalNormalizesID(t *testing.T) {
	svc := newTestService(newMemRepo(), &passLocker{})

	prof, err := svc.ValidateProfessional(context.Background(), "  011-k ")
	if err != nil {
		t.Fatalf("ValidateProfessional: %v", err)
	}
	if prof.ID != "011-K" {
		t.Fatalf("resolved id %s, want 011-K", prof.ID)
	}

	if _, err := svc.ValidateProfessional(context.Background(), "999-Z"); !errors.Is(err, ErrProfessionalNotFound) {
		t.Fatalf("expected ErrProfessionalNotFound, got %v", err)
	}
}

func TestPreviewRecurrence(t *testing.T) {
	svc := newTestService(newMemRepo(), &passLocker{})

	preview, err := svc.PreviewRecurrence(mustDate(t, "2025-02-17"), 2, 15)
	if err != nil {
		t.Fatalf("PreviewRecurrence: %v", err)
	}
	if len(preview.Dates) != 3 {
		t.Fatalf("expected 3 dates, got %d", len(preview.Dates))
	}
	if preview.Total.StringFixed(2) != "114.00" {
		t.Fatalf("total = %s, want 114.00", preview.Total)
	}

	if _, err := svc.PreviewRecurrence(mustDate(t, "2025-02-17"), 13, 0); !errors.Is(err, ErrInvalidWeekCount) {
		t.Fatalf("expected ErrInvalidWeekCount, got %v", err)
	}
}
