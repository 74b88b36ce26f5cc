package schedule

import (
	"testing"
	"time"
)

func TestExpandRecurrenceSingle(t *testing.T) {
	anchor := Date{Year: 2025, Month: time.March, Day: 10}
	dates := ExpandRecurrence(anchor, 0)

	if len(dates) != 1 {
		t.Fatalf("expected 1 date, got %d", len(dates))
	}
	if dates[0] != anchor {
		t.Fatalf("expected %s, got %s", anchor, dates[0])
	}
}

func TestExpandRecurrenceFull(t *testing.T) {
	anchor := Date{Year: 2025, Month: time.March, Day: 4}
	dates := ExpandRecurrence(anchor, 12)

	if len(dates) != 13 {
		t.Fatalf("expected 13 dates, got %d", len(dates))
	}
	for i, d := range dates {
		want := anchor.AddDays(7 * i)
		if d != want {
			t.Fatalf("date %d: expected %s, got %s", i, want, d)
		}
		if d.Weekday() != anchor.Weekday() {
			t.Fatalf("date %d fell on %s, anchor is %s", i, d.Weekday(), anchor.Weekday())
		}
	}
	for i := 1; i < len(dates); i++ {
		gap := dates[i].Time(time.UTC).Sub(dates[i-1].Time(time.UTC))
		if gap != 7*24*time.Hour {
			t.Fatalf("gap between %s and %s is %s", dates[i-1], dates[i], gap)
		}
	}
}

func TestExpandRecurrenceCrossesMonths(t *testing.T) {
	// Starting late in December the series walks into the next year.
	anchor := Date{Year: 2025, Month: time.December, Day: 22}
	dates := ExpandRecurrence(anchor, 3)

	want := []Date{
		{Year: 2025, Month: time.December, Day: 22},
		{Year: 2025, Month: time.December, Day: 29},
		{Year: 2026, Month: time.January, Day: 5},
		{Year: 2026, Month: time.January, Day: 12},
	}
	for i, d := range dates {
		if d != want[i] {
			t.Fatalf("date %d: expected %s, got %s", i, want[i], d)
		}
	}
}

func TestValidWeekCount(t *testing.T) {
	for _, w := range []int{0, 1, 12} {
		if !ValidWeekCount(w) {
			t.Fatalf("weeks=%d should be valid", w)
		}
	}
	for _, w := range []int{-1, 13, 52} {
		if ValidWeekCount(w) {
			t.Fatalf("weeks=%d should be invalid", w)
		}
	}
}

func TestDateParseAndFormat(t *testing.T) {
	d, err := ParseDate("2025-03-04")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2025-03-04" {
		t.Fatalf("round trip gave %q", d.String())
	}
	if d.Weekday() != time.Tuesday {
		t.Fatalf("2025-03-04 is a Tuesday, got %s", d.Weekday())
	}

	if _, err := ParseDate("04/03/2025"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
	if _, err := ParseDate("2025-02-30"); err == nil {
		t.Fatal("expected error for impossible date")
	}
}
