package tui

import (
	"testing"
	"time"
)

func TestCalendarWeeksMondayFirstLayout(t *testing.T) {
	// July 2025 starts on a Tuesday and has 31 days.
	weeks := calendarWeeks(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))

	if len(weeks) != 5 {
		t.Fatalf("got %d weeks, want 5", len(weeks))
	}
	if weeks[0][0] != 0 {
		t.Fatalf("monday of first week = %d, want padding", weeks[0][0])
	}
	if weeks[0][1] != 1 {
		t.Fatalf("tuesday of first week = %d, want 1", weeks[0][1])
	}
	if weeks[4][3] != 31 {
		t.Fatalf("thursday of last week = %d, want 31", weeks[4][3])
	}
}

func TestCalendarWeeksCoversEveryDayOnce(t *testing.T) {
	for _, month := range []time.Time{
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC),
	} {
		seen := map[int]int{}
		for _, week := range calendarWeeks(month) {
			for _, day := range week {
				if day != 0 {
					seen[day]++
				}
			}
		}
		last := month.AddDate(0, 1, -1).Day()
		if len(seen) != last {
			t.Fatalf("%s: %d distinct days, want %d", month.Format("2006-01"), len(seen), last)
		}
		for day, count := range seen {
			if count != 1 {
				t.Fatalf("%s: day %d appears %d times", month.Format("2006-01"), day, count)
			}
		}
	}
}

func TestCalendarMonthsPayDateStillAhead(t *testing.T) {
	today := time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC)
	payDate := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)

	first, second := calendarMonths(today, payDate)
	if first.Format("2006-01") != "2025-06" {
		t.Fatalf("first month = %s, want 2025-06", first.Format("2006-01"))
	}
	if second.Format("2006-01") != "2025-07" {
		t.Fatalf("second month = %s, want 2025-07", second.Format("2006-01"))
	}
}

func TestCalendarMonthsPayDateNextMonth(t *testing.T) {
	today := time.Date(2025, time.July, 26, 0, 0, 0, 0, time.UTC)
	payDate := time.Date(2025, time.August, 25, 0, 0, 0, 0, time.UTC)

	first, second := calendarMonths(today, payDate)
	if first.Format("2006-01") != "2025-07" {
		t.Fatalf("first month = %s, want 2025-07", first.Format("2006-01"))
	}
	if second.Format("2006-01") != "2025-08" {
		t.Fatalf("second month = %s, want 2025-08", second.Format("2006-01"))
	}
}

func TestDaysUntil(t *testing.T) {
	today := time.Date(2025, time.July, 10, 15, 30, 0, 0, time.UTC)
	target := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	if got := daysUntil(today, target); got != 15 {
		t.Fatalf("daysUntil = %d, want 15", got)
	}
	if got := daysUntil(today, today); got != 0 {
		t.Fatalf("daysUntil same day = %d, want 0", got)
	}
}
