package storage

import (
	"testing"
	"time"
)

func date(value string, t *testing.T) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse test date %q: %v", value, err)
	}
	return parsed
}

func TestPayDateForMonthClampsShortMonths(t *testing.T) {
	cases := []struct {
		year   int
		month  time.Month
		payDay int
		want   string
	}{
		{2025, time.February, 31, "2025-02-28"},
		{2024, time.February, 31, "2024-02-29"}, // leap year
		{2025, time.April, 31, "2025-04-30"},
		{2025, time.January, 31, "2025-01-31"},
		{2025, time.June, 15, "2025-06-15"},
	}
	for _, tc := range cases {
		got := payDateForMonth(tc.year, tc.month, tc.payDay).Format("2006-01-02")
		if got != tc.want {
			t.Errorf("payDateForMonth(%d, %s, %d) = %s, want %s", tc.year, tc.month, tc.payDay, got, tc.want)
		}
	}
}

func TestAdjustedPayDateMovesWeekends(t *testing.T) {
	// 2025-05-31 is a Saturday, 2025-08-31 is a Sunday.
	cases := []struct {
		year   int
		month  time.Month
		payDay int
		moveTo MoveTo
		want   string
	}{
		{2025, time.May, 31, MovePrevious, "2025-05-30"},    // Sat -> Fri
		{2025, time.May, 31, MoveNext, "2025-06-02"},        // Sat -> Mon
		{2025, time.August, 31, MovePrevious, "2025-08-29"}, // Sun -> Fri
		{2025, time.August, 31, MoveNext, "2025-09-01"},     // Sun -> Mon
		{2025, time.July, 25, MovePrevious, "2025-07-25"},   // Friday stays
		{2025, time.July, 21, MoveNext, "2025-07-21"},       // Monday stays
	}
	for _, tc := range cases {
		got := AdjustedPayDate(tc.year, tc.month, tc.payDay, tc.moveTo).Format("2006-01-02")
		if got != tc.want {
			t.Errorf("AdjustedPayDate(%d, %s, %d, %s) = %s, want %s", tc.year, tc.month, tc.payDay, tc.moveTo, got, tc.want)
		}
	}
}

func TestAdjustedPayDateNeverLandsOnWeekend(t *testing.T) {
	for year := 2023; year <= 2026; year++ {
		for month := time.January; month <= time.December; month++ {
			for _, payDay := range []int{1, 15, 25, 31} {
				for _, moveTo := range []MoveTo{MovePrevious, MoveNext} {
					got := AdjustedPayDate(year, month, payDay, moveTo)
					if wd := got.Weekday(); wd == time.Saturday || wd == time.Sunday {
						t.Fatalf("AdjustedPayDate(%d, %s, %d, %s) = %s falls on %s",
							year, month, payDay, moveTo, got.Format("2006-01-02"), wd)
					}
				}
			}
		}
	}
}

func TestNextPayDayPicksThisMonthWhenAhead(t *testing.T) {
	today := date("2025-07-10", t)
	got := NextPayDay(today, 25, MovePrevious).Format("2006-01-02")
	if got != "2025-07-25" {
		t.Fatalf("NextPayDay = %s, want 2025-07-25", got)
	}
}

func TestNextPayDayRollsToNextMonthOnOrAfterPayDate(t *testing.T) {
	// On the pay date itself the next one is a month out.
	today := date("2025-07-25", t)
	got := NextPayDay(today, 25, MovePrevious).Format("2006-01-02")
	if got != "2025-08-25" {
		t.Fatalf("NextPayDay = %s, want 2025-08-25", got)
	}
}

func TestNextPayDayAcrossYearBoundary(t *testing.T) {
	today := date("2025-12-30", t)
	got := NextPayDay(today, 25, MovePrevious).Format("2006-01-02")
	// 2026-01-25 is a Sunday; previous moves it to Friday the 23rd.
	if got != "2026-01-23" {
		t.Fatalf("NextPayDay = %s, want 2026-01-23", got)
	}
}

func TestNextPayDayLateJanuaryDoesNotSkipFebruary(t *testing.T) {
	today := date("2025-01-31", t)
	got := NextPayDay(today, 31, MovePrevious).Format("2006-01-02")
	if got != "2025-02-28" {
		t.Fatalf("NextPayDay = %s, want 2025-02-28", got)
	}
}

func TestBuildPayCyclesCoversSpanWithContiguousWindows(t *testing.T) {
	first := date("2025-03-12", t)
	last := date("2025-06-03", t)

	cycles := buildPayCycles(first, last, 25, MovePrevious)
	if len(cycles) == 0 {
		t.Fatal("buildPayCycles returned no cycles")
	}

	// Contiguous: each window's end is the next window's start.
	for i := 1; i < len(cycles); i++ {
		if cycles[i-1].NextPayDate != cycles[i].PayDate {
			t.Fatalf("cycle %d ends %s but cycle %d starts %s",
				i-1, cycles[i-1].NextPayDate, i, cycles[i].PayDate)
		}
	}

	// Every transaction date in the span falls in exactly one window.
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		count := 0
		ds := day.Format("2006-01-02")
		for _, c := range cycles {
			if ds >= c.PayDate && ds < c.NextPayDate {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("date %s falls in %d windows, want exactly 1", ds, count)
		}
	}

	// Labels are unique.
	seen := map[string]bool{}
	for _, c := range cycles {
		if seen[c.CycleMonth] {
			t.Fatalf("duplicate cycle label %q", c.CycleMonth)
		}
		seen[c.CycleMonth] = true
	}
}

func TestCycleLabelUsesWindowMidpoint(t *testing.T) {
	// Pay day 25: a window opened 25 Aug is mostly September spending.
	got := cycleLabel(date("2025-08-25", t), date("2025-09-25", t))
	if got != "2025-09" {
		t.Fatalf("cycleLabel = %q, want 2025-09", got)
	}

	// Pay day 1: the window is the calendar month itself.
	got = cycleLabel(date("2025-09-01", t), date("2025-10-01", t))
	if got != "2025-09" {
		t.Fatalf("cycleLabel = %q, want 2025-09", got)
	}
}

func TestParseMoveTo(t *testing.T) {
	if got, ok := ParseMoveTo("  Previous "); !ok || got != MovePrevious {
		t.Fatalf("ParseMoveTo(Previous) = (%q, %v)", got, ok)
	}
	if got, ok := ParseMoveTo("next"); !ok || got != MoveNext {
		t.Fatalf("ParseMoveTo(next) = (%q, %v)", got, ok)
	}
	if _, ok := ParseMoveTo("sideways"); ok {
		t.Fatal("ParseMoveTo(sideways) ok = true, want false")
	}
}
