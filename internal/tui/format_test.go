package tui

import (
	"testing"
	"unicode/utf8"
)

func TestFormatMinorGBP(t *testing.T) {
	cases := []struct {
		minor int64
		want  string
	}{
		{0, "£0.00"},
		{5, "£0.05"},
		{1250, "£12.50"},
		{123456, "£1,234.56"},
		{100000000, "£1,000,000.00"},
		{-4321, "-£43.21"},
	}
	for _, tc := range cases {
		if got := formatMinorGBP(tc.minor); got != tc.want {
			t.Errorf("formatMinorGBP(%d) = %q, want %q", tc.minor, got, tc.want)
		}
	}
}

func TestFormatSignedMinorGBP(t *testing.T) {
	if got := formatSignedMinorGBP(2500); got != "+£25.00" {
		t.Fatalf("got %q", got)
	}
	if got := formatSignedMinorGBP(-1250); got != "-£12.50" {
		t.Fatalf("got %q", got)
	}
	if got := formatSignedMinorGBP(0); got != "+£0.00" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatMonthLabel(t *testing.T) {
	if got := formatMonthLabel("2025-09"); got != "September 2025" {
		t.Fatalf("got %q", got)
	}
	if got := formatShortMonthLabel("2025-09"); got != "Sep 25" {
		t.Fatalf("got %q", got)
	}
	// Unparsable labels pass through.
	if got := formatMonthLabel("not-a-month"); got != "not-a-month" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatTxTimestamp(t *testing.T) {
	if got := formatTxTimestamp("2025-07-14T09:30:00Z"); got != "14 Jul 09:30" {
		t.Fatalf("got %q", got)
	}
	if got := formatTxTimestamp("2025-07-14T09:30:00.123456Z"); got != "14 Jul 09:30" {
		t.Fatalf("got %q", got)
	}
	if got := formatTxTimestamp("garbage"); got != "garbage" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncateTextKeepsRunesIntact(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"Groceries", 24, "Groceries"},
		{"Café Nero Espresso", 6, "Café …"},
		{"Überweisung an Müller", 10, "Überweisu…"},
		{"abc", 3, "abc"},
		{"abcd", 3, "ab…"},
		{"anything", 0, ""},
	}
	for _, tc := range cases {
		got := truncateText(tc.in, tc.width)
		if got != tc.want {
			t.Errorf("truncateText(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncateText(%q, %d) produced invalid UTF-8", tc.in, tc.width)
		}
	}
}
