package tui

import (
	"fmt"
	"strings"
	"time"
)

// formatMinorGBP renders minor units as pounds with thousands separators:
// 123456 -> "£1,234.56". Negative amounts keep a leading minus.
func formatMinorGBP(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	pounds := minor / 100
	pence := minor % 100
	return fmt.Sprintf("%s£%s.%02d", sign, groupThousands(pounds), pence)
}

// formatSignedMinorGBP always carries an explicit sign, for transaction
// amounts where direction matters.
func formatSignedMinorGBP(minor int64) string {
	if minor >= 0 {
		return "+" + formatMinorGBP(minor)
	}
	return formatMinorGBP(minor)
}

func groupThousands(n int64) string {
	digits := fmt.Sprintf("%d", n)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// formatMonthLabel turns an expense-month key ("2025-09") into a display
// name ("September 2025"). Unparsable input passes through unchanged.
func formatMonthLabel(label string) string {
	t, err := time.Parse("2006-01", label)
	if err != nil {
		return label
	}
	return t.Format("January 2006")
}

// formatShortMonthLabel is the axis variant: "Sep 25".
func formatShortMonthLabel(label string) string {
	t, err := time.Parse("2006-01", label)
	if err != nil {
		return label
	}
	return t.Format("Jan 06")
}

// truncateText shortens s to at most width runes, ending with an ellipsis
// when anything was cut. Slicing over runes keeps multi-byte names intact.
func truncateText(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

// formatTxTimestamp renders a stored RFC3339 timestamp as "02 Jan 15:04".
func formatTxTimestamp(raw string) string {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return raw
		}
	}
	return t.Format("02 Jan 15:04")
}
