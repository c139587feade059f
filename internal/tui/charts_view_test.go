package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestScaledBar(t *testing.T) {
	if got := scaledBar(0, 100, 20); got != "" {
		t.Fatalf("zero value bar = %q, want empty", got)
	}
	if got := scaledBar(100, 100, 20); got != strings.Repeat("█", 20) {
		t.Fatalf("full bar = %q", got)
	}
	if got := scaledBar(50, 100, 20); got != strings.Repeat("█", 10) {
		t.Fatalf("half bar = %q", got)
	}
	// Tiny but non-zero spend still shows a cell.
	if got := scaledBar(1, 1000000, 20); got != "█" {
		t.Fatalf("minimum bar = %q", got)
	}
}

func TestFlushStyledRowBatchesRuns(t *testing.T) {
	row := []rune("aabbb")
	codes := []int{1, 1, 2, 2, 2}
	// Without styles the row passes through unscathed.
	if got := flushStyledRow(row, codes, map[int]lipgloss.Style{}); got != "aabbb" {
		t.Fatalf("unstyled row = %q", got)
	}
}
