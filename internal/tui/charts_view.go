package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	comparisonBarWidth = 28
	monthlyChartHeight = 8
	monthlyColumnWidth = 6
)

// renderComparisonChart draws paired horizontal bars per category: the
// current expense month over the previous one, both scaled to the largest
// spend in view.
func (m model) renderComparisonChart() string {
	rows := m.dashData.comparison
	if len(rows) == 0 {
		return ""
	}

	var maxSpend int64
	for _, r := range rows {
		if r.currentMinor > maxSpend {
			maxSpend = r.currentMinor
		}
		if r.previousMinor > maxSpend {
			maxSpend = r.previousMinor
		}
	}
	if maxSpend <= 0 {
		return ""
	}

	title := fmt.Sprintf(
		"SPENDING · %s vs %s",
		formatShortMonthLabel(m.dashData.monthLabel),
		formatShortMonthLabel(m.dashData.prevMonthLabel),
	)
	lines := []string{m.theme.secondary.Bold(true).Render(title)}

	const nameWidth = 16
	for _, r := range rows {
		name := r.category
		if name == "" {
			name = "(uncategorised)"
		}
		name = truncateText(name, nameWidth)
		lines = append(lines, fmt.Sprintf(
			"%-*s %s %s",
			nameWidth, name,
			m.theme.accent.Render(scaledBar(r.currentMinor, maxSpend, comparisonBarWidth)),
			formatMinorGBP(r.currentMinor),
		))
		lines = append(lines, fmt.Sprintf(
			"%-*s %s %s",
			nameWidth, "",
			m.theme.muted.Render(scaledBar(r.previousMinor, maxSpend, comparisonBarWidth)),
			m.theme.muted.Render(formatMinorGBP(r.previousMinor)),
		))
	}
	return strings.Join(lines, "\n")
}

// scaledBar renders a horizontal bar of width proportional to value/max.
// Any non-zero value shows at least one cell.
func scaledBar(value, max int64, width int) string {
	if value <= 0 || max <= 0 {
		return ""
	}
	cells := int(value * int64(width) / max)
	if cells < 1 {
		cells = 1
	}
	if cells > width {
		cells = width
	}
	return strings.Repeat("█", cells)
}

const (
	monthlyCellEmpty = iota
	monthlyCellBar
	monthlyCellCurrent
	monthlyCellAxis
)

// renderMonthlyChart draws one vertical bar per expense month on a rune
// grid, the newest month highlighted. Cell style codes are tracked in a
// parallel grid and applied per run when flushing rows.
func (m model) renderMonthlyChart() string {
	months := m.dashData.monthly
	if len(months) < 2 {
		return ""
	}

	var maxSpend int64
	for _, ms := range months {
		if ms.spendMinor > maxSpend {
			maxSpend = ms.spendMinor
		}
	}
	if maxSpend <= 0 {
		return ""
	}

	cols := len(months) * monthlyColumnWidth
	grid := make([][]rune, monthlyChartHeight+1)
	codes := make([][]int, monthlyChartHeight+1)
	for y := range grid {
		grid[y] = make([]rune, cols)
		codes[y] = make([]int, cols)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	// Baseline axis.
	for x := 0; x < cols; x++ {
		grid[monthlyChartHeight][x] = '─'
		codes[monthlyChartHeight][x] = monthlyCellAxis
	}

	for i, ms := range months {
		height := int(ms.spendMinor * int64(monthlyChartHeight) / maxSpend)
		if ms.spendMinor > 0 && height < 1 {
			height = 1
		}
		code := monthlyCellBar
		if i == len(months)-1 {
			code = monthlyCellCurrent
		}
		colStart := i*monthlyColumnWidth + 1
		for y := monthlyChartHeight - 1; y >= monthlyChartHeight-height; y-- {
			for x := colStart; x < colStart+monthlyColumnWidth-2 && x < cols; x++ {
				grid[y][x] = '█'
				codes[y][x] = code
			}
		}
	}

	styleFor := map[int]lipgloss.Style{
		monthlyCellBar:     m.theme.muted,
		monthlyCellCurrent: m.theme.accent,
		monthlyCellAxis:    m.theme.muted,
	}

	lines := []string{m.theme.secondary.Bold(true).Render("MONTHLY SPEND")}
	for y := range grid {
		lines = append(lines, flushStyledRow(grid[y], codes[y], styleFor))
	}

	// Axis labels, one per column.
	labels := make([]string, 0, len(months))
	for _, ms := range months {
		label := formatShortMonthLabel(ms.label)
		if len(label) > monthlyColumnWidth-1 {
			label = label[:monthlyColumnWidth-1]
		}
		labels = append(labels, fmt.Sprintf("%-*s", monthlyColumnWidth, label))
	}
	lines = append(lines, m.theme.muted.Render(strings.Join(labels, "")))
	return strings.Join(lines, "\n")
}

// flushStyledRow renders one grid row, batching adjacent cells with the same
// style code into a single styled segment.
func flushStyledRow(row []rune, codes []int, styleFor map[int]lipgloss.Style) string {
	var out strings.Builder
	var segment strings.Builder
	current := codes[0]

	flush := func() {
		if segment.Len() == 0 {
			return
		}
		text := segment.String()
		if style, ok := styleFor[current]; ok {
			text = style.Render(text)
		}
		out.WriteString(text)
		segment.Reset()
	}

	for x, ch := range row {
		if codes[x] != current {
			flush()
			current = codes[x]
		}
		segment.WriteRune(ch)
	}
	flush()
	return out.String()
}
