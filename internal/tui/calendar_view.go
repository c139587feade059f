package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tmarsden/sterling/internal/storage"
)

func (m model) enterCalendarView() (tea.Model, tea.Cmd) {
	m.screen = screenCalendar
	m.calErr = ""
	return m, m.loadCalendarConfigCmd()
}

func (m model) handleCalendarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		return m.enterDashboardView()
	}
	return m, nil
}

func (m model) loadCalendarConfigCmd() tea.Cmd {
	defaultDay := m.defaultPayDay
	defaultMove := m.defaultMoveTo
	db := m.db
	return func() tea.Msg {
		if db == nil {
			return calendarLoadedMsg{err: fmt.Errorf("database is not initialized")}
		}
		repo := storage.NewAppConfigRepo(db)
		payDay, moveTo, err := storage.ResolvePayCycleConfig(context.Background(), repo, defaultDay, defaultMove)
		if err != nil {
			return calendarLoadedMsg{err: err}
		}
		return calendarLoadedMsg{payDay: payDay, moveTo: moveTo}
	}
}

// calendarWeeks lays out the month's day numbers on a Monday-first grid.
// Zero cells are padding.
func calendarWeeks(month time.Time) [][7]int {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	// Monday-first column index.
	lead := (int(first.Weekday()) + 6) % 7
	last := first.AddDate(0, 1, -1).Day()

	weeks := make([][7]int, 0, 6)
	var week [7]int
	col := lead
	for day := 1; day <= last; day++ {
		week[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

// calendarMonths picks the two stacked months: previous + current while the
// pay date is still inside the current month, otherwise current + the pay
// date's month.
func calendarMonths(today, payDate time.Time) (time.Time, time.Time) {
	current := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	if payDate.Year() == today.Year() && payDate.Month() == today.Month() {
		return current.AddDate(0, -1, 0), current
	}
	return current, time.Date(payDate.Year(), payDate.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// daysUntil counts whole days from today to target, both at midnight.
func daysUntil(today, target time.Time) int {
	t0 := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	t1 := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, time.UTC)
	return int(t1.Sub(t0).Hours() / 24)
}

func (m model) renderCalendarScreen(layoutWidth int) string {
	title := m.theme.secondary.Bold(true).Render("PAY-DAY CALENDAR")
	sections := []string{lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, title)}

	if m.calErr != "" {
		sections = append(sections,
			lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
				m.theme.errStyle.Render("error: "+m.calErr)))
	}

	today := time.Now().UTC()
	payDate := storage.NextPayDay(today, m.calPayDay, m.calMoveTo)
	firstMonth, secondMonth := calendarMonths(today, payDate)

	sections = append(sections, "",
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, m.renderMonth(firstMonth, today, payDate)),
		"",
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, m.renderMonth(secondMonth, today, payDate)),
	)

	left := daysUntil(today, payDate)
	subtitle := fmt.Sprintf("next pay day %s · %d days left", payDate.Format("Mon 02 Jan"), left)
	if left == 1 {
		subtitle = fmt.Sprintf("next pay day %s · 1 day left", payDate.Format("Mon 02 Jan"))
	}
	sections = append(sections, "",
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, m.theme.accent.Render(subtitle)),
		"",
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, m.theme.muted.Render("esc back · q quit")),
	)
	return strings.Join(sections, "\n")
}

func (m model) renderMonth(month, today, payDate time.Time) string {
	lines := []string{
		m.theme.accent.Bold(true).Render(month.Format("January 2006")),
		m.theme.muted.Render("Mo Tu We Th Fr Sa Su"),
	}

	todayMidnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	for _, week := range calendarWeeks(month) {
		cells := make([]string, 0, 7)
		for _, day := range week {
			if day == 0 {
				cells = append(cells, "  ")
				continue
			}
			date := time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, time.UTC)
			cell := fmt.Sprintf("%2d", day)
			switch {
			case date.Equal(payDate):
				cell = m.theme.secondary.Bold(true).Render(cell)
			case date.Equal(todayMidnight):
				cell = lipgloss.NewStyle().
					Foreground(lipgloss.Color(m.theme.accentHex)).
					Reverse(true).
					Render(cell)
			case date.Before(todayMidnight):
				cell = m.theme.muted.Render(cell)
			}
			cells = append(cells, cell)
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}
