package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tmarsden/sterling/internal/storage"
)

type exclusionRow struct {
	name     string
	excluded bool
}

func (m model) enterExclusionsView() (tea.Model, tea.Cmd) {
	m.screen = screenExclusions
	m.exErr = ""
	m.exCursor = 0
	return m, m.loadExclusionsCmd()
}

func (m model) loadExclusionsCmd() tea.Cmd {
	db := m.db
	return func() tea.Msg {
		if db == nil {
			return exclusionsLoadedMsg{err: fmt.Errorf("database is not initialized")}
		}
		ctx := context.Background()

		excluded, err := loadExclusions(ctx, db)
		if err != nil {
			return exclusionsLoadedMsg{err: err}
		}
		excludedSet := make(map[string]bool, len(excluded))
		for _, name := range excluded {
			excludedSet[name] = true
		}

		rows, err := db.QueryContext(ctx, `
			SELECT DISTINCT category FROM transactions
			WHERE is_active = 1 AND category <> ''
			ORDER BY category ASC`,
		)
		if err != nil {
			return exclusionsLoadedMsg{err: fmt.Errorf("query categories: %w", err)}
		}
		defer rows.Close()

		out := []exclusionRow{}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return exclusionsLoadedMsg{err: fmt.Errorf("scan category: %w", err)}
			}
			out = append(out, exclusionRow{name: name, excluded: excludedSet[name]})
		}
		if err := rows.Err(); err != nil {
			return exclusionsLoadedMsg{err: err}
		}
		return exclusionsLoadedMsg{rows: out}
	}
}

func (m model) handleExclusionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		return m.enterDashboardView()
	case "up", "k":
		if m.exCursor > 0 {
			m.exCursor--
		}
		return m, nil
	case "down", "j":
		if m.exCursor < len(m.exRows)-1 {
			m.exCursor++
		}
		return m, nil
	case " ":
		if m.exCursor < len(m.exRows) {
			m.exRows[m.exCursor].excluded = !m.exRows[m.exCursor].excluded
			m.exDirty = true
		}
		return m, nil
	case "enter":
		if !m.exDirty {
			return m.enterDashboardView()
		}
		return m, m.saveExclusionsCmd()
	}
	return m, nil
}

func (m model) saveExclusionsCmd() tea.Cmd {
	db := m.db
	excluded := make([]string, 0, len(m.exRows))
	for _, r := range m.exRows {
		if r.excluded {
			excluded = append(excluded, r.name)
		}
	}
	return func() tea.Msg {
		repo := storage.NewAppConfigRepo(db)
		err := repo.UpsertMany(context.Background(), map[string]string{
			storage.ConfigExclusions: strings.Join(excluded, ","),
		})
		return exclusionsSavedMsg{err: err}
	}
}

func (m model) renderExclusionsScreen(layoutWidth int) string {
	title := m.theme.secondary.Bold(true).Render("DASHBOARD EXCLUSIONS")
	sections := []string{lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, title)}

	if m.exErr != "" {
		sections = append(sections,
			lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
				m.theme.errStyle.Render("error: "+m.exErr)))
	}

	if len(m.exRows) == 0 {
		sections = append(sections, "",
			lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
				m.theme.muted.Render("no categories cached yet")))
		return strings.Join(sections, "\n")
	}

	lines := make([]string, 0, len(m.exRows))
	for i, r := range m.exRows {
		check := "[ ]"
		if r.excluded {
			check = m.theme.errStyle.Render("[x]")
		}
		line := check + " " + r.name
		if i == m.exCursor {
			line = m.theme.accent.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	body := strings.Join(lines, "\n")
	sections = append(sections, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, body))

	hints := m.theme.muted.Render("space toggle · enter save · esc back")
	sections = append(sections, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, hints))
	return strings.Join(sections, "\n")
}
