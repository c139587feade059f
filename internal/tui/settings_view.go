package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tmarsden/sterling/internal/storage"
)

const (
	settingsFocusType = iota
	settingsFocusDay
	settingsFocusMove
)

func settingsTypeOptions() []string {
	return []string{"specific day", "first of month", "last of month"}
}

func settingsMoveOptions() []string {
	return []string{"previous friday", "next monday"}
}

func (m model) enterSettingsView() (tea.Model, tea.Cmd) {
	m.screen = screenSettings
	m.setErr = ""
	m.setInfo = ""
	m.setFocus = settingsFocusType
	return m, m.loadSettingsCmd()
}

func (m model) loadSettingsCmd() tea.Cmd {
	defaultDay := m.defaultPayDay
	defaultMove := m.defaultMoveTo
	db := m.db
	return func() tea.Msg {
		if db == nil {
			return settingsLoadedMsg{err: fmt.Errorf("database is not initialized")}
		}
		ctx := context.Background()
		repo := storage.NewAppConfigRepo(db)

		typeIdx := 0
		if raw, ok, err := repo.Get(ctx, storage.ConfigPayCycleType); err != nil {
			return settingsLoadedMsg{err: err}
		} else if ok {
			switch strings.ToLower(strings.TrimSpace(raw)) {
			case "first":
				typeIdx = 1
			case "last":
				typeIdx = 2
			}
		}

		payDay, moveTo, err := storage.ResolvePayCycleConfig(ctx, repo, defaultDay, defaultMove)
		if err != nil {
			return settingsLoadedMsg{err: err}
		}
		moveIdx := 0
		if moveTo == storage.MoveNext {
			moveIdx = 1
		}
		return settingsLoadedMsg{typeIdx: typeIdx, day: payDay, moveIdx: moveIdx}
	}
}

func (m model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		return m.enterDashboardView()
	case "o":
		m.tokenDialog = tokenDialogConnect
		m.tokenInput.Focus()
		return m, nil
	case "D":
		m.tokenDialog = tokenDialogDisconnect
		return m, nil
	case "tab", "down", "j":
		m.setFocus = (m.setFocus + 1) % 3
		return m, nil
	case "shift+tab", "up", "k":
		m.setFocus = (m.setFocus + 2) % 3
		return m, nil
	case "left", "h":
		return m.cycleSettingsOption(-1), nil
	case "right", "l":
		return m.cycleSettingsOption(1), nil
	case "backspace", "delete":
		if m.setFocus == settingsFocusDay && len(m.setDayDigits) > 0 {
			m.setDayDigits = m.setDayDigits[:len(m.setDayDigits)-1]
			m.setErr = ""
		}
		return m, nil
	case "enter":
		return m.saveSettings()
	}

	if m.setFocus == settingsFocusDay && msg.Type == tea.KeyRunes {
		for _, ch := range msg.Runes {
			if ch >= '0' && ch <= '9' && len(m.setDayDigits) < 2 {
				m.setDayDigits += string(ch)
			}
		}
		m.setErr = ""
	}
	return m, nil
}

func (m model) cycleSettingsOption(delta int) model {
	switch m.setFocus {
	case settingsFocusType:
		opts := settingsTypeOptions()
		m.setTypeIdx = (m.setTypeIdx + delta + len(opts)) % len(opts)
	case settingsFocusMove:
		opts := settingsMoveOptions()
		m.setMoveIdx = (m.setMoveIdx + delta + len(opts)) % len(opts)
	}
	return m
}

func (m model) saveSettings() (tea.Model, tea.Cmd) {
	payDay := 0
	switch m.setTypeIdx {
	case 1:
		payDay = 1
	case 2:
		payDay = 31
	default:
		n, err := strconv.Atoi(m.setDayDigits)
		if err != nil || n < 1 || n > 31 {
			m.setErr = "pay day must be between 1 and 31"
			return m, nil
		}
		payDay = n
	}

	moveTo := storage.MovePrevious
	if m.setMoveIdx == 1 {
		moveTo = storage.MoveNext
	}
	typeValue := [3]string{"specific", "first", "last"}[m.setTypeIdx]

	m.setErr = ""
	m.setInfo = "saving..."
	return m, m.saveSettingsCmd(typeValue, payDay, moveTo)
}

func (m model) saveSettingsCmd(typeValue string, payDay int, moveTo storage.MoveTo) tea.Cmd {
	db := m.db
	return func() tea.Msg {
		ctx := context.Background()
		repo := storage.NewAppConfigRepo(db)
		err := repo.UpsertMany(ctx, map[string]string{
			storage.ConfigPayCycleType:   typeValue,
			storage.ConfigPayCycleDay:    strconv.Itoa(payDay),
			storage.ConfigPayCycleMoveTo: string(moveTo),
		})
		if err != nil {
			return settingsSavedMsg{err: err}
		}
		// Re-bucket everything under the new cycle definition.
		if err := storage.RebuildPayCycles(ctx, db, payDay, moveTo); err != nil {
			return settingsSavedMsg{err: err}
		}
		return settingsSavedMsg{}
	}
}

func (m model) renderSettingsScreen(layoutWidth int) string {
	title := m.theme.secondary.Bold(true).Render("SETTINGS")
	sections := []string{lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, title)}

	row := func(focused bool, label, value string) string {
		marker := "  "
		if focused {
			marker = m.theme.accent.Render("▸ ")
			value = m.theme.accent.Render("‹ " + value + " ›")
		}
		return fmt.Sprintf("%s%-16s %s", marker, label, value)
	}

	dayValue := m.setDayDigits
	if dayValue == "" {
		dayValue = "–"
	}
	if m.setTypeIdx != 0 {
		dayValue = m.theme.muted.Render("(from pay day type)")
	}

	lines := []string{
		row(m.setFocus == settingsFocusType, "pay day type", settingsTypeOptions()[m.setTypeIdx]),
		row(m.setFocus == settingsFocusDay, "pay day", dayValue),
		row(m.setFocus == settingsFocusMove, "weekend move", settingsMoveOptions()[m.setMoveIdx]),
	}
	body := strings.Join(lines, "\n")
	sections = append(sections, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, body))

	if m.setErr != "" {
		sections = append(sections, "",
			lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
				m.theme.errStyle.Render(m.setErr)))
	} else if m.setInfo != "" {
		sections = append(sections, "",
			lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
				m.theme.accent.Render(m.setInfo)))
	}

	hints := m.theme.muted.Render("↑/↓ field · ←/→ value · enter save · o connect token · D disconnect · esc back")
	sections = append(sections, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, hints))
	return strings.Join(sections, "\n")
}
