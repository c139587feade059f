package tui

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const sqlResultRowLimit = 50

func (m model) enterSQLView() (tea.Model, tea.Cmd) {
	m.screen = screenSQL
	m.sqlErr = ""
	m.sqlInput.Focus()
	return m, nil
}

func (m model) handleSQLKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.sqlInput.Blur()
		return m.enterDashboardView()
	case "enter":
		query := strings.TrimSpace(m.sqlInput.Value())
		if query == "" {
			return m, nil
		}
		if err := validateSelectQuery(query); err != nil {
			m.sqlRan = true
			m.sqlErr = err.Error()
			m.sqlColumns = nil
			m.sqlRows = nil
			return m, nil
		}
		return m, m.runSQLQueryCmd(query)
	}
	var cmd tea.Cmd
	m.sqlInput, cmd = m.sqlInput.Update(msg)
	return m, cmd
}

// validateSelectQuery accepts exactly one read-only statement. Anything that
// is not a SELECT (or a WITH ... SELECT) is rejected before reaching the
// driver.
func validateSelectQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if strings.Contains(trimmed, ";") {
		return errors.New("only a single statement is allowed")
	}
	lowered := strings.ToLower(trimmed)
	if !strings.HasPrefix(lowered, "select") && !strings.HasPrefix(lowered, "with") {
		return errors.New("only SELECT queries are allowed")
	}
	for _, keyword := range []string{"insert", "update", "delete", "drop", "alter", "create", "replace", "attach", "pragma", "vacuum"} {
		if containsWord(lowered, keyword) {
			return fmt.Errorf("%s statements are not allowed", strings.ToUpper(keyword))
		}
	}
	return nil
}

// containsWord reports whether word appears as a whole token in text.
func containsWord(text, word string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], word)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func (m model) runSQLQueryCmd(query string) tea.Cmd {
	db := m.db
	return func() tea.Msg {
		if db == nil {
			return sqlResultMsg{err: fmt.Errorf("database is not initialized")}
		}
		started := time.Now()
		columns, rows, err := runSelectQuery(context.Background(), db, query)
		if err != nil {
			return sqlResultMsg{err: err}
		}
		return sqlResultMsg{columns: columns, rows: rows, elapsed: time.Since(started)}
	}
}

func runSelectQuery(ctx context.Context, db *sql.DB, query string) ([]string, [][]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	out := make([][]string, 0, sqlResultRowLimit)
	for rows.Next() && len(out) < sqlResultRowLimit {
		raw := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, err
		}
		record := make([]string, len(columns))
		for i, v := range raw {
			if v.Valid {
				record[i] = v.String
			} else {
				record[i] = "NULL"
			}
		}
		out = append(out, record)
	}
	return columns, out, rows.Err()
}

func (m model) renderSQLScreen(layoutWidth int) string {
	title := m.theme.secondary.Bold(true).Render("SQL CONSOLE")
	sections := []string{
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, title),
		"",
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, m.sqlInput.View()),
	}

	if m.sqlErr != "" {
		sections = append(sections, "",
			lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
				m.theme.errStyle.Render("error: "+m.sqlErr)))
	} else if m.sqlRan {
		sections = append(sections, "",
			lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, m.renderSQLResult()))
	}

	hints := m.theme.muted.Render("enter run · esc back")
	sections = append(sections, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, hints))
	return strings.Join(sections, "\n")
}

func (m model) renderSQLResult() string {
	if len(m.sqlColumns) == 0 {
		return m.theme.muted.Render("no rows")
	}

	widths := make([]int, len(m.sqlColumns))
	for i, col := range m.sqlColumns {
		widths[i] = len(col)
	}
	for _, record := range m.sqlRows {
		for i, v := range record {
			if len(v) > widths[i] {
				widths[i] = min(len(v), 32)
			}
		}
	}

	renderRow := func(values []string) string {
		cells := make([]string, len(values))
		for i, v := range values {
			v = truncateText(v, widths[i])
			cells[i] = fmt.Sprintf("%-*s", widths[i], v)
		}
		return strings.Join(cells, "  ")
	}

	lines := []string{
		m.theme.accent.Render(renderRow(m.sqlColumns)),
	}
	for _, record := range m.sqlRows {
		lines = append(lines, renderRow(record))
	}
	lines = append(lines, m.theme.muted.Render(fmt.Sprintf(
		"%d row(s) · %s", len(m.sqlRows), m.sqlElapsed.Round(time.Millisecond),
	)))
	return strings.Join(lines, "\n")
}
