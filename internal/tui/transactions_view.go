package tui

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tmarsden/sterling/internal/storage"
	"github.com/tmarsden/sterling/internal/syncer"
)

const transactionsQueryLimit = 100

type transactionRow struct {
	id            string
	createdAt     string
	merchant      string
	category      string
	amountMinor   int64
	description   string
	notes         string
	expenseMonth  string
	runningMinor  *int64
	declineReason string
}

func (m model) enterTransactionsView() (tea.Model, tea.Cmd) {
	m.screen = screenTransactions
	m.txErr = ""
	m.txCursor = 0
	m.txOffset = 0
	m.txPane = false
	m.txSession++
	var syncCmd tea.Cmd
	if !m.txSyncing {
		m.txSyncing = true
		syncCmd = m.transactionsSyncCmd(m.txSession, false)
	}
	return m, tea.Batch(m.loadTransactionsCmd(), syncCmd)
}

func (m model) handleTransactionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		if m.txPane {
			m.txPane = false
			return m, nil
		}
		return m.enterDashboardView()
	case "up", "k":
		if m.txCursor > 0 {
			m.txCursor--
			m.ensureTransactionsScrollWindow()
		}
		return m, nil
	case "down", "j":
		if m.txCursor < len(m.txRows)-1 {
			m.txCursor++
			m.ensureTransactionsScrollWindow()
		}
		return m, nil
	case "pgup":
		m.txCursor = max(0, m.txCursor-m.transactionsVisibleRows())
		m.ensureTransactionsScrollWindow()
		return m, nil
	case "pgdown":
		m.txCursor = min(max(0, len(m.txRows)-1), m.txCursor+m.transactionsVisibleRows())
		m.ensureTransactionsScrollWindow()
		return m, nil
	case "enter":
		if len(m.txRows) > 0 {
			m.txPane = !m.txPane
		}
		return m, nil
	case "r":
		if m.txSyncing {
			return m, nil
		}
		m.txSyncing = true
		m.txSession++
		return m, m.transactionsSyncCmd(m.txSession, true)
	}
	return m, nil
}

func (m model) loadTransactionsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.db == nil {
			return transactionsLoadedMsg{err: fmt.Errorf("database is not initialized")}
		}
		rows, fetchedAt, err := queryTransactions(context.Background(), m.db)
		if err != nil {
			return transactionsLoadedMsg{err: err}
		}
		return transactionsLoadedMsg{rows: rows, fetchedAt: fetchedAt}
	}
}

func (m model) transactionsSyncCmd(sessionID int, force bool) tea.Cmd {
	payDay := m.defaultPayDay
	moveTo := m.defaultMoveTo
	db := m.db
	return func() tea.Msg {
		err := syncCollectionsIntoDB(db, payDay, moveTo, force)
		return transactionsSyncDoneMsg{sessionID: sessionID, err: err}
	}
}

func queryTransactions(ctx context.Context, db *sql.DB) ([]transactionRow, *time.Time, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, created_at, merchant_norm, category, amount_minor,
		       description, COALESCE(notes, ''), COALESCE(expense_month, ''),
		       running_balance_minor, COALESCE(decline_reason, '')
		FROM transactions
		WHERE is_active = 1
		ORDER BY created_at DESC, id DESC
		LIMIT `+fmt.Sprint(transactionsQueryLimit),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]transactionRow, 0, transactionsQueryLimit)
	for rows.Next() {
		var r transactionRow
		var running sql.NullInt64
		if err := rows.Scan(
			&r.id, &r.createdAt, &r.merchant, &r.category, &r.amountMinor,
			&r.description, &r.notes, &r.expenseMonth, &running, &r.declineReason,
		); err != nil {
			return nil, nil, fmt.Errorf("scan transaction: %w", err)
		}
		if running.Valid {
			v := running.Int64
			r.runningMinor = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var lastSuccess *time.Time
	state, found, err := storage.NewSyncStateRepo(db).Get(ctx, syncer.CollectionTransactions)
	if err != nil {
		return nil, nil, err
	}
	if found && state.LastSuccess != nil {
		t := state.LastSuccess.UTC()
		lastSuccess = &t
	}
	return out, lastSuccess, nil
}

func (m *model) ensureTransactionsScrollWindow() {
	visible := m.transactionsVisibleRows()
	if m.txCursor < m.txOffset {
		m.txOffset = m.txCursor
	}
	if m.txCursor >= m.txOffset+visible {
		m.txOffset = m.txCursor - visible + 1
	}
	if m.txOffset < 0 {
		m.txOffset = 0
	}
}

func (m model) transactionsVisibleRows() int {
	if m.txPageSize > 0 {
		return m.txPageSize
	}
	return 12
}

func (m model) renderTransactionsScreen(layoutWidth int) string {
	title := m.theme.secondary.Bold(true).Render("TRANSACTIONS")
	sections := []string{lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, title)}

	if m.txErr != "" {
		sections = append(sections,
			lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
				m.theme.errStyle.Render("error: "+m.txErr)))
	}
	if m.txSyncing {
		sections = append(sections,
			lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
				m.theme.muted.Render("syncing...")))
	}

	if len(m.txRows) == 0 {
		sections = append(sections, "",
			lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
				m.theme.muted.Render("no transactions cached yet; press r to sync")))
		return strings.Join(sections, "\n")
	}

	header := fmt.Sprintf("  %-13s %-24s %-12s %12s", "DATE", "MERCHANT", "CATEGORY", "AMOUNT")
	lines := []string{m.theme.muted.Render(header)}

	visible := m.transactionsVisibleRows()
	end := min(len(m.txRows), m.txOffset+visible)
	for i := m.txOffset; i < end; i++ {
		r := m.txRows[i]
		merchant := truncateText(r.merchant, 24)
		amount := formatSignedMinorGBP(r.amountMinor)
		line := fmt.Sprintf(
			"%-13s %-24s %-12s %12s",
			formatTxTimestamp(r.createdAt), merchant, r.category, amount,
		)
		if r.declineReason != "" {
			line += "  " + m.theme.errStyle.Render("declined")
		}
		if i == m.txCursor {
			lines = append(lines, m.theme.accent.Render("▸ "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}

	position := fmt.Sprintf("%d/%d", m.txCursor+1, len(m.txRows))
	if m.txFetched != nil {
		age := time.Since(m.txFetched.UTC()).Round(time.Second)
		if age < 0 {
			age = 0
		}
		position += fmt.Sprintf("  ·  synced %s ago", age)
	}
	lines = append(lines, m.theme.muted.Render(position))

	body := strings.Join(lines, "\n")
	sections = append(sections, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, body))

	if m.txPane && m.txCursor < len(m.txRows) {
		sections = append(sections, "",
			lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, m.renderTransactionPane()))
	}

	hints := m.theme.muted.Render("↑/↓ move · enter details · r refresh · esc back · q quit")
	sections = append(sections, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, hints))
	return strings.Join(sections, "\n")
}

func (m model) renderTransactionPane() string {
	r := m.txRows[m.txCursor]
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.accentHex)).
		Padding(0, 2)

	lines := []string{
		m.theme.accent.Bold(true).Render(r.merchant),
		"amount       " + formatSignedMinorGBP(r.amountMinor),
		"when         " + formatTxTimestamp(r.createdAt),
		"category     " + r.category,
	}
	if r.expenseMonth != "" {
		lines = append(lines, "expense month "+formatMonthLabel(r.expenseMonth))
	}
	if r.runningMinor != nil {
		lines = append(lines, "running      "+formatMinorGBP(*r.runningMinor))
	}
	if r.notes != "" {
		lines = append(lines, "notes        "+r.notes)
	}
	if r.declineReason != "" {
		lines = append(lines, m.theme.errStyle.Render("declined     "+r.declineReason))
	}
	lines = append(lines, m.theme.muted.Render(r.description))
	return box.Render(strings.Join(lines, "\n"))
}
