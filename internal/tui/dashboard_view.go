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

const (
	dashboardTopLimit        = 6
	dashboardComparisonLimit = 7
	dashboardLatestLimit     = 5
	dashboardMonthlyLimit    = 12
)

type spendRow struct {
	name       string
	spendMinor int64
	count      int
}

type comparisonRow struct {
	category      string
	currentMinor  int64
	previousMinor int64
}

type monthSpend struct {
	label      string
	spendMinor int64
}

type latestTxRow struct {
	createdAt   string
	merchant    string
	category    string
	amountMinor int64
}

type dashboardData struct {
	balanceMinor    int64
	monthLabel      string
	prevMonthLabel  string
	monthSpendMinor int64
	topCategories   []spendRow
	topMerchants    []spendRow
	comparison      []comparisonRow
	monthly         []monthSpend
	latest          []latestTxRow
	lastSync        *time.Time
}

func renderLogo() string {
	glyphs := map[rune][3]string{
		'S': {"█▀", "▄█", "▀▀"},
		'T': {"▀█▀", " █ ", " ▀ "},
		'E': {"█▀▀", "█▀▀", "▀▀▀"},
		'R': {"█▀█", "█▀▄", "▀ ▀"},
		'L': {"█  ", "█▄▄", "▀▀▀"},
		'I': {"█", "█", "▀"},
		'N': {"█▄ █", "█ ▀█", "▀  ▀"},
		'G': {"█▀▀", "█▄█", "▀▀▀"},
	}
	word := "STERLING"
	lineParts := [3][]string{{}, {}, {}}
	for _, ch := range word {
		g, ok := glyphs[ch]
		if !ok {
			continue
		}
		lineParts[0] = append(lineParts[0], g[0])
		lineParts[1] = append(lineParts[1], g[1])
		lineParts[2] = append(lineParts[2], g[2])
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true)
	rows := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		rows = append(rows, style.Render(strings.Join(lineParts[i], " ")))
	}
	return strings.Join(rows, "\n")
}

// enterDashboardView reloads dashboard data and restarts the auto-refresh
// tick chain; the session bump drops ticks queued by the previous visit.
func (m model) enterDashboardView() (tea.Model, tea.Cmd) {
	m.screen = screenDashboard
	m.dashSession++
	return m, tea.Batch(m.loadDashboardCmd(), m.dashboardAutoRefreshTickCmd())
}

func (m model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "r":
		if m.dashSyncing {
			return m, nil
		}
		m.dashSyncing = true
		return m, m.dashboardSyncCmd(m.dashSession, true)
	case "t":
		return m.enterTransactionsView()
	case "c":
		return m.enterCalendarView()
	case "s":
		return m.enterSettingsView()
	case "e":
		return m.enterExclusionsView()
	case "x":
		return m.enterSQLView()
	}
	return m, nil
}

func (m model) loadDashboardCmd() tea.Cmd {
	return func() tea.Msg {
		if m.db == nil {
			return dashboardLoadedMsg{err: fmt.Errorf("database is not initialized")}
		}
		data, err := queryDashboard(context.Background(), m.db)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}
		return dashboardLoadedMsg{data: data}
	}
}

func (m model) startDashboardSyncCmd(force bool) tea.Cmd {
	return m.dashboardSyncCmd(m.dashSession, force)
}

func (m model) dashboardSyncCmd(sessionID int, force bool) tea.Cmd {
	payDay := m.defaultPayDay
	moveTo := m.defaultMoveTo
	db := m.db
	return func() tea.Msg {
		err := syncCollectionsIntoDB(db, payDay, moveTo, force)
		return dashboardSyncDoneMsg{sessionID: sessionID, err: err}
	}
}

func (m model) dashboardAutoRefreshTickCmd() tea.Cmd {
	sessionID := m.dashSession
	return tea.Tick(60*time.Second, func(time.Time) tea.Msg {
		return dashboardAutoRefreshTickMsg{sessionID: sessionID}
	})
}

// loadExclusions returns the category names hidden from dashboard spend
// summaries, stored comma separated in app_config.
func loadExclusions(ctx context.Context, db *sql.DB) ([]string, error) {
	repo := storage.NewAppConfigRepo(db)
	raw, ok, err := repo.Get(ctx, storage.ConfigExclusions)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

// exclusionFilter renders a "AND category NOT IN (?, ...)" fragment and its
// arguments, or an empty string when nothing is excluded.
func exclusionFilter(excluded []string) (string, []any) {
	if len(excluded) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(excluded))
	args := make([]any, len(excluded))
	for i, name := range excluded {
		placeholders[i] = "?"
		args[i] = name
	}
	return " AND category NOT IN (" + strings.Join(placeholders, ", ") + ")", args
}

// spendFilter limits rows to real outgoing spend: active, not declined,
// not a top-up, negative amount.
const spendFilter = `is_active = 1
		   AND COALESCE(decline_reason, '') = ''
		   AND is_load = 0
		   AND amount_minor < 0`

func queryDashboard(ctx context.Context, db *sql.DB) (dashboardData, error) {
	var data dashboardData

	excluded, err := loadExclusions(ctx, db)
	if err != nil {
		return data, fmt.Errorf("load exclusions: %w", err)
	}

	err = db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_minor), 0)
		FROM transactions
		WHERE is_active = 1 AND COALESCE(decline_reason, '') = ''`,
	).Scan(&data.balanceMinor)
	if err != nil {
		return data, fmt.Errorf("query balance: %w", err)
	}

	var monthLabel sql.NullString
	err = db.QueryRowContext(ctx, `
		SELECT MAX(expense_month) FROM transactions
		WHERE is_active = 1 AND expense_month IS NOT NULL`,
	).Scan(&monthLabel)
	if err != nil {
		return data, fmt.Errorf("query latest expense month: %w", err)
	}
	if !monthLabel.Valid || monthLabel.String == "" {
		// Nothing bucketed yet; leave the month sections empty.
		data.latest, err = queryLatestTransactions(ctx, db)
		if err != nil {
			return data, err
		}
		data.lastSync = queryLastSync(ctx, db)
		return data, nil
	}
	data.monthLabel = monthLabel.String

	var prevLabel sql.NullString
	err = db.QueryRowContext(ctx, `
		SELECT MAX(expense_month) FROM transactions
		WHERE is_active = 1 AND expense_month IS NOT NULL AND expense_month < ?`,
		data.monthLabel,
	).Scan(&prevLabel)
	if err != nil {
		return data, fmt.Errorf("query previous expense month: %w", err)
	}
	if prevLabel.Valid {
		data.prevMonthLabel = prevLabel.String
	}

	filterSQL, filterArgs := exclusionFilter(excluded)

	args := append([]any{data.monthLabel}, filterArgs...)
	err = db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(-amount_minor), 0)
		FROM transactions
		WHERE expense_month = ? AND `+spendFilter+filterSQL,
		args...,
	).Scan(&data.monthSpendMinor)
	if err != nil {
		return data, fmt.Errorf("query month spend: %w", err)
	}

	data.topCategories, err = querySpendBreakdown(ctx, db, "category", data.monthLabel, filterSQL, filterArgs)
	if err != nil {
		return data, err
	}
	data.topMerchants, err = querySpendBreakdown(ctx, db, "merchant_norm", data.monthLabel, filterSQL, filterArgs)
	if err != nil {
		return data, err
	}
	data.comparison, err = querySpendComparison(ctx, db, data.monthLabel, data.prevMonthLabel, filterSQL, filterArgs)
	if err != nil {
		return data, err
	}
	data.monthly, err = queryMonthlySpend(ctx, db, filterSQL, filterArgs)
	if err != nil {
		return data, err
	}
	data.latest, err = queryLatestTransactions(ctx, db)
	if err != nil {
		return data, err
	}
	data.lastSync = queryLastSync(ctx, db)
	return data, nil
}

func querySpendBreakdown(
	ctx context.Context,
	db *sql.DB,
	groupColumn string,
	monthLabel string,
	filterSQL string,
	filterArgs []any,
) ([]spendRow, error) {
	args := append([]any{monthLabel}, filterArgs...)
	rows, err := db.QueryContext(ctx, `
		SELECT `+groupColumn+`, SUM(-amount_minor) AS spend, COUNT(*)
		FROM transactions
		WHERE expense_month = ? AND `+spendFilter+filterSQL+`
		GROUP BY `+groupColumn+`
		ORDER BY spend DESC
		LIMIT `+fmt.Sprint(dashboardTopLimit),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query spend by %s: %w", groupColumn, err)
	}
	defer rows.Close()

	out := make([]spendRow, 0, dashboardTopLimit)
	for rows.Next() {
		var r spendRow
		if err := rows.Scan(&r.name, &r.spendMinor, &r.count); err != nil {
			return nil, fmt.Errorf("scan spend by %s: %w", groupColumn, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func querySpendComparison(
	ctx context.Context,
	db *sql.DB,
	currentLabel string,
	previousLabel string,
	filterSQL string,
	filterArgs []any,
) ([]comparisonRow, error) {
	if previousLabel == "" {
		return nil, nil
	}

	args := append([]any{currentLabel, previousLabel}, filterArgs...)
	rows, err := db.QueryContext(ctx, `
		SELECT expense_month, category, SUM(-amount_minor) AS spend
		FROM transactions
		WHERE expense_month IN (?, ?) AND `+spendFilter+filterSQL+`
		GROUP BY expense_month, category`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query spend comparison: %w", err)
	}
	defer rows.Close()

	byCategory := map[string]*comparisonRow{}
	order := []string{}
	for rows.Next() {
		var month, category string
		var spend int64
		if err := rows.Scan(&month, &category, &spend); err != nil {
			return nil, fmt.Errorf("scan spend comparison: %w", err)
		}
		entry, ok := byCategory[category]
		if !ok {
			entry = &comparisonRow{category: category}
			byCategory[category] = entry
			order = append(order, category)
		}
		if month == currentLabel {
			entry.currentMinor = spend
		} else {
			entry.previousMinor = spend
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]comparisonRow, 0, len(order))
	for _, category := range order {
		out = append(out, *byCategory[category])
	}
	// Largest current-month spend first; previous-only categories sink.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].currentMinor > out[j-1].currentMinor; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if len(out) > dashboardComparisonLimit {
		out = out[:dashboardComparisonLimit]
	}
	return out, nil
}

func queryMonthlySpend(
	ctx context.Context,
	db *sql.DB,
	filterSQL string,
	filterArgs []any,
) ([]monthSpend, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT expense_month, SUM(-amount_minor) AS spend
		FROM transactions
		WHERE expense_month IS NOT NULL AND `+spendFilter+filterSQL+`
		GROUP BY expense_month
		ORDER BY expense_month DESC
		LIMIT `+fmt.Sprint(dashboardMonthlyLimit),
		filterArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("query monthly spend: %w", err)
	}
	defer rows.Close()

	out := make([]monthSpend, 0, dashboardMonthlyLimit)
	for rows.Next() {
		var r monthSpend
		if err := rows.Scan(&r.label, &r.spendMinor); err != nil {
			return nil, fmt.Errorf("scan monthly spend: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Chronological left to right.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func queryLatestTransactions(ctx context.Context, db *sql.DB) ([]latestTxRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT created_at, merchant_norm, category, amount_minor
		FROM transactions
		WHERE is_active = 1 AND COALESCE(decline_reason, '') = ''
		ORDER BY created_at DESC, id DESC
		LIMIT `+fmt.Sprint(dashboardLatestLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("query latest transactions: %w", err)
	}
	defer rows.Close()

	out := make([]latestTxRow, 0, dashboardLatestLimit)
	for rows.Next() {
		var r latestTxRow
		if err := rows.Scan(&r.createdAt, &r.merchant, &r.category, &r.amountMinor); err != nil {
			return nil, fmt.Errorf("scan latest transaction: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func queryLastSync(ctx context.Context, db *sql.DB) *time.Time {
	repo := storage.NewSyncStateRepo(db)
	state, found, err := repo.Get(ctx, syncer.CollectionTransactions)
	if err != nil || !found || state.LastSuccess == nil {
		return nil
	}
	t := state.LastSuccess.UTC()
	return &t
}

func (m model) renderDashboardScreen(layoutWidth int) string {
	sections := []string{
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, renderLogo()),
		"",
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, m.renderBalanceCard()),
	}

	if m.dashErr != "" {
		sections = append(sections,
			lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
				m.theme.errStyle.Render("error: "+m.dashErr)))
	}

	tables := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderSpendTable("TOP CATEGORIES", m.dashData.topCategories),
		"   ",
		m.renderSpendTable("TOP MERCHANTS", m.dashData.topMerchants),
	)
	sections = append(sections, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, tables))

	if chart := m.renderComparisonChart(); chart != "" {
		sections = append(sections, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, chart))
	}
	if chart := m.renderMonthlyChart(); chart != "" {
		sections = append(sections, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, chart))
	}

	sections = append(sections, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, m.renderLatestTransactions()))

	hints := m.theme.muted.Render("t transactions · c calendar · s settings · e exclusions · x sql · r refresh · q quit")
	sections = append(sections, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, hints))
	return strings.Join(sections, "\n")
}

func (m model) renderBalanceCard() string {
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.accentHex)).
		Padding(0, 3).
		Align(lipgloss.Center)

	balance := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.accentHex)).
		Bold(true).
		Render(formatMinorGBP(m.dashData.balanceMinor))

	subtitle := ""
	if m.dashData.monthLabel != "" {
		subtitle = m.theme.muted.Render(fmt.Sprintf(
			"%s spent in %s",
			formatMinorGBP(m.dashData.monthSpendMinor),
			formatMonthLabel(m.dashData.monthLabel),
		))
	}

	body := "BALANCE\n" + balance
	if subtitle != "" {
		body += "\n" + subtitle
	}
	return card.Render(body)
}

func (m model) renderSpendTable(title string, rows []spendRow) string {
	const nameWidth = 18

	lines := []string{m.theme.secondary.Bold(true).Render(title)}
	if len(rows) == 0 {
		lines = append(lines, m.theme.muted.Render("no spend recorded"))
		return strings.Join(lines, "\n")
	}

	for _, r := range rows {
		name := r.name
		if name == "" {
			name = "(uncategorised)"
		}
		name = truncateText(name, nameWidth)
		line := fmt.Sprintf(
			"%-*s %10s %s",
			nameWidth, name,
			formatMinorGBP(r.spendMinor),
			m.theme.muted.Render(fmt.Sprintf("(%d)", r.count)),
		)
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m model) renderLatestTransactions() string {
	lines := []string{m.theme.secondary.Bold(true).Render("LATEST")}
	if len(m.dashData.latest) == 0 {
		lines = append(lines, m.theme.muted.Render("no transactions cached yet"))
		return strings.Join(lines, "\n")
	}
	for _, r := range m.dashData.latest {
		when := formatTxTimestamp(r.createdAt)
		amount := formatSignedMinorGBP(r.amountMinor)
		if r.amountMinor < 0 {
			amount = m.theme.errStyle.Render(amount)
		} else {
			amount = m.theme.accent.Render(amount)
		}
		merchant := truncateText(r.merchant, 24)
		lines = append(lines, fmt.Sprintf(
			"%s  %-24s %-12s %s",
			m.theme.muted.Render(when), merchant, r.category, amount,
		))
	}
	return strings.Join(lines, "\n")
}
