package tui

import (
	"context"
	"database/sql"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tmarsden/sterling/internal/auth"
	"github.com/tmarsden/sterling/internal/config"
	"github.com/tmarsden/sterling/internal/monzoapi"
	"github.com/tmarsden/sterling/internal/storage"
)

type connectionState int

const (
	stateChecking connectionState = iota
	stateConnected
	stateDisconnected
)

type screenMode int

const (
	screenDashboard screenMode = iota
	screenTransactions
	screenCalendar
	screenSettings
	screenExclusions
	screenSQL
)

type tokenDialogMode int

const (
	tokenDialogNone tokenDialogMode = iota
	tokenDialogConnect
	tokenDialogDisconnect
)

type checkConnectionMsg struct {
	connected bool
	err       error
}

type saveTokenMsg struct {
	err error
}

type deleteTokenMsg struct {
	err error
}

type dashboardLoadedMsg struct {
	data dashboardData
	err  error
}

type dashboardSyncDoneMsg struct {
	sessionID int
	err       error
}

type dashboardAutoRefreshTickMsg struct {
	sessionID int
}

type transactionsLoadedMsg struct {
	rows      []transactionRow
	fetchedAt *time.Time
	err       error
}

type transactionsSyncDoneMsg struct {
	sessionID int
	err       error
}

type calendarLoadedMsg struct {
	payDay int
	moveTo storage.MoveTo
	err    error
}

type settingsLoadedMsg struct {
	typeIdx int
	day     int
	moveIdx int
	err     error
}

type settingsSavedMsg struct {
	err error
}

type exclusionsLoadedMsg struct {
	rows []exclusionRow
	err  error
}

type exclusionsSavedMsg struct {
	err error
}

type sqlResultMsg struct {
	columns []string
	rows    [][]string
	elapsed time.Duration
	err     error
}

type model struct {
	db    *sql.DB
	theme themeStyles

	defaultPayDay int
	defaultMoveTo storage.MoveTo
	txPageSize    int

	width  int
	height int
	screen screenMode

	status       connectionState
	statusDetail string

	dashData    dashboardData
	dashErr     string
	dashSyncing bool
	dashSession int

	txRows    []transactionRow
	txErr     string
	txCursor  int
	txOffset  int
	txPane    bool
	txSyncing bool
	txSession int
	txFetched *time.Time

	calPayDay int
	calMoveTo storage.MoveTo
	calErr    string

	setTypeIdx   int
	setDayDigits string
	setMoveIdx   int
	setFocus     int
	setErr       string
	setInfo      string
	tokenDialog  tokenDialogMode
	tokenInput   textinput.Model

	exRows   []exclusionRow
	exCursor int
	exDirty  bool
	exErr    string

	sqlInput   textinput.Model
	sqlColumns []string
	sqlRows    [][]string
	sqlElapsed time.Duration
	sqlErr     string
	sqlRan     bool

	quitting bool
}

// themeStyles pre-builds the lipgloss styles shared across screens from the
// configured palette.
type themeStyles struct {
	accent    lipgloss.Style
	secondary lipgloss.Style
	muted     lipgloss.Style
	errStyle  lipgloss.Style
	accentHex string
	mutedHex  string
	errorHex  string
}

func newThemeStyles(cfg config.Settings) themeStyles {
	return themeStyles{
		accent:    lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Accent)),
		secondary: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Secondary)),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Muted)),
		errStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Error)),
		accentHex: cfg.Theme.Accent,
		mutedHex:  cfg.Theme.Muted,
		errorHex:  cfg.Theme.Error,
	}
}

func New(db *sql.DB, cfg config.Settings) tea.Model {
	tokenInput := textinput.New()
	tokenInput.Prompt = "token: "
	tokenInput.Placeholder = "access token"
	tokenInput.EchoMode = textinput.EchoPassword
	tokenInput.EchoCharacter = '•'
	tokenInput.Width = 48

	sqlInput := textinput.New()
	sqlInput.Prompt = "sql> "
	sqlInput.Placeholder = "SELECT category, COUNT(*) FROM transactions GROUP BY 1"
	sqlInput.Width = 72

	moveTo, ok := storage.ParseMoveTo(cfg.PayCycle.MoveTo)
	if !ok {
		moveTo = storage.MovePrevious
	}

	return model{
		db:            db,
		theme:         newThemeStyles(cfg),
		defaultPayDay: cfg.PayCycle.Day,
		defaultMoveTo: moveTo,
		txPageSize:    cfg.Transactions.PageSize,
		screen:        screenDashboard,
		status:        stateChecking,
		statusDetail:  "checking connection",
		dashSyncing:   true,
		tokenInput:    tokenInput,
		sqlInput:      sqlInput,
		calPayDay:     cfg.PayCycle.Day,
		calMoveTo:     moveTo,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		checkConnectionCmd,
		m.loadDashboardCmd(),
		m.startDashboardSyncCmd(false),
		m.dashboardAutoRefreshTickCmd(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sqlInput.Width = max(40, msg.Width-20)
		return m, nil

	case checkConnectionMsg:
		if msg.connected {
			m.status = stateConnected
			m.statusDetail = "connected"
		} else {
			m.status = stateDisconnected
			m.statusDetail = "not connected"
			if msg.err != nil {
				m.statusDetail = "not connected: " + msg.err.Error()
			}
		}
		return m, nil

	case saveTokenMsg:
		m.tokenDialog = tokenDialogNone
		m.tokenInput.SetValue("")
		m.tokenInput.Blur()
		if msg.err != nil {
			m.setErr = "saving token failed: " + msg.err.Error()
			return m, nil
		}
		m.setErr = ""
		m.setInfo = "token saved to keychain"
		m.status = stateChecking
		return m, checkConnectionCmd

	case deleteTokenMsg:
		m.tokenDialog = tokenDialogNone
		if msg.err != nil {
			m.setErr = "removing token failed: " + msg.err.Error()
			return m, nil
		}
		m.setErr = ""
		m.setInfo = "token removed from keychain"
		m.status = stateDisconnected
		m.statusDetail = "not connected"
		return m, nil

	case dashboardLoadedMsg:
		if msg.err != nil {
			// Stale data keeps rendering; only surface the error.
			m.dashErr = msg.err.Error()
			return m, nil
		}
		m.dashErr = ""
		m.dashData = msg.data
		return m, nil

	case dashboardSyncDoneMsg:
		// At most one dashboard sync is in flight, so the flag clears even
		// when the view was re-entered and the session moved on.
		m.dashSyncing = false
		if msg.sessionID != m.dashSession {
			return m, nil
		}
		if msg.err != nil {
			m.dashErr = msg.err.Error()
		}
		return m, m.loadDashboardCmd()

	case dashboardAutoRefreshTickMsg:
		if msg.sessionID != m.dashSession || m.screen != screenDashboard {
			return m, nil
		}
		var syncCmd tea.Cmd
		if !m.dashSyncing {
			m.dashSyncing = true
			syncCmd = m.dashboardSyncCmd(m.dashSession, false)
		}
		return m, tea.Batch(syncCmd, m.dashboardAutoRefreshTickCmd())

	case transactionsLoadedMsg:
		if msg.err != nil {
			m.txErr = msg.err.Error()
			return m, nil
		}
		m.txErr = ""
		m.txRows = msg.rows
		m.txFetched = msg.fetchedAt
		if m.txCursor >= len(m.txRows) {
			m.txCursor = max(0, len(m.txRows)-1)
		}
		m.ensureTransactionsScrollWindow()
		return m, nil

	case transactionsSyncDoneMsg:
		m.txSyncing = false
		if msg.sessionID != m.txSession {
			return m, nil
		}
		if msg.err != nil {
			m.txErr = msg.err.Error()
		}
		return m, m.loadTransactionsCmd()

	case calendarLoadedMsg:
		if msg.err != nil {
			m.calErr = msg.err.Error()
			return m, nil
		}
		m.calErr = ""
		m.calPayDay = msg.payDay
		m.calMoveTo = msg.moveTo
		return m, nil

	case settingsLoadedMsg:
		if msg.err != nil {
			m.setErr = msg.err.Error()
			return m, nil
		}
		m.setErr = ""
		m.setTypeIdx = msg.typeIdx
		m.setDayDigits = itoaDigits(msg.day)
		m.setMoveIdx = msg.moveIdx
		return m, nil

	case settingsSavedMsg:
		if msg.err != nil {
			m.setErr = msg.err.Error()
			return m, nil
		}
		m.setErr = ""
		m.setInfo = "saved; pay cycles rebuilt"
		return m, nil

	case exclusionsLoadedMsg:
		if msg.err != nil {
			m.exErr = msg.err.Error()
			return m, nil
		}
		m.exErr = ""
		m.exRows = msg.rows
		m.exDirty = false
		if m.exCursor >= len(m.exRows) {
			m.exCursor = max(0, len(m.exRows)-1)
		}
		return m, nil

	case exclusionsSavedMsg:
		if msg.err != nil {
			m.exErr = msg.err.Error()
			return m, nil
		}
		m.exErr = ""
		m.exDirty = false
		return m.enterDashboardView()

	case sqlResultMsg:
		m.sqlRan = true
		if msg.err != nil {
			m.sqlErr = msg.err.Error()
			m.sqlColumns = nil
			m.sqlRows = nil
			return m, nil
		}
		m.sqlErr = ""
		m.sqlColumns = msg.columns
		m.sqlRows = msg.rows
		m.sqlElapsed = msg.elapsed
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.tokenDialog != tokenDialogNone {
		return m.handleTokenDialogKey(msg)
	}

	switch m.screen {
	case screenDashboard:
		return m.handleDashboardKey(msg)
	case screenTransactions:
		return m.handleTransactionsKey(msg)
	case screenCalendar:
		return m.handleCalendarKey(msg)
	case screenSettings:
		return m.handleSettingsKey(msg)
	case screenExclusions:
		return m.handleExclusionsKey(msg)
	case screenSQL:
		return m.handleSQLKey(msg)
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	layoutWidth := canvasSafeWidth(m.width)

	var body string
	switch m.screen {
	case screenDashboard:
		body = m.renderDashboardScreen(layoutWidth)
	case screenTransactions:
		body = m.renderTransactionsScreen(layoutWidth)
	case screenCalendar:
		body = m.renderCalendarScreen(layoutWidth)
	case screenSettings:
		body = m.renderSettingsScreen(layoutWidth)
	case screenExclusions:
		body = m.renderExclusionsScreen(layoutWidth)
	case screenSQL:
		body = m.renderSQLScreen(layoutWidth)
	}

	if m.tokenDialog != tokenDialogNone {
		body = body + "\n\n" + m.renderTokenDialog(layoutWidth)
	}
	return body + "\n" + m.renderStatusFooter(layoutWidth)
}

func (m model) renderStatusFooter(layoutWidth int) string {
	var left string
	switch m.status {
	case stateConnected:
		left = m.theme.accent.Render("● " + m.statusDetail)
	case stateDisconnected:
		left = m.theme.errStyle.Render("○ " + m.statusDetail)
	default:
		left = m.theme.muted.Render("◌ " + m.statusDetail)
	}

	parts := []string{left}
	if m.dashData.lastSync != nil {
		age := time.Since(m.dashData.lastSync.UTC()).Round(time.Second)
		if age < 0 {
			age = 0
		}
		parts = append(parts, m.theme.muted.Render("synced "+age.String()+" ago"))
	}
	if m.dashSyncing || m.txSyncing {
		parts = append(parts, m.theme.muted.Render("syncing..."))
	}
	line := joinWithSeparator(parts, m.theme.muted.Render("  ·  "))
	return lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, line)
}

func joinWithSeparator(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

func checkConnectionCmd() tea.Msg {
	token, err := auth.LoadToken()
	if err != nil {
		return checkConnectionMsg{connected: false}
	}

	client := monzoapi.New(token)
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	if err := client.WhoAmI(ctx); err != nil {
		return checkConnectionMsg{connected: false, err: err}
	}
	return checkConnectionMsg{connected: true}
}

func saveTokenCmd(token string) tea.Cmd {
	return func() tea.Msg {
		return saveTokenMsg{err: auth.SaveToken(token)}
	}
}

func deleteTokenCmd() tea.Msg {
	return deleteTokenMsg{err: auth.DeleteToken()}
}

func (m model) handleTokenDialogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.tokenDialog = tokenDialogNone
		m.tokenInput.SetValue("")
		m.tokenInput.Blur()
		return m, nil
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		if m.tokenDialog == tokenDialogDisconnect {
			return m, deleteTokenCmd
		}
		token := m.tokenInput.Value()
		if token == "" {
			return m, nil
		}
		return m, saveTokenCmd(token)
	}
	if m.tokenDialog == tokenDialogDisconnect {
		return m, nil
	}
	var cmd tea.Cmd
	m.tokenInput, cmd = m.tokenInput.Update(msg)
	return m, cmd
}

func (m model) renderTokenDialog(layoutWidth int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.accentHex)).
		Padding(0, 2)

	var body string
	if m.tokenDialog == tokenDialogDisconnect {
		body = "remove the stored token?\n\n" +
			m.theme.muted.Render("enter confirms · esc cancels")
	} else {
		body = "paste your Monzo access token\n\n" +
			m.tokenInput.View() + "\n\n" +
			m.theme.muted.Render("enter saves to the keychain · esc cancels")
	}
	return lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, boxStyle.Render(body))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func canvasSafeWidth(width int) int {
	if width <= 0 {
		return 100
	}
	return width
}

func itoaDigits(n int) string {
	if n <= 0 {
		return ""
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}
