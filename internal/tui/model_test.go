package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tmarsden/sterling/internal/config"
)

var errTest = errors.New("sync failed")

func newTestModel(t *testing.T) model {
	t.Helper()
	m, ok := New(nil, config.Settings{}).(model)
	if !ok {
		t.Fatal("New() did not return a model")
	}
	return m
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestTransactionsSyncFlagClearsAfterViewReentry(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.enterTransactionsView()
	m = next.(model)
	if !m.txSyncing {
		t.Fatal("entering the transactions view should start a sync")
	}
	firstSession := m.txSession

	// Back to the dashboard and in again while that sync is still running.
	next, _ = m.enterDashboardView()
	m = next.(model)
	next, _ = m.enterTransactionsView()
	m = next.(model)
	if m.txSession == firstSession {
		t.Fatal("re-entering the view should bump the session id")
	}

	// The only in-flight sync finishes, tagged with the old session.
	next, _ = m.Update(transactionsSyncDoneMsg{sessionID: firstSession})
	m = next.(model)
	if m.txSyncing {
		t.Fatal("sync flag still set after the in-flight sync finished")
	}

	next, cmd := m.handleTransactionsKey(runeKey('r'))
	m = next.(model)
	if !m.txSyncing {
		t.Fatal("manual refresh did not start a sync")
	}
	if cmd == nil {
		t.Fatal("manual refresh returned no command")
	}
}

func TestDashboardSyncDoneFromOldSessionClearsFlag(t *testing.T) {
	m := newTestModel(t)
	if !m.dashSyncing {
		t.Fatal("the startup sync should be marked in flight")
	}
	startupSession := m.dashSession

	// Returning from another view bumps the dashboard session.
	next, _ := m.enterDashboardView()
	m = next.(model)

	next, _ = m.Update(dashboardSyncDoneMsg{sessionID: startupSession})
	m = next.(model)
	if m.dashSyncing {
		t.Fatal("sync flag still set after the startup sync finished")
	}

	next, cmd := m.handleDashboardKey(runeKey('r'))
	m = next.(model)
	if !m.dashSyncing {
		t.Fatal("manual refresh did not start a sync")
	}
	if cmd == nil {
		t.Fatal("manual refresh returned no command")
	}
}

func TestStaleSyncErrorIsNotSurfaced(t *testing.T) {
	m := newTestModel(t)
	m.dashSession = 3

	next, _ := m.Update(dashboardSyncDoneMsg{sessionID: 2, err: errTest})
	m = next.(model)
	if m.dashErr != "" {
		t.Fatalf("stale sync error surfaced: %q", m.dashErr)
	}
	if m.dashSyncing {
		t.Fatal("sync flag still set after a stale sync finished")
	}
}
