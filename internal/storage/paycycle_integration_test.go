//go:build integration
// +build integration

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func openMigratedDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("sql.Open() unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := runMigrations(context.Background(), db); err != nil {
		t.Fatalf("runMigrations() unexpected error: %v", err)
	}
	return db
}

func seedTransactions(t *testing.T, db *sql.DB, records []TransactionRecord) {
	t.Helper()

	repo := NewTransactionsRepo(db)
	if err := repo.UpsertBatch(context.Background(), records, time.Now().UTC()); err != nil {
		t.Fatalf("UpsertBatch() unexpected error: %v", err)
	}
}

func seedRecord(id, createdAt string, amount int64) TransactionRecord {
	return TransactionRecord{
		ID:          id,
		AccountID:   "acc_1",
		CreatedAt:   createdAt,
		Description: "seed " + id,
		Category:    "general",
		AmountMinor: amount,
		Currency:    "GBP",
	}
}

// Pay day 25 moving weekends back: 2025-08-25 is a Monday, 2025-09-25 a
// Thursday and 2025-10-25 a Saturday (paid Friday 2025-10-24).
func TestRebuildPayCyclesAssignsExpenseMonths(t *testing.T) {
	db := openMigratedDB(t)
	seedTransactions(t, db, []TransactionRecord{
		seedRecord("tx_1", "2025-08-20T10:00:00Z", -1200),
		seedRecord("tx_2", "2025-08-25T09:00:00Z", -800),
		seedRecord("tx_3", "2025-09-24T18:30:00Z", -450),
		seedRecord("tx_4", "2025-09-25T08:00:00Z", -300),
	})

	if err := RebuildPayCycles(context.Background(), db, 25, MovePrevious); err != nil {
		t.Fatalf("RebuildPayCycles() unexpected error: %v", err)
	}

	want := map[string]string{
		"tx_1": "2025-08",
		"tx_2": "2025-09",
		"tx_3": "2025-09",
		"tx_4": "2025-10",
	}
	for id, month := range want {
		var got sql.NullString
		err := db.QueryRow(`SELECT expense_month FROM transactions WHERE id = ?`, id).Scan(&got)
		if err != nil {
			t.Fatalf("query expense_month for %s: %v", id, err)
		}
		if !got.Valid || got.String != month {
			t.Errorf("%s expense_month = %v, want %q", id, got, month)
		}
	}

	var unassigned int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE is_active = 1 AND expense_month IS NULL`).Scan(&unassigned)
	if err != nil {
		t.Fatalf("count unassigned: %v", err)
	}
	if unassigned != 0 {
		t.Errorf("%d active transactions left without an expense month", unassigned)
	}
}

func TestRebuildPayCyclesComputesRunningBalances(t *testing.T) {
	db := openMigratedDB(t)

	declined := seedRecord("tx_d", "2025-09-01T12:00:00Z", -9999)
	reason := "INSUFFICIENT_FUNDS"
	declined.DeclineReason = &reason

	seedTransactions(t, db, []TransactionRecord{
		seedRecord("tx_1", "2025-08-20T10:00:00Z", 100000),
		seedRecord("tx_2", "2025-08-25T09:00:00Z", -2500),
		declined,
		seedRecord("tx_3", "2025-09-24T18:30:00Z", -1000),
		seedRecord("tx_4", "2025-09-25T08:00:00Z", -499),
	})

	if err := RebuildPayCycles(context.Background(), db, 25, MovePrevious); err != nil {
		t.Fatalf("RebuildPayCycles() unexpected error: %v", err)
	}

	want := map[string]int64{
		"tx_1": 100000,
		"tx_2": 97500,
		"tx_3": 96500,
		"tx_4": 96001,
	}
	for id, running := range want {
		var got sql.NullInt64
		err := db.QueryRow(`SELECT running_balance_minor FROM transactions WHERE id = ?`, id).Scan(&got)
		if err != nil {
			t.Fatalf("query running balance for %s: %v", id, err)
		}
		if !got.Valid || got.Int64 != running {
			t.Errorf("%s running_balance_minor = %v, want %d", id, got, running)
		}
	}

	var declinedRunning sql.NullInt64
	err := db.QueryRow(`SELECT running_balance_minor FROM transactions WHERE id = 'tx_d'`).Scan(&declinedRunning)
	if err != nil {
		t.Fatalf("query declined running balance: %v", err)
	}
	if declinedRunning.Valid {
		t.Errorf("declined transaction has running balance %d, want NULL", declinedRunning.Int64)
	}

	// The newest running balance is the account balance.
	var total int64
	err = db.QueryRow(`
		SELECT COALESCE(SUM(amount_minor), 0) FROM transactions
		WHERE is_active = 1 AND COALESCE(decline_reason, '') = ''`,
	).Scan(&total)
	if err != nil {
		t.Fatalf("query balance sum: %v", err)
	}
	if total != want["tx_4"] {
		t.Errorf("balance sum = %d, want the last running balance %d", total, want["tx_4"])
	}
}

func TestRebuildPayCyclesIsIdempotent(t *testing.T) {
	db := openMigratedDB(t)
	seedTransactions(t, db, []TransactionRecord{
		seedRecord("tx_1", "2025-08-20T10:00:00Z", 100000),
		seedRecord("tx_2", "2025-09-10T09:00:00Z", -2500),
	})

	if err := RebuildPayCycles(context.Background(), db, 25, MovePrevious); err != nil {
		t.Fatalf("first RebuildPayCycles(): %v", err)
	}
	first := snapshotDerived(t, db)

	if err := RebuildPayCycles(context.Background(), db, 25, MovePrevious); err != nil {
		t.Fatalf("second RebuildPayCycles(): %v", err)
	}
	second := snapshotDerived(t, db)

	if first != second {
		t.Errorf("derived state changed between rebuilds:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
	if first == "" {
		t.Fatal("snapshot is empty; expected pay cycles and assignments")
	}
}

// snapshotDerived serializes everything RebuildPayCycles writes.
func snapshotDerived(t *testing.T, db *sql.DB) string {
	t.Helper()

	var b strings.Builder

	rows, err := db.Query(`SELECT cycle_month, pay_date, next_pay_date FROM pay_cycles ORDER BY pay_date`)
	if err != nil {
		t.Fatalf("query pay_cycles: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var month, payDate, nextPayDate string
		if err := rows.Scan(&month, &payDate, &nextPayDate); err != nil {
			t.Fatalf("scan pay_cycles: %v", err)
		}
		fmt.Fprintf(&b, "cycle %s [%s %s)\n", month, payDate, nextPayDate)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate pay_cycles: %v", err)
	}

	txRows, err := db.Query(`
		SELECT id, COALESCE(expense_month, ''), COALESCE(expense_month_date, ''), COALESCE(running_balance_minor, 0)
		FROM transactions ORDER BY id`)
	if err != nil {
		t.Fatalf("query transactions: %v", err)
	}
	defer txRows.Close()
	for txRows.Next() {
		var id, month, monthDate string
		var running int64
		if err := txRows.Scan(&id, &month, &monthDate, &running); err != nil {
			t.Fatalf("scan transactions: %v", err)
		}
		fmt.Fprintf(&b, "tx %s %s %s %d\n", id, month, monthDate, running)
	}
	if err := txRows.Err(); err != nil {
		t.Fatalf("iterate transactions: %v", err)
	}

	return b.String()
}
