package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MoveTo controls which way a weekend pay date shifts.
type MoveTo string

const (
	MovePrevious MoveTo = "previous" // Saturday/Sunday pay to the preceding Friday
	MoveNext     MoveTo = "next"     // Saturday/Sunday pay to the following Monday
)

func ParseMoveTo(raw string) (MoveTo, bool) {
	switch MoveTo(strings.ToLower(strings.TrimSpace(raw))) {
	case MovePrevious:
		return MovePrevious, true
	case MoveNext:
		return MoveNext, true
	}
	return "", false
}

// payDateForMonth returns the pay date in the given month, clamping the
// requested day to the month's last day (31 in February becomes 28/29).
func payDateForMonth(year int, month time.Month, payDay int) time.Time {
	lastDay := daysInMonth(year, month)
	if payDay > lastDay {
		payDay = lastDay
	}
	if payDay < 1 {
		payDay = 1
	}
	return time.Date(year, month, payDay, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AdjustedPayDate is the month's pay date after clamping to the month length
// and moving off weekends in the configured direction.
func AdjustedPayDate(year int, month time.Month, payDay int, moveTo MoveTo) time.Time {
	payDate := payDateForMonth(year, month, payDay)
	diff := int(payDate.Weekday()) - int(time.Friday)
	if diff <= 0 {
		// Monday..Friday: Weekday() is 1..5, nothing to move.
		if payDate.Weekday() != time.Sunday {
			return payDate
		}
		diff = 2
	}
	if moveTo == MoveNext {
		return payDate.AddDate(0, 0, 3-diff)
	}
	return payDate.AddDate(0, 0, -diff)
}

// NextPayDay returns the upcoming pay date as seen from today: this month's
// adjusted pay date when it is still ahead, otherwise next month's.
func NextPayDay(today time.Time, payDay int, moveTo MoveTo) time.Time {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	payDate := AdjustedPayDate(today.Year(), today.Month(), payDay, moveTo)
	if today.Before(payDate) {
		return payDate
	}
	// Advance from the first of the month so a late-January date cannot
	// skip February.
	next := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return AdjustedPayDate(next.Year(), next.Month(), payDay, moveTo)
}

// cycleLabel names a pay cycle by the calendar month containing the
// window's midpoint, so a 25th-of-month cycle opened in late August is the
// September cycle while a 1st-of-month cycle opened on 1 September stays
// September.
func cycleLabel(payDate, nextPayDate time.Time) string {
	mid := payDate.Add(nextPayDate.Sub(payDate) / 2)
	return mid.Format("2006-01")
}

// PayCycle is one row of the derived pay_cycles table. The window is
// half-open: [PayDate, NextPayDate).
type PayCycle struct {
	CycleMonth  string
	PayDate     string
	NextPayDate string
}

// buildPayCycles derives the contiguous cycle windows covering one month
// before first through one month after last.
func buildPayCycles(first, last time.Time, payDay int, moveTo MoveTo) []PayCycle {
	if last.Before(first) {
		first, last = last, first
	}
	start := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	end := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	out := make([]PayCycle, 0, 14)
	for month := start; !month.After(end); month = month.AddDate(0, 1, 0) {
		payDate := AdjustedPayDate(month.Year(), month.Month(), payDay, moveTo)
		next := month.AddDate(0, 1, 0)
		nextPayDate := AdjustedPayDate(next.Year(), next.Month(), payDay, moveTo)
		out = append(out, PayCycle{
			CycleMonth:  cycleLabel(payDate, nextPayDate),
			PayDate:     payDate.Format("2006-01-02"),
			NextPayDate: nextPayDate.Format("2006-01-02"),
		})
	}
	return out
}

// RebuildPayCycles recreates the pay_cycles table from the current
// transaction span, assigns every active transaction its expense month, and
// recomputes running balances. Safe to call repeatedly; runs in a single
// database transaction.
func RebuildPayCycles(ctx context.Context, db *sql.DB, payDay int, moveTo MoveTo) error {
	if payDay < 1 || payDay > 31 {
		return fmt.Errorf("pay day %d out of range 1-31", payDay)
	}
	if _, ok := ParseMoveTo(string(moveTo)); !ok {
		return fmt.Errorf("unsupported weekend move direction %q", moveTo)
	}

	var minDate, maxDate sql.NullString
	err := db.QueryRowContext(
		ctx,
		`SELECT MIN(date(created_at)), MAX(date(created_at)) FROM transactions WHERE is_active = 1`,
	).Scan(&minDate, &maxDate)
	if err != nil {
		return fmt.Errorf("query transaction date span: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pay cycle rebuild transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM pay_cycles"); err != nil {
		return fmt.Errorf("clear pay_cycles: %w", err)
	}

	if !minDate.Valid || !maxDate.Valid {
		// No transactions yet; leave the table empty.
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit empty pay cycle rebuild: %w", err)
		}
		return nil
	}

	first, err := time.Parse("2006-01-02", minDate.String)
	if err != nil {
		return fmt.Errorf("parse earliest transaction date %q: %w", minDate.String, err)
	}
	last, err := time.Parse("2006-01-02", maxDate.String)
	if err != nil {
		return fmt.Errorf("parse latest transaction date %q: %w", maxDate.String, err)
	}

	for _, cycle := range buildPayCycles(first, last, payDay, moveTo) {
		if _, err = tx.ExecContext(
			ctx,
			`INSERT INTO pay_cycles (cycle_month, pay_date, next_pay_date) VALUES (?, ?, ?)
			 ON CONFLICT(cycle_month) DO UPDATE SET
			   pay_date = excluded.pay_date,
			   next_pay_date = excluded.next_pay_date`,
			cycle.CycleMonth,
			cycle.PayDate,
			cycle.NextPayDate,
		); err != nil {
			return fmt.Errorf("insert pay cycle %q: %w", cycle.CycleMonth, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `
UPDATE transactions SET
  expense_month = (
    SELECT c.cycle_month FROM pay_cycles c
    WHERE date(transactions.created_at) >= date(c.pay_date)
      AND date(transactions.created_at) < date(c.next_pay_date)
  ),
  expense_month_date = (
    SELECT c.pay_date FROM pay_cycles c
    WHERE date(transactions.created_at) >= date(c.pay_date)
      AND date(transactions.created_at) < date(c.next_pay_date)
  )
WHERE is_active = 1`); err != nil {
		return fmt.Errorf("assign expense months: %w", err)
	}

	// Declined transactions never move money; they are assigned a cycle but
	// carry no running balance.
	if _, err = tx.ExecContext(ctx, `
WITH ordered AS (
  SELECT id, SUM(amount_minor) OVER (ORDER BY created_at ASC, id ASC) AS running
  FROM transactions
  WHERE is_active = 1 AND COALESCE(decline_reason, '') = ''
)
UPDATE transactions SET running_balance_minor = (
  SELECT running FROM ordered WHERE ordered.id = transactions.id
)
WHERE is_active = 1`); err != nil {
		return fmt.Errorf("compute running balances: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit pay cycle rebuild: %w", err)
	}
	return nil
}

// ResolvePayCycleConfig reads the configured pay day and weekend direction,
// falling back to the supplied defaults when unset or invalid.
func ResolvePayCycleConfig(
	ctx context.Context,
	repo *AppConfigRepo,
	defaultDay int,
	defaultMove MoveTo,
) (int, MoveTo, error) {
	payDay := defaultDay
	moveTo := defaultMove

	if raw, ok, err := repo.Get(ctx, ConfigPayCycleDay); err != nil {
		return 0, "", err
	} else if ok {
		if n, convErr := strconv.Atoi(strings.TrimSpace(raw)); convErr == nil && n >= 1 && n <= 31 {
			payDay = n
		}
	}

	if raw, ok, err := repo.Get(ctx, ConfigPayCycleMoveTo); err != nil {
		return 0, "", err
	} else if ok {
		if parsed, valid := ParseMoveTo(raw); valid {
			moveTo = parsed
		}
	}

	if raw, ok, err := repo.Get(ctx, ConfigPayCycleType); err != nil {
		return 0, "", err
	} else if ok {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "first":
			payDay = 1
		case "last":
			payDay = 31
		}
	}

	return payDay, moveTo, nil
}
