package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type AccountRecord struct {
	ID                string
	Description       string
	AccountType       string
	Currency          string
	CreatedAt         string
	Closed            bool
	BalanceMinor      int64
	TotalBalanceMinor int64
	SpendTodayMinor   int64
}

type AccountsRepo struct {
	db *sql.DB
}

func NewAccountsRepo(db *sql.DB) *AccountsRepo {
	return &AccountsRepo{db: db}
}

func (r *AccountsRepo) HasAny(ctx context.Context) (bool, error) {
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE is_active = 1 LIMIT 1)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active accounts: %w", err)
	}
	return exists == 1, nil
}

// UpsertBatch writes the fetched accounts and marks every account missing
// from the batch inactive.
func (r *AccountsRepo) UpsertBatch(ctx context.Context, records []AccountRecord, fetchedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accounts upsert transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	fetchedValue := fetchedAt.UTC().Format(time.RFC3339Nano)

	const upsert = `
INSERT INTO accounts (
  id, description, account_type, currency, created_at, closed,
  balance_minor, total_balance_minor, spend_today_minor,
  last_fetched_at, is_active
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
ON CONFLICT(id) DO UPDATE SET
  description = excluded.description,
  account_type = excluded.account_type,
  currency = excluded.currency,
  created_at = excluded.created_at,
  closed = excluded.closed,
  balance_minor = excluded.balance_minor,
  total_balance_minor = excluded.total_balance_minor,
  spend_today_minor = excluded.spend_today_minor,
  last_fetched_at = excluded.last_fetched_at,
  is_active = 1
`
	seen := make([]string, 0, len(records))
	for _, rcd := range records {
		closed := 0
		if rcd.Closed {
			closed = 1
		}
		if _, err = tx.ExecContext(
			ctx,
			upsert,
			rcd.ID,
			rcd.Description,
			rcd.AccountType,
			rcd.Currency,
			rcd.CreatedAt,
			closed,
			rcd.BalanceMinor,
			rcd.TotalBalanceMinor,
			rcd.SpendTodayMinor,
			fetchedValue,
		); err != nil {
			return fmt.Errorf("upsert account %q: %w", rcd.ID, err)
		}
		seen = append(seen, rcd.ID)
	}

	if err = deactivateMissingAccounts(ctx, tx, seen); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit accounts upsert transaction: %w", err)
	}
	return nil
}

func deactivateMissingAccounts(ctx context.Context, tx *sql.Tx, seenIDs []string) error {
	if len(seenIDs) == 0 {
		if _, err := tx.ExecContext(ctx, "UPDATE accounts SET is_active = 0"); err != nil {
			return fmt.Errorf("deactivate all accounts: %w", err)
		}
		return nil
	}

	placeholders := make([]string, len(seenIDs))
	args := make([]any, len(seenIDs))
	for i, id := range seenIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	q := fmt.Sprintf(
		"UPDATE accounts SET is_active = 0 WHERE id NOT IN (%s)",
		strings.Join(placeholders, ","),
	)
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("deactivate missing accounts: %w", err)
	}
	return nil
}

// List returns active accounts ordered by creation date.
func (r *AccountsRepo) List(ctx context.Context) ([]AccountRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, description, account_type, currency, created_at, closed,
		        balance_minor, total_balance_minor, spend_today_minor
		 FROM accounts
		 WHERE is_active = 1
		 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	out := make([]AccountRecord, 0, 4)
	for rows.Next() {
		var rcd AccountRecord
		var closed int
		if err := rows.Scan(
			&rcd.ID,
			&rcd.Description,
			&rcd.AccountType,
			&rcd.Currency,
			&rcd.CreatedAt,
			&closed,
			&rcd.BalanceMinor,
			&rcd.TotalBalanceMinor,
			&rcd.SpendTodayMinor,
		); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		rcd.Closed = closed == 1
		out = append(out, rcd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return out, nil
}
