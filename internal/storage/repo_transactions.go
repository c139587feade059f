package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type TransactionRecord struct {
	ID               string
	AccountID        string
	CreatedAt        string
	SettledAt        *string
	Description      string
	MerchantName     *string
	Category         string
	AmountMinor      int64
	Currency         string
	LocalAmountMinor *int64
	LocalCurrency    *string
	Notes            *string
	DeclineReason    *string
	IsLoad           bool
	CounterpartyName *string
}

type TransactionsRepo struct {
	db *sql.DB
}

func NewTransactionsRepo(db *sql.DB) *TransactionsRepo {
	return &TransactionsRepo{db: db}
}

func (r *TransactionsRepo) HasAny(ctx context.Context) (bool, error) {
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE is_active = 1 LIMIT 1)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active transactions: %w", err)
	}
	return exists == 1, nil
}

// LatestCreatedAtForAccount is the incremental sync cursor for one account.
func (r *TransactionsRepo) LatestCreatedAtForAccount(ctx context.Context, accountID string) (string, bool, error) {
	var latest sql.NullString
	err := r.db.QueryRowContext(
		ctx,
		`SELECT MAX(created_at) FROM transactions WHERE is_active = 1 AND account_id = ?`,
		accountID,
	).Scan(&latest)
	if err != nil {
		return "", false, fmt.Errorf("query latest created_at for account %q: %w", accountID, err)
	}
	if !latest.Valid || strings.TrimSpace(latest.String) == "" {
		return "", false, nil
	}
	return latest.String, true, nil
}

func (r *TransactionsRepo) UpsertBatch(ctx context.Context, records []TransactionRecord, fetchedAt time.Time) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transactions upsert transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	fetchedValue := fetchedAt.UTC().Format(time.RFC3339Nano)

	const upsert = `
INSERT INTO transactions (
  id, account_id, created_at, settled_at, description,
  merchant_name, merchant_norm, category,
  amount_minor, currency, local_amount_minor, local_currency,
  notes, decline_reason, is_load, counterparty_name,
  last_fetched_at, is_active
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
ON CONFLICT(id) DO UPDATE SET
  account_id = excluded.account_id,
  created_at = excluded.created_at,
  settled_at = excluded.settled_at,
  description = excluded.description,
  merchant_name = excluded.merchant_name,
  merchant_norm = excluded.merchant_norm,
  category = excluded.category,
  amount_minor = excluded.amount_minor,
  currency = excluded.currency,
  local_amount_minor = excluded.local_amount_minor,
  local_currency = excluded.local_currency,
  notes = excluded.notes,
  decline_reason = excluded.decline_reason,
  is_load = excluded.is_load,
  counterparty_name = excluded.counterparty_name,
  last_fetched_at = excluded.last_fetched_at,
  is_active = 1
`

	for _, rcd := range records {
		isLoad := 0
		if rcd.IsLoad {
			isLoad = 1
		}
		merchantNorm := normalizeMerchant(
			stringOrEmpty(rcd.MerchantName),
			stringOrEmpty(rcd.CounterpartyName),
			rcd.Description,
		)
		category := strings.TrimSpace(rcd.Category)
		if category == "" {
			category = "general"
		}
		if _, err = tx.ExecContext(
			ctx,
			upsert,
			rcd.ID,
			rcd.AccountID,
			rcd.CreatedAt,
			rcd.SettledAt,
			rcd.Description,
			rcd.MerchantName,
			merchantNorm,
			category,
			rcd.AmountMinor,
			rcd.Currency,
			rcd.LocalAmountMinor,
			rcd.LocalCurrency,
			rcd.Notes,
			rcd.DeclineReason,
			isLoad,
			rcd.CounterpartyName,
			fetchedValue,
		); err != nil {
			return fmt.Errorf("upsert transaction %q: %w", rcd.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transactions upsert transaction: %w", err)
	}
	return nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
