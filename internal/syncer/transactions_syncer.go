package syncer

import (
	"context"
	"database/sql"
	"time"

	"github.com/tmarsden/sterling/internal/monzoapi"
	"github.com/tmarsden/sterling/internal/storage"
)

const (
	defaultTransactionsPageLimit = 100
	defaultTransactionsMaxPages  = 50
)

// TransactionsSyncer pulls transactions for every open account, newest page
// by page from each account's local cursor, then rebuilds the derived
// pay-cycle columns so expense months and running balances stay consistent
// with what was just written.
type TransactionsSyncer struct {
	client    *monzoapi.Client
	db        *sql.DB
	accounts  *storage.AccountsRepo
	txRepo    *storage.TransactionsRepo
	appConfig *storage.AppConfigRepo
	syncState *storage.SyncStateRepo

	pageLimit     int
	maxPages      int
	defaultPayDay int
	defaultMoveTo storage.MoveTo
}

func NewTransactionsSyncer(
	client *monzoapi.Client,
	db *sql.DB,
	defaultPayDay int,
	defaultMoveTo storage.MoveTo,
) *TransactionsSyncer {
	if defaultPayDay < 1 || defaultPayDay > 31 {
		defaultPayDay = 25
	}
	if _, ok := storage.ParseMoveTo(string(defaultMoveTo)); !ok {
		defaultMoveTo = storage.MovePrevious
	}
	return &TransactionsSyncer{
		client:        client,
		db:            db,
		accounts:      storage.NewAccountsRepo(db),
		txRepo:        storage.NewTransactionsRepo(db),
		appConfig:     storage.NewAppConfigRepo(db),
		syncState:     storage.NewSyncStateRepo(db),
		pageLimit:     defaultTransactionsPageLimit,
		maxPages:      defaultTransactionsMaxPages,
		defaultPayDay: defaultPayDay,
		defaultMoveTo: defaultMoveTo,
	}
}

func (s *TransactionsSyncer) Collection() string {
	return CollectionTransactions
}

func (s *TransactionsSyncer) HasCachedData(ctx context.Context) (bool, error) {
	return s.txRepo.HasAny(ctx)
}

func (s *TransactionsSyncer) LastSuccessAt(ctx context.Context) (time.Time, bool, error) {
	state, ok, err := s.syncState.Get(ctx, s.Collection())
	if err != nil {
		return time.Time{}, false, err
	}
	if !ok || state.LastSuccess == nil {
		return time.Time{}, false, nil
	}
	return state.LastSuccess.UTC(), true, nil
}

func (s *TransactionsSyncer) Sync(ctx context.Context) error {
	return runSyncAttempt(ctx, s.syncState, s.Collection(), func(runCtx context.Context) (time.Time, error) {
		accounts, err := s.accounts.List(runCtx)
		if err != nil {
			return time.Time{}, err
		}

		wrote := false
		fetchedAt := time.Now().UTC()
		for _, acc := range accounts {
			if acc.Closed {
				continue
			}
			accountWrote, err := s.syncAccount(runCtx, acc.ID)
			if err != nil {
				return time.Time{}, err
			}
			wrote = wrote || accountWrote
			fetchedAt = time.Now().UTC()
		}

		if wrote {
			if err := s.rebuildPayCycles(runCtx); err != nil {
				return time.Time{}, err
			}
		}
		return fetchedAt, nil
	})
}

// syncAccount pages forward from the account's newest cached transaction.
// Reports whether anything new was written.
func (s *TransactionsSyncer) syncAccount(ctx context.Context, accountID string) (bool, error) {
	since, _, err := s.txRepo.LatestCreatedAtForAccount(ctx, accountID)
	if err != nil {
		return false, err
	}

	wrote := false
	for page := 0; page < s.maxPages; page++ {
		list, err := s.client.ListTransactions(ctx, monzoapi.TransactionListOptions{
			AccountID: accountID,
			SinceRFC:  since,
			Limit:     s.pageLimit,
		})
		if err != nil {
			return wrote, err
		}
		if len(list) == 0 {
			return wrote, nil
		}

		batch := make([]storage.TransactionRecord, 0, len(list))
		for _, tx := range list {
			if tx.ID == "" {
				continue
			}
			batch = append(batch, mapTransactionRecord(tx))
		}
		if len(batch) > 0 {
			if err := s.txRepo.UpsertBatch(ctx, batch, time.Now().UTC()); err != nil {
				return wrote, err
			}
			wrote = true
		}

		// since is exclusive upstream, so the last entry's timestamp moves
		// the cursor past this page.
		since = list[len(list)-1].Created.UTC().Format(time.RFC3339Nano)
		if len(list) < s.pageLimit {
			return wrote, nil
		}
	}
	return wrote, nil
}

func (s *TransactionsSyncer) rebuildPayCycles(ctx context.Context) error {
	payDay, moveTo, err := storage.ResolvePayCycleConfig(ctx, s.appConfig, s.defaultPayDay, s.defaultMoveTo)
	if err != nil {
		return err
	}
	return storage.RebuildPayCycles(ctx, s.db, payDay, moveTo)
}

func mapTransactionRecord(tx monzoapi.Transaction) storage.TransactionRecord {
	rec := storage.TransactionRecord{
		ID:          tx.ID,
		AccountID:   tx.AccountID,
		CreatedAt:   tx.Created.UTC().Format(time.RFC3339Nano),
		Description: tx.Description,
		Category:    tx.Category,
		AmountMinor: tx.Amount,
		Currency:    tx.Currency,
		IsLoad:      tx.IsLoad,
	}

	rec.SettledAt = optionalText(tx.Settled)
	rec.Notes = optionalText(tx.Notes)
	rec.DeclineReason = optionalText(tx.DeclineReason)
	rec.CounterpartyName = optionalText(tx.Counterparty.Name)
	if tx.Merchant != nil {
		rec.MerchantName = optionalText(tx.Merchant.Name)
	}
	if tx.LocalCurrency != "" && tx.LocalCurrency != tx.Currency {
		local := tx.LocalAmount
		currency := tx.LocalCurrency
		rec.LocalAmountMinor = &local
		rec.LocalCurrency = &currency
	}
	return rec
}

func optionalText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
