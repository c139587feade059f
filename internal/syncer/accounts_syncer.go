package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/tmarsden/sterling/internal/monzoapi"
	"github.com/tmarsden/sterling/internal/storage"
)

const defaultAccountWorkers = 4

// AccountsSyncer refreshes the local account list and the per-account
// balances. Balances are a separate endpoint, so open accounts are fetched
// through a small worker pool.
type AccountsSyncer struct {
	client    *monzoapi.Client
	accounts  *storage.AccountsRepo
	syncState *storage.SyncStateRepo
	workers   int
}

func NewAccountsSyncer(
	client *monzoapi.Client,
	accounts *storage.AccountsRepo,
	syncState *storage.SyncStateRepo,
	workers int,
) *AccountsSyncer {
	if workers <= 0 {
		workers = defaultAccountWorkers
	}
	return &AccountsSyncer{
		client:    client,
		accounts:  accounts,
		syncState: syncState,
		workers:   workers,
	}
}

func (s *AccountsSyncer) Collection() string {
	return CollectionAccounts
}

func (s *AccountsSyncer) HasCachedData(ctx context.Context) (bool, error) {
	return s.accounts.HasAny(ctx)
}

func (s *AccountsSyncer) LastSuccessAt(ctx context.Context) (time.Time, bool, error) {
	state, ok, err := s.syncState.Get(ctx, s.Collection())
	if err != nil {
		return time.Time{}, false, err
	}
	if !ok || state.LastSuccess == nil {
		return time.Time{}, false, nil
	}
	return state.LastSuccess.UTC(), true, nil
}

func (s *AccountsSyncer) Sync(ctx context.Context) error {
	return runSyncAttempt(ctx, s.syncState, s.Collection(), func(runCtx context.Context) (time.Time, error) {
		list, err := s.client.ListAccounts(runCtx)
		if err != nil {
			return time.Time{}, err
		}

		openIDs := make([]string, 0, len(list))
		byID := make(map[string]monzoapi.Account, len(list))
		for _, acc := range list {
			if acc.ID == "" {
				continue
			}
			byID[acc.ID] = acc
			if !acc.Closed {
				openIDs = append(openIDs, acc.ID)
			}
		}

		balances, err := s.fetchAllBalances(runCtx, openIDs)
		if err != nil {
			return time.Time{}, err
		}

		records := make([]storage.AccountRecord, 0, len(byID))
		for id, acc := range byID {
			rec := storage.AccountRecord{
				ID:          id,
				Description: acc.Description,
				AccountType: acc.Type,
				Currency:    acc.Currency,
				CreatedAt:   acc.Created.UTC().Format(time.RFC3339),
				Closed:      acc.Closed,
			}
			if bal, ok := balances[id]; ok {
				rec.BalanceMinor = bal.Balance
				rec.TotalBalanceMinor = bal.TotalBalance
				rec.SpendTodayMinor = bal.SpendToday
				if bal.Currency != "" {
					rec.Currency = bal.Currency
				}
			}
			records = append(records, rec)
		}

		fetchedAt := time.Now().UTC()
		if err := s.accounts.UpsertBatch(runCtx, records, fetchedAt); err != nil {
			return time.Time{}, err
		}
		return fetchedAt, nil
	})
}

type accountBalance struct {
	accountID string
	balance   monzoapi.Balance
}

func (s *AccountsSyncer) fetchAllBalances(ctx context.Context, ids []string) (map[string]monzoapi.Balance, error) {
	fetched, err := fetchAllByID(ctx, ids, s.workers, func(ctx context.Context, id string) (accountBalance, error) {
		bal, err := s.client.GetBalance(ctx, id)
		if err != nil {
			return accountBalance{}, fmt.Errorf("get balance for account %q: %w", id, err)
		}
		return accountBalance{accountID: id, balance: *bal}, nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]monzoapi.Balance, len(fetched))
	for _, fb := range fetched {
		out[fb.accountID] = fb.balance
	}
	return out, nil
}
