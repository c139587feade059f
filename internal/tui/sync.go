package tui

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/tmarsden/sterling/internal/auth"
	"github.com/tmarsden/sterling/internal/monzoapi"
	"github.com/tmarsden/sterling/internal/storage"
	"github.com/tmarsden/sterling/internal/syncer"
)

const syncStaleTTL = 30 * time.Second

// syncCollectionsIntoDB runs a one-shot refresh of accounts then
// transactions through the sync service and waits for each to land. Without
// force, a collection whose cache is fresh is skipped.
func syncCollectionsIntoDB(sqlDB *sql.DB, payDay int, moveTo storage.MoveTo, force bool) error {
	token, err := auth.LoadToken()
	if err != nil {
		return err
	}

	client := monzoapi.New(token)
	service, err := syncer.NewFinanceService(sqlDB, client, payDay, moveTo, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	defer service.LeaveView()

	if err := syncOneCollection(ctx, sqlDB, service, syncer.CollectionAccounts, force); err != nil {
		return err
	}
	return syncOneCollection(ctx, sqlDB, service, syncer.CollectionTransactions, force)
}

func syncOneCollection(
	ctx context.Context,
	sqlDB *sql.DB,
	service *syncer.Service,
	collection string,
	force bool,
) error {
	stateRepo := storage.NewSyncStateRepo(sqlDB)

	var prevAttempt *time.Time
	var prevSuccess *time.Time
	if state, found, err := stateRepo.Get(ctx, collection); err == nil && found {
		if state.LastAttempt != nil {
			t := state.LastAttempt.UTC()
			prevAttempt = &t
		}
		if state.LastSuccess != nil {
			t := state.LastSuccess.UTC()
			prevSuccess = &t
		}
	}

	isStale := prevSuccess == nil || time.Since(prevSuccess.UTC()) > syncStaleTTL
	if !force && !isStale {
		return nil
	}

	var enterErr error
	switch collection {
	case syncer.CollectionAccounts:
		enterErr = service.EnterAccountsView(ctx)
	case syncer.CollectionTransactions:
		enterErr = service.EnterTransactionsView(ctx)
	default:
		enterErr = errors.New("unknown collection " + collection)
	}
	if enterErr != nil {
		return enterErr
	}

	if force {
		switch collection {
		case syncer.CollectionAccounts:
			if err := service.RefreshAccounts(); err != nil {
				return err
			}
		case syncer.CollectionTransactions:
			if err := service.RefreshTransactions(); err != nil {
				return err
			}
		}
	}

	return waitForSyncResult(ctx, stateRepo, collection, prevAttempt, prevSuccess)
}

// waitForSyncResult polls sync_state until a new attempt lands, returning
// the recorded error when the attempt failed.
func waitForSyncResult(
	ctx context.Context,
	repo *storage.SyncStateRepo,
	collection string,
	previousAttempt *time.Time,
	previousSuccess *time.Time,
) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		state, found, err := repo.Get(ctx, collection)
		if err == nil && found && state.LastAttempt != nil {
			attemptChanged := previousAttempt == nil || state.LastAttempt.After(*previousAttempt)
			successChanged := false
			if state.LastSuccess != nil {
				successChanged = previousSuccess == nil || state.LastSuccess.After(*previousSuccess)
			}

			if attemptChanged && strings.TrimSpace(state.LastErrorMsg) != "" {
				return errors.New(state.LastErrorMsg)
			}
			if successChanged {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return errors.New(collection + " sync timed out")
		case <-ticker.C:
		}
	}
}
