package syncer

import (
	"database/sql"
	"time"

	"github.com/tmarsden/sterling/internal/monzoapi"
	"github.com/tmarsden/sterling/internal/storage"
)

// NewFinanceService wires the account and transaction syncers over one
// database handle. Pay-cycle defaults apply until the user saves their own
// in settings.
func NewFinanceService(
	db *sql.DB,
	client *monzoapi.Client,
	defaultPayDay int,
	defaultMoveTo storage.MoveTo,
	onEvent func(Event),
) (*Service, error) {
	accountsRepo := storage.NewAccountsRepo(db)
	syncStateRepo := storage.NewSyncStateRepo(db)

	accountsSyncer := NewAccountsSyncer(client, accountsRepo, syncStateRepo, defaultAccountWorkers)
	transactionsSyncer := NewTransactionsSyncer(client, db, defaultPayDay, defaultMoveTo)

	engine, err := New(
		Config{
			StaleTTL:     30 * time.Second,
			PollInterval: 60 * time.Second,
			Backoff:      []time.Duration{2 * time.Second, 5 * time.Second, 15 * time.Second, 60 * time.Second},
		},
		[]Syncer{accountsSyncer, transactionsSyncer},
		onEvent,
	)
	if err != nil {
		return nil, err
	}
	return NewService(engine), nil
}
