package syncer

import (
	"context"
	"time"

	"github.com/tmarsden/sterling/internal/storage"
)

// runSyncAttempt wraps collection sync work with sync_state bookkeeping.
// The work function returns the timestamp recorded on success.
func runSyncAttempt(
	ctx context.Context,
	syncState *storage.SyncStateRepo,
	collection string,
	work func(context.Context) (time.Time, error),
) error {
	attemptAt := time.Now().UTC()
	if err := syncState.RecordAttempt(ctx, collection, attemptAt); err != nil {
		return err
	}

	successAt, err := work(ctx)
	if err != nil {
		// Record the failure even when ctx is already cancelled.
		_ = syncState.RecordError(context.Background(), collection, time.Now().UTC(), err)
		return err
	}
	if successAt.IsZero() {
		successAt = time.Now().UTC()
	}
	return syncState.RecordSuccess(ctx, collection, successAt.UTC())
}
