// Package housekeeping removes orphaned tag associations, expired editor sessions and stale revocations on a schedule.
package housekeeping

import (
	"context"
	"fmt"
	"portfolio-site/internal/environment"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
	"portfolio-site/internal/models"
	"time"

	"github.com/robfig/cron/v3"
)

const correlationType = "housekeeping"

// SessionPruner drops editing sessions whose token expired before now
type SessionPruner interface {
	Prune(now time.Time) int
}

// Housekeeper defines the periodic clean up run
type Housekeeper interface {
	// Run deletes join rows that reference a missing record or tag, prunes expired editor sessions
	// and drops revocations of expired tokens.
	//
	// param ctx the context for database operations
	// return error if a lookup or deletion fails
	Run(ctx context.Context) error
}

// DefaultHousekeeper provides a default implementation of Housekeeper.
type DefaultHousekeeper struct {
	*environment.Env
	Sessions SessionPruner
}

// ensure DefaultHousekeeper implements Housekeeper
var _ Housekeeper = &DefaultHousekeeper{}

func (hk *DefaultHousekeeper) Run(ctx context.Context) error {
	logging.StartCorrelation(correlationType)
	defer logging.EndCorrelation(correlationType)

	start := hk.Now()
	hk.LogInfo(logging.GetLogTypeHousekeeping(), "start housekeeping")

	if hk.Sessions != nil {
		if pruned := hk.Sessions.Prune(start); pruned > 0 {
			hk.LogInfof(logging.GetLogTypeHousekeeping(), "pruned %d expired editor session(s)", pruned)
		}
	}

	err := deleteOrphans(ctx, hk, models.PostTag{}.TableName(), hk.DeleteOrphanedPostTags)
	if err != nil {
		return err
	}
	if err = deleteOrphans(ctx, hk, models.ProjectTag{}.TableName(), hk.DeleteOrphanedProjectTags); err != nil {
		return err
	}
	expired := func(ctx context.Context) (int64, error) { return hk.DeleteExpiredRevokedSessions(ctx, start) }
	if err = deleteOrphans(ctx, hk, models.RevokedSession{}.TableName(), expired); err != nil {
		return err
	}

	hk.LogInfof(logging.GetLogTypeHousekeeping(), "finished housekeeping; duration: %dms", hk.Now().Sub(start).Milliseconds())
	return nil
}

// deleteOrphans runs remove for the table and counts the deleted rows in the housekeeping metrics
func deleteOrphans(ctx context.Context, hk *DefaultHousekeeper, table string, remove func(context.Context) (int64, error)) error {
	deleted, err := remove(ctx)
	if err != nil {
		hk.LogError(logging.GetLogTypeHousekeeping(), err.Error())
		return fmt.Errorf("error deleting %s rows: %w", table, err)
	}
	if deleted == 0 {
		hk.LogDebugf(logging.GetLogTypeHousekeeping(), "nothing to delete in %s", table)
		return nil
	}

	hk.LogInfof(logging.GetLogTypeHousekeeping(), "deleted %d %s row(s)", deleted, table)
	metrics.HousekeepingDeletedRows.WithLabelValues(table).Add(float64(deleted))
	return nil
}

// Schedule runs hk on the given cron spec until the returned scheduler is stopped.
// A run still in progress when the next one is due causes that run to be skipped.
func Schedule(spec string, hk Housekeeper, logger logging.Logger, timeout time.Duration) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := scheduler.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := hk.Run(ctx); err != nil {
			logger.LogErrorf(logging.GetLogTypeHousekeeping(), "housekeeping failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid housekeeping schedule %q: %w", spec, err)
	}

	scheduler.Start()
	return scheduler, nil
}
