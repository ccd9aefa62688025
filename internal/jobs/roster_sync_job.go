package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RosterSyncJobName is the name of the SIS roster sync job
const RosterSyncJobName = "roster_sync"

// RosterSyncer refreshes promotion rosters from the student information
// system. Returns counts for synced and failed promotions.
type RosterSyncer interface {
	SyncRosters(ctx context.Context) (synced int, failed int, err error)
}

// RosterSyncJob re-imports the roster of every active promotion with a
// cohort code on record, keeping rosters aligned with SIS enrollment.
type RosterSyncJob struct {
	promotions RosterSyncer
	timeout    time.Duration
	logger     *zap.Logger
}

// NewRosterSyncJob creates a new roster sync job.
func NewRosterSyncJob(promotions RosterSyncer, timeout time.Duration, logger *zap.Logger) *RosterSyncJob {
	return &RosterSyncJob{
		promotions: promotions,
		timeout:    timeout,
		logger:     logger,
	}
}

// Run executes one sync pass. Called by the scheduler.
func (j *RosterSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	synced, failed, err := j.promotions.SyncRosters(ctx)
	if err != nil {
		j.logger.Error("roster sync failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("roster sync completed",
		zap.Int("promotions_synced", synced),
		zap.Int("promotions_failed", failed),
		zap.Duration("duration", time.Since(start)))
}

// RegisterRosterSyncJob registers the roster sync job with the scheduler.
func RegisterRosterSyncJob(scheduler *Scheduler, promotions RosterSyncer, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewRosterSyncJob(promotions, timeout, logger)
	return scheduler.AddJob(RosterSyncJobName, cronExpr, job.Run)
}
