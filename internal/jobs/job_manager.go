package jobs

import (
	"fmt"
	"log/slog"

	"mrdinner/internal/adapters/out/broker"
)

// FeedStatsSchedule is when feed statistics are logged: every minute.
const FeedStatsSchedule = "0 * * * * *"

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	keepaliveJob *KeepaliveJob
	feedStatsJob *FeedStatsJob
}

// NewJobManager creates a new job manager for the live feed hub.
// keepaliveSchedule is a six field cron expression with seconds.
func NewJobManager(hub *broker.Hub, keepaliveSchedule string, logger *slog.Logger) *JobManager {
	return &JobManager{
		keepaliveJob: NewKeepaliveJob(hub, keepaliveSchedule, logger),
		feedStatsJob: NewFeedStatsJob(hub, FeedStatsSchedule, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.keepaliveJob.Start(); err != nil {
		return fmt.Errorf("failed to start keepalive job: %w", err)
	}

	if err := jm.feedStatsJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.keepaliveJob.Stop()
		return fmt.Errorf("failed to start feed stats job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.feedStatsJob.Stop()
	jm.keepaliveJob.Stop()
}
