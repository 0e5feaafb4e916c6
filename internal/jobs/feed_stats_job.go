package jobs

import (
	"context"
	"log/slog"

	"mrdinner/internal/adapters/out/broker"

	"github.com/robfig/cron/v3"
)

// StatsSource reports distributor counters.
type StatsSource interface {
	Stats() broker.Stats
}

// FeedStatsJob logs the number of live subscribers and how many events were
// dropped for slow ones since the previous run.
type FeedStatsJob struct {
	feed     StatsSource
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	lastDropped uint64
}

// NewFeedStatsJob creates a job that reports feed statistics on schedule.
func NewFeedStatsJob(feed StatsSource, schedule string, logger *slog.Logger) *FeedStatsJob {
	return &FeedStatsJob{
		feed:     feed,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger.With("component", "feed_stats_job"),
	}
}

// Run logs one snapshot. Drops since the last run are reported as a warning.
func (j *FeedStatsJob) Run() {
	stats := j.feed.Stats()
	dropped := stats.Dropped - j.lastDropped
	j.lastDropped = stats.Dropped

	attrs := []any{
		"subscribers", stats.Subscribers,
		"published", stats.Published,
		"dropped_total", stats.Dropped,
		"dropped", dropped,
	}
	if dropped > 0 {
		j.logger.Warn("Slow subscribers lost events", attrs...)
		return
	}
	j.logger.Info("Feed statistics", attrs...)
}

// Start schedules the job.
func (j *FeedStatsJob) Start() error {
	if _, err := j.cron.AddJob(j.schedule, j); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Feed stats job started", "schedule", j.schedule)
	return nil
}

// Stop stops the feed stats job.
func (j *FeedStatsJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Feed stats job stopped")
}
