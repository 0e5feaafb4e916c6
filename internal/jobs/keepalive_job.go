package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Pinger queues keepalive ticks on idle subscribers.
type Pinger interface {
	Keepalive() int
}

// KeepaliveJob keeps idle order streams open by sending keepalive comments
// on a cron schedule.
type KeepaliveJob struct {
	feed     Pinger
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewKeepaliveJob creates a job pinging feed on schedule, a six field cron
// expression with seconds.
func NewKeepaliveJob(feed Pinger, schedule string, logger *slog.Logger) *KeepaliveJob {
	return &KeepaliveJob{
		feed:     feed,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "keepalive_job"),
	}
}

// Run sends one round of keepalives.
func (j *KeepaliveJob) Run() {
	if n := j.feed.Keepalive(); n > 0 {
		j.logger.Debug("Keepalive sent", "subscribers", n)
	}
}

// Start schedules the job.
func (j *KeepaliveJob) Start() error {
	if _, err := j.cron.AddJob(j.schedule, j); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Keepalive job started", "schedule", j.schedule)
	return nil
}

// Stop stops the keepalive job.
func (j *KeepaliveJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Keepalive job stopped")
}
