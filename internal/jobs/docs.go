// Package jobs provides scheduled background tasks for the live order feed.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
//
// # Available Jobs
//
// 1. KeepaliveJob - Sends a keepalive comment to every idle order stream (default every 15 seconds)
// 2. FeedStatsJob - Logs subscriber count and events dropped for slow subscribers (every minute)
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager over the event hub
//	jobManager := jobs.NewJobManager(hub, "*/15 * * * * *", logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Schedules are six field cron expressions, the first field being seconds.
//
// # Error Handling
//
// - An invalid schedule fails StartAll
// - Failed job starts will stop any already running jobs
package jobs
