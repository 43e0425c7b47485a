package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StartRetentionJob schedules a nightly purge of analytics rows older than
// retention. The returned cron is already running; callers stop it on
// shutdown.
func StartRetentionJob(sink Sink, retention time.Duration, logger *slog.Logger) *cron.Cron {
	if logger == nil {
		logger = slog.Default()
	}

	c := cron.New()
	// 04:10 server time, after the day's traffic tails off.
	_, err := c.AddFunc("10 4 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		cutoff := time.Now().Add(-retention)
		deleted, err := sink.PurgeOlderThan(ctx, cutoff)
		if err != nil {
			logger.Error("retention purge failed", "error", err)
			return
		}
		if deleted > 0 {
			logger.Info("retention purge completed", "deleted", deleted, "cutoff", cutoff)
		}
	})
	if err != nil {
		// The schedule expression is a constant; this cannot fail at runtime.
		logger.Error("failed to schedule retention job", "error", err)
	}
	c.Start()
	logger.Info("retention job scheduled", "retention", retention)
	return c
}
