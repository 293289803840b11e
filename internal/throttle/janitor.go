package throttle

import (
	"context"
	"log/slog"
	"time"
)

// PurgeCounter counts purged cooldown records. Satisfied by prometheus.Counter.
type PurgeCounter interface {
	Add(float64)
}

// Janitor bounds ledger growth by purging records past the retention window
// on a fixed period. Retention is configured strictly longer than the
// cooldown window, so a purge never re-opens an active cooldown.
type Janitor struct {
	ledger    Ledger
	retention time.Duration
	interval  time.Duration

	purged PurgeCounter
	logger *slog.Logger
}

func NewJanitor(logger *slog.Logger, ledger Ledger, interval, retention time.Duration) *Janitor {
	return &Janitor{
		ledger:    ledger,
		retention: retention,
		interval:  interval,
		logger:    logger.With(slog.String("component", "cooldown_janitor")),
	}
}

// SetPurgeCounter attaches an optional counter incremented per purged record.
func (j *Janitor) SetPurgeCounter(c PurgeCounter) {
	j.purged = c
}

// Run sweeps until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("Cooldown janitor started", slog.Duration("interval", j.interval), slog.Duration("retention", j.retention))
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Cooldown janitor stopped")
			return
		case <-ticker.C:
			count, err := j.ledger.CleanupExpired(ctx, j.retention)
			if err != nil {
				j.logger.Error("Cooldown cleanup failed", slog.Any("error", err))
				continue
			}
			if count > 0 {
				j.logger.Info("Purged expired cooldown records", slog.Int64("count", count))
				if j.purged != nil {
					j.purged.Add(float64(count))
				}
			}
		}
	}
}
