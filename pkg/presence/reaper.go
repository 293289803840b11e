package presence

import (
	"context"
	"log/slog"
	"time"
)

// EvictionCounter counts reaped connections. Satisfied by prometheus.Counter.
type EvictionCounter interface {
	Add(float64)
}

// Reaper converts the passage of time into eviction events: connections can
// die without a clean disconnect signal, so a periodic sweep demotes entries
// whose last activity is older than the inactivity timeout.
type Reaper struct {
	registry Registry
	sink     Sink

	interval time.Duration
	timeout  time.Duration

	evicted EvictionCounter
	logger  *slog.Logger
}

func NewReaper(logger *slog.Logger, registry Registry, sink Sink, interval, timeout time.Duration) *Reaper {
	return &Reaper{
		registry: registry,
		sink:     sink,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "presence_reaper")),
	}
}

// SetEvictionCounter attaches an optional counter incremented per eviction.
func (r *Reaper) SetEvictionCounter(c EvictionCounter) {
	r.evicted = c
}

// Run sweeps on a fixed period until ctx is cancelled. Each sweep is one
// bounded pass over the current table snapshot.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Reaper started", slog.Duration("interval", r.interval), slog.Duration("timeout", r.timeout))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reaper stopped")
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep evicts every stale entry and, if anything changed, publishes the
// resulting online set.
func (r *Reaper) Sweep() int {
	stale := r.registry.StaleUserIDs(r.timeout)
	for _, userID := range stale {
		r.registry.RemoveConnection(userID)
	}
	if len(stale) == 0 {
		return 0
	}

	r.logger.Info("Reaped idle connections", slog.Int("count", len(stale)))
	if r.evicted != nil {
		r.evicted.Add(float64(len(stale)))
	}
	if r.sink != nil {
		r.sink.PublishOnlineUserIDs(r.registry.ListOnlineUserIDs())
	}
	return len(stale)
}
