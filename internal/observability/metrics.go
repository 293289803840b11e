// Package observability exposes the service's prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the service's operational counters and gauges.
type Metrics struct {
	// OnlineUsers tracks the current size of the online set.
	OnlineUsers prometheus.Gauge

	// ConnectionsOpened / ConnectionsClosed count socket lifecycle events.
	ConnectionsOpened prometheus.Counter
	ConnectionsClosed prometheus.Counter

	// ConnectionsReaped counts evictions by the idle-connection reaper.
	ConnectionsReaped prometheus.Counter

	// Notifications counts notification decisions.
	// Labels: outcome (sent|suppressed|failed|skipped_online|skipped_unconfigured)
	Notifications *prometheus.CounterVec

	// CooldownRecordsPurged counts ledger rows removed by the janitor.
	CooldownRecordsPurged prometheus.Counter
}

// NewMetrics registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OnlineUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "engagesphere_online_users",
			Help: "Number of users currently in the online set.",
		}),
		ConnectionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "engagesphere_connections_opened_total",
			Help: "Total websocket connections registered.",
		}),
		ConnectionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "engagesphere_connections_closed_total",
			Help: "Total websocket connections removed on close.",
		}),
		ConnectionsReaped: factory.NewCounter(prometheus.CounterOpts{
			Name: "engagesphere_connections_reaped_total",
			Help: "Total connections evicted by the inactivity reaper.",
		}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "engagesphere_notifications_total",
			Help: "Offline-notification decisions by outcome.",
		}, []string{"outcome"}),
		CooldownRecordsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "engagesphere_cooldown_records_purged_total",
			Help: "Cooldown ledger rows purged past the retention window.",
		}),
	}
}
