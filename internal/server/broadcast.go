package server

import (
	"encoding/json"
	"log/slog"

	"github.com/anshu-man26/EngageSphere-sub001/internal/observability"
	"github.com/anshu-man26/EngageSphere-sub001/internal/router"
	"github.com/anshu-man26/EngageSphere-sub001/pkg/presence"
)

// Broadcaster fans the online-user set out to every live connection as a
// presence:online event. It implements presence.Sink.
type Broadcaster struct {
	registry presence.Registry
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func NewBroadcaster(logger *slog.Logger, registry presence.Registry, metrics *observability.Metrics) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "presence_broadcaster")),
	}
}

var _ presence.Sink = (*Broadcaster)(nil)

func (b *Broadcaster) PublishOnlineUserIDs(userIDs []string) {
	if b.metrics != nil {
		b.metrics.OnlineUsers.Set(float64(len(userIDs)))
	}

	payload, err := json.Marshal(userIDs)
	if err != nil {
		b.logger.Error("Failed to marshal online set", slog.Any("error", err))
		return
	}
	msg, err := json.Marshal(router.ClientMessage{
		Event:   router.EventPresenceOnline,
		Payload: payload,
	})
	if err != nil {
		b.logger.Error("Failed to marshal presence event", slog.Any("error", err))
		return
	}

	handles := b.registry.Snapshot()
	for _, h := range handles {
		h.Send(msg)
	}
	b.logger.Debug("Published online set", slog.Int("online", len(userIDs)), slog.Int("recipients", len(handles)))
}
