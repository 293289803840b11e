package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/anshu-man26/EngageSphere-sub001/pkg/presence"
	"github.com/anshu-man26/EngageSphere-sub001/pkg/transport"
	"github.com/tidwall/gjson"
)

// Notifier is the offline-notification entry point the router invokes after
// message-send events.
type Notifier interface {
	NotifyIfOffline(ctx context.Context, recipientID, senderID, conversationID, messagePreview string) bool
}

const maxPreviewLen = 140

// EventRouter dispatches inbound socket events. Every well-formed event also
// counts as an activity signal for the sender's presence entry.
type EventRouter struct {
	logger   *slog.Logger
	registry presence.Registry
	notifier Notifier
}

func NewEventRouter(logger *slog.Logger, registry presence.Registry, notifier Notifier) *EventRouter {
	return &EventRouter{
		logger:   logger.With(slog.String("component", "event_router")),
		registry: registry,
		notifier: notifier,
	}
}

func (r *EventRouter) HandleMessage(ctx context.Context, conn *transport.Connection, msg []byte) {
	var clientMsg ClientMessage
	if err := json.Unmarshal(msg, &clientMsg); err != nil {
		r.logger.Warn("Failed to unmarshal client message", "connID", conn.ID(), "error", err)
		return
	}

	userID := conn.UserID()
	switch clientMsg.Event {
	case EventHeartbeat, EventActivity:
		// Heartbeats and generic activity signals refresh the same timestamp.
		r.registry.RecordActivity(userID)
	case EventMessageSend:
		r.registry.RecordActivity(userID)
		r.handleMessageSend(ctx, conn, clientMsg.Payload)
	default:
		r.logger.Warn("Received unknown event", "event", clientMsg.Event, "connID", conn.ID())
	}
}

// handleMessageSend runs the offline-notification hook for a message the
// sender's client has already persisted through the message API. The
// notification outcome never fails the event.
func (r *EventRouter) handleMessageSend(ctx context.Context, conn *transport.Connection, payload []byte) {
	recipientID := gjson.GetBytes(payload, "recipientId").String()
	conversationID := gjson.GetBytes(payload, "conversationId").String()
	if recipientID == "" || conversationID == "" {
		r.logger.Warn("message:send missing recipientId or conversationId", "connID", conn.ID())
		return
	}

	preview := gjson.GetBytes(payload, "preview").String()
	if preview == "" {
		preview = gjson.GetBytes(payload, "text").String()
	}
	if len(preview) > maxPreviewLen {
		// Walk the cut back onto a rune boundary so the truncation never
		// splits a multi-byte character.
		cut := maxPreviewLen
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut] + "…"
	}

	notified := r.notifier.NotifyIfOffline(ctx, recipientID, conn.UserID(), conversationID, preview)

	ack := ClientMessage{
		Event:   EventMessageAck,
		Payload: json.RawMessage(fmt.Sprintf(`{"recipientId":%q,"notified":%t}`, recipientID, notified)),
	}
	msgBytes, err := json.Marshal(ack)
	if err != nil {
		r.logger.Error("Failed to marshal message ack", slog.Any("error", err))
		return
	}
	conn.Send(msgBytes)
}
