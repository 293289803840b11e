package router

import "encoding/json"

// ClientMessage is the wire envelope for every socket event, inbound and
// outbound.
type ClientMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound events.
const (
	EventHeartbeat   = "heartbeat"
	EventActivity    = "activity"
	EventMessageSend = "message:send"
)

// Outbound events.
const (
	EventMessageAck     = "message:ack"
	EventPresenceOnline = "presence:online"
)
