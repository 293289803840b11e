package presence

import (
	"time"

	"github.com/google/uuid"
)

// Handle is the transport-layer reference held for a connected user. The
// registry owns the handle exclusively; it closes a displaced handle when a
// newer connection for the same user replaces it.
type Handle interface {
	ID() uuid.UUID
	Send(message []byte)
	Close(err error)
}

// ConnectionState tracks a single user's live connection. At most one entry
// exists per user at any instant; a reconnect overwrites, never appends.
type ConnectionState struct {
	UserID         string
	Handle         Handle
	LastActivityAt time.Time
	Active         bool
}
