package presence

import (
	"time"

	"github.com/google/uuid"
)

type Registry interface {
	// --- Connection Lifecycle ---
	// RegisterConnection inserts or replaces the entry for userID. Replacing
	// a live entry closes the displaced handle. Never fails.
	RegisterConnection(userID string, handle Handle) *ConnectionState
	// RecordActivity refreshes the last-activity timestamp. Heartbeats and
	// generic activity signals are treated identically. No-op for unknown users.
	RecordActivity(userID string)
	// RemoveConnection deletes the entry if present; idempotent if absent.
	RemoveConnection(userID string)
	// RemoveConnectionHandle deletes the entry only while handleID still owns
	// the user's slot, so a late close event cannot evict a fresh reconnect.
	// Reports whether an entry was removed.
	RemoveConnectionHandle(userID string, handleID uuid.UUID) bool

	// --- Presence Queries ---
	IsOnline(userID string) bool
	// IsOnlineWithin applies a caller-supplied staleness threshold instead of
	// the registry's eviction timeout.
	IsOnlineWithin(userID string, threshold time.Duration) bool
	ListOnlineUserIDs() []string
	// StaleUserIDs returns users whose last activity is at least olderThan ago.
	StaleUserIDs(olderThan time.Duration) []string
	// Snapshot returns the handles of every registered connection.
	Snapshot() []Handle

	// --- Administrative ---
	ClearAll()
}

// Sink receives the online-user set after a registry change that may have
// altered it (connect, disconnect, reap, administrative reset).
type Sink interface {
	PublishOnlineUserIDs(userIDs []string)
}
