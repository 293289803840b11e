// Package throttle enforces the per-sender-recipient-conversation cooldown on
// offline-notification emails: at most one email per cooldown window, while
// still counting suppressed attempts.
package throttle

import (
	"context"
	"time"
)

// CooldownRecord is the durable ledger entry for one
// (recipient, sender, conversation) triple.
type CooldownRecord struct {
	RecipientID    string
	SenderID       string
	ConversationID string
	// LastSentAt only moves forward, and only on a successful send. The zero
	// time marks a record created by a suppressed or failed attempt, which
	// must not throttle the next try.
	LastSentAt   time.Time
	MessageCount int64
}

// Ledger persists cooldown records. Implementations must upsert atomically on
// the uniqueness triple so concurrent first-contact sends race on one record.
type Ledger interface {
	// ShouldNotifyNow reports whether a notification may fire now. A missing
	// record means first-ever contact and always notifies.
	ShouldNotifyNow(ctx context.Context, recipientID, senderID, conversationID string) (bool, error)

	// RecordAttempt increments the message count for the triple, creating the
	// record if needed. Only wasSent=true advances the sent timestamp.
	RecordAttempt(ctx context.Context, recipientID, senderID, conversationID string, wasSent bool) error

	// Get returns the record for the triple, or nil if none exists.
	Get(ctx context.Context, recipientID, senderID, conversationID string) (*CooldownRecord, error)

	// CleanupExpired deletes records whose sent timestamp is older than
	// retention, returning how many were purged. An expired record's absence
	// only costs one extra unsuppressed notification.
	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
}
