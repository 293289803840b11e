package throttle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// SQLiteLedger stores cooldown records in sqlite, surviving process restarts.
type SQLiteLedger struct {
	db      *sql.DB
	window  time.Duration
	nowFunc func() time.Time
}

// NewSQLiteLedger creates the ledger and its schema. The window is the
// minimum elapsed time between two sent notifications for the same triple.
func NewSQLiteLedger(db *sql.DB, window time.Duration) (*SQLiteLedger, error) {
	l := &SQLiteLedger{
		db:      db,
		window:  window,
		nowFunc: time.Now,
	}
	if err := l.init(); err != nil {
		return nil, err
	}
	return l, nil
}

var _ Ledger = (*SQLiteLedger)(nil)

// SetNowFunc overrides the clock, for tests.
func (l *SQLiteLedger) SetNowFunc(fn func() time.Time) {
	l.nowFunc = fn
}

func (l *SQLiteLedger) init() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS notification_cooldowns (
			recipient_id    TEXT NOT NULL,
			sender_id       TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			last_sent_at    INTEGER NOT NULL,
			message_count   INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (recipient_id, sender_id, conversation_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create cooldown table: %w", err)
	}
	_, err = l.db.Exec("CREATE INDEX IF NOT EXISTS idx_cooldowns_last_sent ON notification_cooldowns(last_sent_at)")
	if err != nil {
		return fmt.Errorf("failed to create cooldown index: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) ShouldNotifyNow(ctx context.Context, recipientID, senderID, conversationID string) (bool, error) {
	var lastSent int64
	err := l.db.QueryRowContext(ctx, `
		SELECT last_sent_at FROM notification_cooldowns
		WHERE recipient_id = ? AND sender_id = ? AND conversation_id = ?`,
		recipientID, senderID, conversationID,
	).Scan(&lastSent)
	if errors.Is(err, sql.ErrNoRows) {
		// First-ever contact always notifies.
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query cooldown record: %w", err)
	}
	return l.nowFunc().UnixMilli()-lastSent >= l.window.Milliseconds(), nil
}

func (l *SQLiteLedger) RecordAttempt(ctx context.Context, recipientID, senderID, conversationID string, wasSent bool) error {
	// Insert-or-update in one statement: concurrent first-contact sends must
	// not create two records (or two emails) for the same triple.
	var sentAt int64
	if wasSent {
		sentAt = l.nowFunc().UnixMilli()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO notification_cooldowns (recipient_id, sender_id, conversation_id, last_sent_at, message_count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(recipient_id, sender_id, conversation_id) DO UPDATE SET
			message_count = message_count + 1,
			last_sent_at  = MAX(last_sent_at, excluded.last_sent_at)`,
		recipientID, senderID, conversationID, sentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cooldown record: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) Get(ctx context.Context, recipientID, senderID, conversationID string) (*CooldownRecord, error) {
	rec := &CooldownRecord{
		RecipientID:    recipientID,
		SenderID:       senderID,
		ConversationID: conversationID,
	}
	var lastSent int64
	err := l.db.QueryRowContext(ctx, `
		SELECT last_sent_at, message_count FROM notification_cooldowns
		WHERE recipient_id = ? AND sender_id = ? AND conversation_id = ?`,
		recipientID, senderID, conversationID,
	).Scan(&lastSent, &rec.MessageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cooldown record: %w", err)
	}
	if lastSent > 0 {
		rec.LastSentAt = time.UnixMilli(lastSent)
	}
	return rec, nil
}

func (l *SQLiteLedger) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := l.nowFunc().Add(-retention).UnixMilli()
	res, err := l.db.ExecContext(ctx,
		"DELETE FROM notification_cooldowns WHERE last_sent_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cooldown records: %w", err)
	}
	return res.RowsAffected()
}
