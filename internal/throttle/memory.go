package throttle

import (
	"context"
	"sync"
	"time"
)

type tripleKey struct {
	recipientID    string
	senderID       string
	conversationID string
}

// MemoryLedger keeps cooldown records in memory. Used by tests and for dev
// runs that do not need the ledger to survive restarts.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[tripleKey]*CooldownRecord
	window  time.Duration
	nowFunc func() time.Time
}

func NewMemoryLedger(window time.Duration) *MemoryLedger {
	return &MemoryLedger{
		records: make(map[tripleKey]*CooldownRecord),
		window:  window,
		nowFunc: time.Now,
	}
}

var _ Ledger = (*MemoryLedger)(nil)

// SetNowFunc overrides the clock, for tests.
func (l *MemoryLedger) SetNowFunc(fn func() time.Time) {
	l.nowFunc = fn
}

func (l *MemoryLedger) ShouldNotifyNow(ctx context.Context, recipientID, senderID, conversationID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[tripleKey{recipientID, senderID, conversationID}]
	if !ok {
		return true, nil
	}
	return l.nowFunc().Sub(rec.LastSentAt) >= l.window, nil
}

func (l *MemoryLedger) RecordAttempt(ctx context.Context, recipientID, senderID, conversationID string, wasSent bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := tripleKey{recipientID, senderID, conversationID}
	rec, ok := l.records[key]
	if !ok {
		rec = &CooldownRecord{
			RecipientID:    recipientID,
			SenderID:       senderID,
			ConversationID: conversationID,
		}
		l.records[key] = rec
	}
	rec.MessageCount++
	if wasSent {
		now := l.nowFunc()
		if now.After(rec.LastSentAt) {
			rec.LastSentAt = now
		}
	}
	return nil
}

func (l *MemoryLedger) Get(ctx context.Context, recipientID, senderID, conversationID string) (*CooldownRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[tripleKey{recipientID, senderID, conversationID}]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (l *MemoryLedger) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.nowFunc().Add(-retention)
	var purged int64
	for key, rec := range l.records {
		if rec.LastSentAt.Before(cutoff) {
			delete(l.records, key)
			purged++
		}
	}
	return purged, nil
}
