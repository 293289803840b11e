package registry

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/anshu-man26/EngageSphere-sub001/pkg/presence"
	"github.com/google/uuid"
)

// InMemoryRegistry is the authoritative in-memory table of live connections,
// keyed by user. All operations are pure in-memory and non-blocking; the lock
// is never held across I/O.
type InMemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]*presence.ConnectionState

	inactivityTimeout time.Duration
	nowFunc           func() time.Time

	logger *slog.Logger
}

func NewInMemoryRegistry(logger *slog.Logger, inactivityTimeout time.Duration) *InMemoryRegistry {
	return &InMemoryRegistry{
		entries:           make(map[string]*presence.ConnectionState),
		inactivityTimeout: inactivityTimeout,
		nowFunc:           time.Now,
		logger:            logger.With(slog.String("component", "presence_registry")),
	}
}

// compile-time check to ensure InMemoryRegistry implements Registry.
var _ presence.Registry = (*InMemoryRegistry)(nil)

// SetNowFunc overrides the clock, for tests.
func (r *InMemoryRegistry) SetNowFunc(fn func() time.Time) {
	r.nowFunc = fn
}

func (r *InMemoryRegistry) RegisterConnection(userID string, handle presence.Handle) *presence.ConnectionState {
	r.mu.Lock()
	displaced := r.entries[userID]
	entry := &presence.ConnectionState{
		UserID:         userID,
		Handle:         handle,
		LastActivityAt: r.nowFunc(),
		Active:         true,
	}
	r.entries[userID] = entry
	r.mu.Unlock()

	// Close the displaced handle outside the lock; Close may fan out to the
	// transport's close callback.
	if displaced != nil && displaced.Handle != nil && (handle == nil || displaced.Handle.ID() != handle.ID()) {
		r.logger.Debug("Closing displaced connection", slog.String("userID", userID), slog.String("connID", displaced.Handle.ID().String()))
		displaced.Handle.Close(errors.New("replaced by a newer connection"))
	}
	r.logger.Debug("Connection registered", slog.String("userID", userID))
	return entry
}

func (r *InMemoryRegistry) RecordActivity(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[userID]
	if !ok {
		return
	}
	entry.LastActivityAt = r.nowFunc()
	entry.Active = true
}

func (r *InMemoryRegistry) RemoveConnection(userID string) {
	r.mu.Lock()
	_, ok := r.entries[userID]
	delete(r.entries, userID)
	r.mu.Unlock()

	if ok {
		r.logger.Debug("Connection removed", slog.String("userID", userID))
	}
}

func (r *InMemoryRegistry) RemoveConnectionHandle(userID string, handleID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[userID]
	if !ok {
		return false
	}
	if entry.Handle != nil && entry.Handle.ID() != handleID {
		// A fresher connection owns this slot; the close event is stale.
		r.logger.Debug("Ignoring stale disconnect", slog.String("userID", userID), slog.String("connID", handleID.String()))
		return false
	}
	delete(r.entries, userID)
	r.logger.Debug("Connection removed", slog.String("userID", userID), slog.String("connID", handleID.String()))
	return true
}

func (r *InMemoryRegistry) IsOnline(userID string) bool {
	return r.IsOnlineWithin(userID, r.inactivityTimeout)
}

func (r *InMemoryRegistry) IsOnlineWithin(userID string, threshold time.Duration) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[userID]
	if !ok || !entry.Active {
		return false
	}
	return r.nowFunc().Sub(entry.LastActivityAt) < threshold
}

func (r *InMemoryRegistry) ListOnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.nowFunc()
	ids := make([]string, 0, len(r.entries))
	for userID, entry := range r.entries {
		if entry.Active && now.Sub(entry.LastActivityAt) < r.inactivityTimeout {
			ids = append(ids, userID)
		}
	}
	// Sorted so repeated publishes are comparable in logs and tests.
	sort.Strings(ids)
	return ids
}

func (r *InMemoryRegistry) StaleUserIDs(olderThan time.Duration) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.nowFunc()
	var ids []string
	for userID, entry := range r.entries {
		if now.Sub(entry.LastActivityAt) >= olderThan {
			ids = append(ids, userID)
		}
	}
	return ids
}

func (r *InMemoryRegistry) Snapshot() []presence.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]presence.Handle, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.Handle != nil {
			handles = append(handles, entry.Handle)
		}
	}
	return handles
}

func (r *InMemoryRegistry) ClearAll() {
	r.mu.Lock()
	count := len(r.entries)
	r.entries = make(map[string]*presence.ConnectionState)
	r.mu.Unlock()

	r.logger.Info("Presence registry cleared", slog.Int("evicted", count))
}
