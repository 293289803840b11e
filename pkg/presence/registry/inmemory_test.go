package registry_test

import (
	"log/slog"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/anshu-man26/EngageSphere-sub001/pkg/presence/registry"
	"github.com/google/uuid"
)

// --- Test Suite Setup ---

func newTestLogger() *slog.Logger {
	// Discard logger output during tests by setting a high level
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

const testTimeout = 2 * time.Minute

func newTestRegistry() *registry.InMemoryRegistry {
	return registry.NewInMemoryRegistry(newTestLogger(), testTimeout)
}

type fakeHandle struct {
	id     uuid.UUID
	mu     sync.Mutex
	closed bool
	sent   [][]byte
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{id: uuid.New()}
}

func (h *fakeHandle) ID() uuid.UUID { return h.id }

func (h *fakeHandle) Send(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, message)
}

func (h *fakeHandle) Close(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func (h *fakeHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// --- Connection Lifecycle Tests ---

func TestConnectionLifecycle(t *testing.T) {
	r := newTestRegistry()
	h := newFakeHandle()

	entry := r.RegisterConnection("user-1", h)
	if entry.UserID != "user-1" || !entry.Active {
		t.Fatalf("unexpected entry after register: %+v", entry)
	}
	if !r.IsOnline("user-1") {
		t.Error("expected user to be online immediately after register")
	}

	r.RemoveConnection("user-1")
	if r.IsOnline("user-1") {
		t.Error("expected user to be offline after remove")
	}

	// Removing twice is a no-op, not an error.
	r.RemoveConnection("user-1")
}

func TestRegisterReplacesExistingConnection(t *testing.T) {
	r := newTestRegistry()
	old := newFakeHandle()
	fresh := newFakeHandle()

	r.RegisterConnection("user-1", old)
	r.RegisterConnection("user-1", fresh)

	if !old.isClosed() {
		t.Error("expected displaced handle to be closed")
	}
	if fresh.isClosed() {
		t.Error("fresh handle must not be closed by replacement")
	}
	if !r.IsOnline("user-1") {
		t.Error("expected user to stay online across replacement")
	}
}

func TestRemoveConnectionHandleIgnoresStaleDisconnect(t *testing.T) {
	r := newTestRegistry()
	old := newFakeHandle()
	fresh := newFakeHandle()

	r.RegisterConnection("user-1", old)
	r.RegisterConnection("user-1", fresh)

	// The old connection's close event arrives after the reconnect.
	if removed := r.RemoveConnectionHandle("user-1", old.ID()); removed {
		t.Fatal("stale disconnect must not evict a fresher connection")
	}
	if !r.IsOnline("user-1") {
		t.Error("expected user to remain online after stale disconnect")
	}

	if removed := r.RemoveConnectionHandle("user-1", fresh.ID()); !removed {
		t.Fatal("expected current handle's disconnect to remove the entry")
	}
	if r.IsOnline("user-1") {
		t.Error("expected user offline after current handle removed")
	}
}

// --- Timeout & Activity Tests ---

func TestIsOnlineRespectsInactivityTimeout(t *testing.T) {
	r := newTestRegistry()
	now := time.Unix(1700000000, 0)
	r.SetNowFunc(func() time.Time { return now })

	r.RegisterConnection("user-1", newFakeHandle())
	if !r.IsOnline("user-1") {
		t.Fatal("expected online right after register")
	}

	now = now.Add(testTimeout - time.Second)
	if !r.IsOnline("user-1") {
		t.Error("expected online just inside the inactivity window")
	}

	now = now.Add(2 * time.Second)
	if r.IsOnline("user-1") {
		t.Error("expected offline past the inactivity window")
	}
	// A longer caller-supplied threshold still sees the user.
	if !r.IsOnlineWithin("user-1", 5*time.Minute) {
		t.Error("expected online under the longer threshold")
	}
}

func TestRecordActivityRefreshesTimestamp(t *testing.T) {
	r := newTestRegistry()
	now := time.Unix(1700000000, 0)
	r.SetNowFunc(func() time.Time { return now })

	r.RegisterConnection("user-1", newFakeHandle())

	// Heartbeat midway through the window pushes the deadline out.
	now = now.Add(testTimeout / 2)
	r.RecordActivity("user-1")
	now = now.Add(testTimeout - time.Second)
	if !r.IsOnline("user-1") {
		t.Error("expected activity to extend the online window")
	}

	// Activity for an unknown user is a no-op.
	r.RecordActivity("nobody")
	if r.IsOnline("nobody") {
		t.Error("activity must not create an entry")
	}
}

// --- Query Tests ---

func TestListOnlineUserIDsSortedAndFiltered(t *testing.T) {
	r := newTestRegistry()
	now := time.Unix(1700000000, 0)
	r.SetNowFunc(func() time.Time { return now })

	r.RegisterConnection("carol", newFakeHandle())
	r.RegisterConnection("alice", newFakeHandle())
	now = now.Add(testTimeout + time.Second)
	r.RegisterConnection("bob", newFakeHandle())
	r.RecordActivity("alice")

	got := r.ListOnlineUserIDs()
	want := []string{"alice", "bob"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	stale := r.StaleUserIDs(testTimeout)
	if len(stale) != 1 || stale[0] != "carol" {
		t.Errorf("expected carol to be stale, got %v", stale)
	}
}

func TestClearAll(t *testing.T) {
	r := newTestRegistry()
	r.RegisterConnection("user-1", newFakeHandle())
	r.RegisterConnection("user-2", newFakeHandle())

	r.ClearAll()
	if len(r.ListOnlineUserIDs()) != 0 {
		t.Error("expected empty online set after ClearAll")
	}
	if len(r.Snapshot()) != 0 {
		t.Error("expected no handles after ClearAll")
	}
}

// --- Concurrency ---

func TestRegistryConcurrency(t *testing.T) {
	r := newTestRegistry()
	numGoroutines := 100
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := "user" + strconv.Itoa(i%10)
			r.RegisterConnection(userID, newFakeHandle())
			r.RecordActivity(userID)
		}(i)
	}
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := "user" + strconv.Itoa(i%10)
			r.IsOnline(userID)
			r.ListOnlineUserIDs()
			if i%3 == 0 {
				r.RemoveConnection(userID)
			}
		}(i)
	}

	wg.Wait()
}
