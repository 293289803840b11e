package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/anshu-man26/EngageSphere-sub001/pkg/config"
	"github.com/anshu-man26/EngageSphere-sub001/pkg/presence/registry"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

type recordingNotifier struct {
	calls int
	sent  bool
}

func (n *recordingNotifier) NotifyIfOffline(ctx context.Context, recipientID, senderID, conversationID, messagePreview string) bool {
	n.calls++
	return n.sent
}

type nopSink struct{}

func (nopSink) PublishOnlineUserIDs(userIDs []string) {}

type nopHandle struct{ id uuid.UUID }

func (h nopHandle) ID() uuid.UUID { return h.id }

func (h nopHandle) Send(message []byte) {}

func (h nopHandle) Close(err error) {}

func newTestApp(t *testing.T, notifier *recordingNotifier) (*App, *registry.InMemoryRegistry) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Address = ":0"
	cfg.Server.Auth.JWTSecret = testSecret
	cfg.Transport.ReadTimeout = time.Minute
	cfg.Presence.InactivityTimeout = 2 * time.Minute

	reg := registry.NewInMemoryRegistry(newTestLogger(), cfg.Presence.InactivityTimeout)
	app := NewApp(newTestLogger(), context.Background(), cfg, reg, nopSink{}, notifier, nil, nil)
	return app, reg
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func doRequest(app *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.http.Handler.ServeHTTP(rec, req)
	return rec
}

func TestAdminPresenceRequiresAuth(t *testing.T) {
	app, _ := newTestApp(t, &recordingNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/admin/presence", nil)
	if rec := doRequest(app, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/presence", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	if rec := doRequest(app, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestAdminPresenceListsOnlineUsers(t *testing.T) {
	app, reg := newTestApp(t, &recordingNotifier{})
	reg.RegisterConnection("bob", nopHandle{id: uuid.New()})
	reg.RegisterConnection("alice", nopHandle{id: uuid.New()})

	req := httptest.NewRequest(http.MethodGet, "/admin/presence", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "admin"))
	rec := doRequest(app, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Online []string `json:"online"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Online) != 2 || body.Online[0] != "alice" || body.Online[1] != "bob" {
		t.Errorf("expected sorted online list [alice bob], got %v", body.Online)
	}
}

func TestAdminPresenceClear(t *testing.T) {
	app, reg := newTestApp(t, &recordingNotifier{})
	reg.RegisterConnection("bob", nopHandle{id: uuid.New()})

	req := httptest.NewRequest(http.MethodDelete, "/admin/presence", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "admin"))
	rec := doRequest(app, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(reg.ListOnlineUserIDs()) != 0 {
		t.Error("expected registry cleared")
	}
}

func TestNotifyHandler(t *testing.T) {
	notifier := &recordingNotifier{sent: true}
	app, _ := newTestApp(t, notifier)

	body := `{"recipientId":"r","senderId":"s","conversationId":"c","preview":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/internal/notify", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signToken(t, "message-service"))
	rec := doRequest(app, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if notifier.calls != 1 {
		t.Errorf("expected 1 notifier call, got %d", notifier.calls)
	}

	var resp map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp["sent"] {
		t.Error("expected sent=true in response")
	}
}

func TestNotifyHandlerValidation(t *testing.T) {
	notifier := &recordingNotifier{}
	app, _ := newTestApp(t, notifier)
	token := signToken(t, "message-service")

	req := httptest.NewRequest(http.MethodPost, "/internal/notify", strings.NewReader(`{"recipientId":"r"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	if rec := doRequest(app, req); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing fields, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/internal/notify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if rec := doRequest(app, req); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rec.Code)
	}

	if notifier.calls != 0 {
		t.Errorf("expected no notifier calls, got %d", notifier.calls)
	}
}
