package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// adminPresenceHandler exposes the registry's administrative surface for
// debugging and support tooling.
func (a *App) adminPresenceHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		online := a.registry.ListOnlineUserIDs()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"online": online}); err != nil {
			a.logger.Error("Failed to write online list", slog.Any("error", err))
		}
	case http.MethodDelete:
		a.registry.ClearAll()
		a.sink.PublishOnlineUserIDs(a.registry.ListOnlineUserIDs())
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

type notifyRequest struct {
	RecipientID    string `json:"recipientId"`
	SenderID       string `json:"senderId"`
	ConversationID string `json:"conversationId"`
	Preview        string `json:"preview"`
}

// notifyHandler is the HTTP form of the notify-if-offline entry point, for
// message services that persist messages outside the socket path. The
// response reports the outcome for observability; callers must not gate
// message sending on it.
func (a *App) notifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if req.RecipientID == "" || req.SenderID == "" || req.ConversationID == "" {
		http.Error(w, "recipientId, senderId and conversationId are required", http.StatusBadRequest)
		return
	}

	sent := a.notifier.NotifyIfOffline(r.Context(), req.RecipientID, req.SenderID, req.ConversationID, req.Preview)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]bool{"sent": sent}); err != nil {
		a.logger.Error("Failed to write notify response", slog.Any("error", err))
	}
}
