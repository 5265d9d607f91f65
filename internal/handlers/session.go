package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/saberlights/maimai-SillyTavern-plugin/internal/services"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/history"
)

// SessionHandler records and exposes per-session exchange history at
// /v1/sessions/{id}/history.
type SessionHandler struct {
	log     *slog.Logger
	storage services.Storage
}

func NewSessionHandler(log *slog.Logger, storage services.Storage) *SessionHandler {
	return &SessionHandler{
		log:     log,
		storage: storage,
	}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionPath(r.URL.Path)
	if !ok {
		http.Error(w, "Expected /v1/sessions/{id}/history", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.handleAppend(w, r, sessionID)
	case http.MethodGet:
		h.handleRecent(w, r, sessionID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func sessionPath(path string) (string, bool) {
	rest := strings.TrimPrefix(path, "/v1/sessions/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "history" {
		return "", false
	}
	return parts[0], true
}

func (h *SessionHandler) handleAppend(w http.ResponseWriter, r *http.Request, sessionID string) {
	var rec history.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if rec.UserMessage == "" && rec.BotReply == "" {
		http.Error(w, "Record must carry a user message or a bot reply", http.StatusBadRequest)
		return
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	if err := h.storage.AppendHistory(r.Context(), sessionID, rec); err != nil {
		h.log.Error("Failed to append history", "session", sessionID, "error", err)
		http.Error(w, "Failed to record history", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *SessionHandler) handleRecent(w http.ResponseWriter, r *http.Request, sessionID string) {
	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = history.ClampLimit(n)
	}

	records, err := h.storage.RecentHistory(r.Context(), sessionID, limit)
	if err != nil {
		h.log.Error("Failed to load history", "session", sessionID, "error", err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}
