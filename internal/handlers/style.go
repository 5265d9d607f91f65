package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saberlights/maimai-SillyTavern-plugin/internal/services"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

// ActivateStyleRequest selects a fragment to act as the writing style.
// Query matches an exact fragment identifier first, then a case-folded
// substring of fragment names.
type ActivateStyleRequest struct {
	PresetName string `json:"preset_name"`
	Query      string `json:"query"`
}

type StyleHandler struct {
	log     *slog.Logger
	storage services.Storage
}

func NewStyleHandler(log *slog.Logger, storage services.Storage) *StyleHandler {
	return &StyleHandler{
		log:     log,
		storage: storage,
	}
}

func (h *StyleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPut:
		h.handleActivate(w, r)
	case http.MethodDelete:
		h.handleClear(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *StyleHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	style, err := h.storage.GetActiveStyle(r.Context())
	if err != nil {
		h.log.Error("Failed to get active style", "error", err)
		http.Error(w, "Failed to retrieve active style", http.StatusInternalServerError)
		return
	}
	if style == nil {
		http.Error(w, "No active style", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, style)
}

func (h *StyleHandler) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req ActivateStyleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PresetName == "" || req.Query == "" {
		http.Error(w, "preset_name and query are required", http.StatusBadRequest)
		return
	}

	p, err := h.storage.GetPreset(r.Context(), req.PresetName)
	if err != nil {
		h.log.Error("Failed to get preset", "preset", req.PresetName, "error", err)
		http.Error(w, "Failed to retrieve preset", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Preset not found", http.StatusNotFound)
		return
	}

	f := p.FindByName(req.Query)
	if f == nil {
		http.Error(w, "No fragment matches the query", http.StatusNotFound)
		return
	}

	style := &preset.ActiveStyle{
		PresetName:  p.Name,
		Identifier:  f.Identifier,
		Name:        f.Name,
		ActivatedAt: time.Now().UTC(),
	}
	if err := h.storage.SetActiveStyle(r.Context(), style); err != nil {
		h.log.Error("Failed to set active style", "identifier", f.Identifier, "error", err)
		http.Error(w, "Failed to activate style", http.StatusInternalServerError)
		return
	}

	h.log.Info("Style activated", "preset", p.Name, "identifier", f.Identifier, "name", f.Name)
	writeJSON(w, http.StatusOK, style)
}

func (h *StyleHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.ClearActiveStyle(r.Context()); err != nil {
		h.log.Error("Failed to clear active style", "error", err)
		http.Error(w, "Failed to clear active style", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
