package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/saberlights/maimai-SillyTavern-plugin/internal/services"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/history"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/prompts"
)

// AssembleRequest asks for a final prompt assembled from a stored
// preset. The include toggles default to true; StyleIdentifier
// defaults to the active style when unset.
type AssembleRequest struct {
	PresetName        string `json:"preset_name"`
	BasePrompt        string `json:"base_prompt"`
	SessionID         string `json:"session_id,omitempty"`
	HistoryLimit      *int   `json:"history_limit,omitempty"`
	IncludeMain       *bool  `json:"include_main,omitempty"`
	IncludeGuidelines *bool  `json:"include_guidelines,omitempty"`
	IncludeStyle      *bool  `json:"include_style,omitempty"`
	StyleIdentifier   string `json:"style_identifier,omitempty"`
}

type AssembleResponse struct {
	Prompt string         `json:"prompt"`
	Mode   string         `json:"mode"`
	Counts map[string]int `json:"counts"`
}

type AssembleHandler struct {
	log              *slog.Logger
	storage          services.Storage
	guidelineMarkers []string
	hostManagedIDs   []string
}

func NewAssembleHandler(log *slog.Logger, storage services.Storage, guidelineMarkers, hostManagedIDs []string) *AssembleHandler {
	return &AssembleHandler{
		log:              log,
		storage:          storage,
		guidelineMarkers: guidelineMarkers,
		hostManagedIDs:   hostManagedIDs,
	}
}

func (h *AssembleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AssembleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PresetName == "" {
		http.Error(w, "preset_name is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	p, err := h.storage.GetPreset(ctx, req.PresetName)
	if err != nil {
		h.log.Error("Failed to get preset", "preset", req.PresetName, "error", err)
		http.Error(w, "Failed to retrieve preset", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Preset not found", http.StatusNotFound)
		return
	}

	cfg := prompts.Config{
		IncludeMain:       boolOr(req.IncludeMain, true),
		IncludeGuidelines: boolOr(req.IncludeGuidelines, true),
		IncludeStyle:      boolOr(req.IncludeStyle, true),
		StyleIdentifier:   req.StyleIdentifier,
		GuidelineMarkers:  h.guidelineMarkers,
		HostManagedIDs:    h.hostManagedIDs,
	}

	if cfg.IncludeStyle && cfg.StyleIdentifier == "" {
		style, err := h.storage.GetActiveStyle(ctx)
		if err != nil {
			h.log.Error("Failed to get active style", "error", err)
			http.Error(w, "Failed to retrieve active style", http.StatusInternalServerError)
			return
		}
		if style != nil {
			cfg.StyleIdentifier = style.Identifier
		}
	}

	base := req.BasePrompt
	if req.SessionID != "" {
		limit := history.DefaultLimit
		if req.HistoryLimit != nil {
			limit = history.ClampLimit(*req.HistoryLimit)
		}
		if limit > 0 {
			records, err := h.storage.RecentHistory(ctx, req.SessionID, limit)
			if err != nil {
				h.log.Error("Failed to load session history", "session", req.SessionID, "error", err)
				http.Error(w, "Failed to load session history", http.StatusInternalServerError)
				return
			}
			block := history.ContextBlock(records)
			if base == "" {
				base = block
			} else {
				base += "\n\n" + block
			}
		}
	}

	result := prompts.New().
		WithPreset(p).
		WithBasePrompt(base).
		WithConfig(cfg).
		Build()

	counts := make(map[string]int, len(result.Counts))
	for role, n := range result.Counts {
		counts[role.String()] = n
	}

	h.log.Info("Prompt assembled",
		"preset", p.Name,
		"mode", result.Mode.String(),
		"counts", counts,
		"length", len(result.Prompt))

	writeJSON(w, http.StatusOK, AssembleResponse{
		Prompt: result.Prompt,
		Mode:   result.Mode.String(),
		Counts: counts,
	})
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
