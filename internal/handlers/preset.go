package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/saberlights/maimai-SillyTavern-plugin/internal/services"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

// maxPresetBytes bounds import payloads; preset exports are small.
const maxPresetBytes = 4 << 20

// ImportReceipt summarizes a completed preset import.
type ImportReceipt struct {
	ImportID     string `json:"import_id"`
	Name         string `json:"name"`
	Fragments    int    `json:"fragments"`
	Placeholders int    `json:"placeholders"`
	HasUserOrder bool   `json:"has_user_order"`
}

type PresetHandler struct {
	log     *slog.Logger
	storage services.Storage
}

func NewPresetHandler(log *slog.Logger, storage services.Storage) *PresetHandler {
	return &PresetHandler{
		log:     log,
		storage: storage,
	}
}

func (h *PresetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := presetName(r.URL.Path)

	switch {
	case r.Method == http.MethodGet && name == "":
		h.handleList(w, r)
	case r.Method == http.MethodGet:
		h.handleGet(w, r, name)
	case r.Method == http.MethodPost && name != "":
		h.handleImport(w, r, name)
	case r.Method == http.MethodDelete && name != "":
		h.handleDelete(w, r, name)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func presetName(path string) string {
	name := strings.TrimPrefix(path, "/v1/presets")
	name = strings.Trim(name, "/")
	return name
}

func (h *PresetHandler) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := h.storage.ListPresets(r.Context())
	if err != nil {
		h.log.Error("Failed to list presets", "error", err)
		http.Error(w, "Failed to list presets", http.StatusInternalServerError)
		return
	}
	sort.Strings(names)
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *PresetHandler) handleGet(w http.ResponseWriter, r *http.Request, name string) {
	p, err := h.storage.GetPreset(r.Context(), name)
	if err != nil {
		h.log.Error("Failed to get preset", "preset", name, "error", err)
		http.Error(w, "Failed to retrieve preset", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Preset not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleImport accepts a raw SillyTavern preset document and replaces
// any stored preset of the same name wholesale.
func (h *PresetHandler) handleImport(w http.ResponseWriter, r *http.Request, name string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPresetBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	p, err := preset.Parse(name, body)
	if err != nil {
		h.log.Warn("Rejected preset import", "preset", name, "error", err)
		http.Error(w, "Invalid preset document: "+err.Error(), http.StatusBadRequest)
		return
	}
	// The URL path names the stored preset even when the document
	// carries its own display name.
	p.Name = name

	if err := h.storage.SavePreset(r.Context(), p); err != nil {
		h.log.Error("Failed to save preset", "preset", name, "error", err)
		http.Error(w, "Failed to save preset", http.StatusInternalServerError)
		return
	}

	placeholders := 0
	for _, f := range p.Fragments {
		if f.Marker {
			placeholders++
		}
	}
	_, hasUserOrder := preset.ExtractOrder(p.OrderBlocks)

	receipt := ImportReceipt{
		ImportID:     uuid.New().String(),
		Name:         p.Name,
		Fragments:    len(p.Fragments),
		Placeholders: placeholders,
		HasUserOrder: hasUserOrder,
	}
	h.log.Info("Preset imported",
		"preset", p.Name,
		"import_id", receipt.ImportID,
		"fragments", receipt.Fragments,
		"has_user_order", receipt.HasUserOrder)

	writeJSON(w, http.StatusCreated, receipt)
}

func (h *PresetHandler) handleDelete(w http.ResponseWriter, r *http.Request, name string) {
	p, err := h.storage.GetPreset(r.Context(), name)
	if err != nil {
		h.log.Error("Failed to get preset", "preset", name, "error", err)
		http.Error(w, "Failed to retrieve preset", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Preset not found", http.StatusNotFound)
		return
	}

	if err := h.storage.DeletePreset(r.Context(), name); err != nil {
		h.log.Error("Failed to delete preset", "preset", name, "error", err)
		http.Error(w, "Failed to delete preset", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
