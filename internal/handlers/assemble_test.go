package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saberlights/maimai-SillyTavern-plugin/internal/services"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/history"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

func seedPreset(t *testing.T, storage services.Storage) *preset.Preset {
	t.Helper()
	p := &preset.Preset{
		Name: "izumi",
		Fragments: []preset.Fragment{
			{Identifier: "main", Name: "Main Prompt", Content: "You are Izumi."},
			{Identifier: "guide1", Name: "写作指南", Content: "Short sentences."},
			{Identifier: "style1", Name: "Tone", Content: "Playful tone."},
			{Identifier: "chatHistory", Name: "Chat History", Marker: true},
		},
		OrderBlocks: []preset.OrderBlock{
			{CharacterID: preset.UserCharacterID, Order: []preset.OrderEntry{
				{Identifier: "main", Enabled: true},
				{Identifier: "guide1", Enabled: true},
			}},
		},
	}
	require.NoError(t, storage.SavePreset(context.Background(), p))
	return p
}

func doAssemble(t *testing.T, h *AssembleHandler, req AssembleRequest) (*httptest.ResponseRecorder, AssembleResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/assemble", bytes.NewReader(body)))

	var resp AssembleResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func newAssembleHandler(storage services.Storage) *AssembleHandler {
	return NewAssembleHandler(testLogger(), storage, nil, nil)
}

func TestAssembleHandler_Ordered(t *testing.T) {
	storage := services.NewMockStorage()
	seedPreset(t, storage)
	h := newAssembleHandler(storage)

	w, resp := doAssemble(t, h, AssembleRequest{
		PresetName: "izumi",
		BasePrompt: "BASE",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ordered", resp.Mode)
	assert.Equal(t, "You are Izumi.\n\nBASE\n\nShort sentences.", resp.Prompt)
	assert.Equal(t, 1, resp.Counts["main"])
	assert.Equal(t, 1, resp.Counts["guideline"])
}

func TestAssembleHandler_FallbackWhenNoOrder(t *testing.T) {
	storage := services.NewMockStorage()
	p := seedPreset(t, storage)
	p.OrderBlocks = nil
	require.NoError(t, storage.SavePreset(context.Background(), p))
	h := newAssembleHandler(storage)

	w, resp := doAssemble(t, h, AssembleRequest{
		PresetName:      "izumi",
		BasePrompt:      "BASE",
		StyleIdentifier: "style1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fallback", resp.Mode)
	assert.Equal(t, "You are Izumi.\n\nBASE\n\nShort sentences.\n\nPlayful tone.", resp.Prompt)
}

func TestAssembleHandler_ActiveStyleDefault(t *testing.T) {
	storage := services.NewMockStorage()
	seedPreset(t, storage)
	require.NoError(t, storage.SetActiveStyle(context.Background(), &preset.ActiveStyle{
		PresetName: "izumi",
		Identifier: "style1",
		Name:       "Tone",
	}))
	h := newAssembleHandler(storage)

	w, resp := doAssemble(t, h, AssembleRequest{
		PresetName: "izumi",
		BasePrompt: "BASE",
	})

	require.Equal(t, http.StatusOK, w.Code)
	// The ordered walk only emits fragments the user order names, so
	// the active style shows up in fallback assembly instead.
	assert.NotContains(t, resp.Prompt, "Playful tone.")

	p, err := storage.GetPreset(context.Background(), "izumi")
	require.NoError(t, err)
	p.OrderBlocks = nil
	require.NoError(t, storage.SavePreset(context.Background(), p))

	w, resp = doAssemble(t, h, AssembleRequest{
		PresetName: "izumi",
		BasePrompt: "BASE",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp.Prompt, "Playful tone.")
	assert.Equal(t, 1, resp.Counts["style"])
}

func TestAssembleHandler_Toggles(t *testing.T) {
	storage := services.NewMockStorage()
	seedPreset(t, storage)
	h := newAssembleHandler(storage)

	off := false
	w, resp := doAssemble(t, h, AssembleRequest{
		PresetName:        "izumi",
		BasePrompt:        "BASE",
		IncludeGuidelines: &off,
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "You are Izumi.\n\nBASE", resp.Prompt)
	assert.Zero(t, resp.Counts["guideline"])
}

func TestAssembleHandler_SessionHistory(t *testing.T) {
	storage := services.NewMockStorage()
	seedPreset(t, storage)
	require.NoError(t, storage.AppendHistory(context.Background(), "s1", history.Record{
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UserMessage: "hello",
		BotReply:    "hi there",
	}))
	h := newAssembleHandler(storage)

	w, resp := doAssemble(t, h, AssembleRequest{
		PresetName: "izumi",
		BasePrompt: "BASE",
		SessionID:  "s1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp.Prompt, "BASE\n\n[Recent exchanges]")
	assert.Contains(t, resp.Prompt, "hello")
}

func TestAssembleHandler_EmptyBaseNeverFails(t *testing.T) {
	storage := services.NewMockStorage()
	require.NoError(t, storage.SavePreset(context.Background(), &preset.Preset{
		Name: "bare",
		Fragments: []preset.Fragment{
			{Identifier: "chatHistory", Name: "Chat History", Marker: true},
		},
	}))
	h := newAssembleHandler(storage)

	w, resp := doAssemble(t, h, AssembleRequest{PresetName: "bare"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", resp.Prompt)
	assert.Equal(t, "fallback", resp.Mode)
}

func TestAssembleHandler_Errors(t *testing.T) {
	storage := services.NewMockStorage()
	h := newAssembleHandler(storage)

	w, _ := doAssemble(t, h, AssembleRequest{PresetName: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doAssemble(t, h, AssembleRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/assemble", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
