package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saberlights/maimai-SillyTavern-plugin/internal/services"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

func TestStyleHandler_Lifecycle(t *testing.T) {
	storage := services.NewMockStorage()
	seedPreset(t, storage)
	handler := NewStyleHandler(testLogger(), storage)

	// Nothing active yet.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/style", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Activate by name substring.
	w = httptest.NewRecorder()
	body := `{"preset_name": "izumi", "query": "Tone"}`
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/v1/style", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var style preset.ActiveStyle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &style))
	assert.Equal(t, "izumi", style.PresetName)
	assert.Equal(t, "style1", style.Identifier)
	assert.False(t, style.ActivatedAt.IsZero())

	// Readable while active.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/style", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Clear.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/style", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/style", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStyleHandler_ActivateByIdentifier(t *testing.T) {
	storage := services.NewMockStorage()
	seedPreset(t, storage)
	handler := NewStyleHandler(testLogger(), storage)

	w := httptest.NewRecorder()
	body := `{"preset_name": "izumi", "query": "guide1"}`
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/v1/style", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var style preset.ActiveStyle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &style))
	assert.Equal(t, "guide1", style.Identifier)
	assert.Equal(t, "写作指南", style.Name)
}

func TestStyleHandler_ActivateErrors(t *testing.T) {
	storage := services.NewMockStorage()
	seedPreset(t, storage)
	handler := NewStyleHandler(testLogger(), storage)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing preset", `{"preset_name": "ghost", "query": "Tone"}`, http.StatusNotFound},
		{"no match", `{"preset_name": "izumi", "query": "nonexistent"}`, http.StatusNotFound},
		{"empty query", `{"preset_name": "izumi"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/v1/style", strings.NewReader(tc.body)))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
