package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

// AssembleRequest mirrors the API's assemble payload.
type AssembleRequest struct {
	PresetName        string `json:"preset_name"`
	BasePrompt        string `json:"base_prompt"`
	IncludeMain       *bool  `json:"include_main,omitempty"`
	IncludeGuidelines *bool  `json:"include_guidelines,omitempty"`
	IncludeStyle      *bool  `json:"include_style,omitempty"`
}

type AssembleResponse struct {
	Prompt string         `json:"prompt"`
	Mode   string         `json:"mode"`
	Counts map[string]int `json:"counts"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func listPresets(client *http.Client, baseURL string) ([]string, error) {
	resp, err := client.Get(baseURL + "/v1/presets")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var names []string
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func getPreset(client *http.Client, baseURL, name string) (*preset.Preset, error) {
	resp, err := client.Get(baseURL + "/v1/presets/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var p preset.Preset
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to parse preset response: %w", err)
	}
	return &p, nil
}

func getActiveStyle(client *http.Client, baseURL string) (*preset.ActiveStyle, error) {
	resp, err := client.Get(baseURL + "/v1/style")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var style preset.ActiveStyle
	if err := json.NewDecoder(resp.Body).Decode(&style); err != nil {
		return nil, fmt.Errorf("failed to parse style response: %w", err)
	}
	return &style, nil
}

func assemblePrompt(client *http.Client, baseURL string, req AssembleRequest) (*AssembleResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/assemble",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("assemble request failed: %s", errorResp.Error)
	}

	var assembled AssembleResponse
	if err := json.Unmarshal(body, &assembled); err != nil {
		return nil, fmt.Errorf("failed to parse assemble response: %w", err)
	}
	return &assembled, nil
}
