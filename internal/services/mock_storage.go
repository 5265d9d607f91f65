package services

import (
	"context"
	"errors"

	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/history"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	presets   map[string]*preset.Preset
	histories map[string][]history.Record
	style     *preset.ActiveStyle
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		presets:   make(map[string]*preset.Preset),
		histories: make(map[string][]history.Record),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.pingError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SavePreset(ctx context.Context, p *preset.Preset) error {
	if p == nil || p.Name == "" {
		return errors.New("preset must have a name")
	}
	m.presets[p.Name] = p
	return nil
}

func (m *MockStorage) GetPreset(ctx context.Context, name string) (*preset.Preset, error) {
	p, exists := m.presets[name]
	if !exists {
		return nil, nil // Return nil for not found
	}
	return p, nil
}

func (m *MockStorage) ListPresets(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(m.presets))
	for name := range m.presets {
		names = append(names, name)
	}
	return names, nil
}

func (m *MockStorage) DeletePreset(ctx context.Context, name string) error {
	delete(m.presets, name)
	return nil
}

func (m *MockStorage) SetActiveStyle(ctx context.Context, style *preset.ActiveStyle) error {
	if style == nil {
		return errors.New("style cannot be nil")
	}
	m.style = style
	return nil
}

func (m *MockStorage) GetActiveStyle(ctx context.Context) (*preset.ActiveStyle, error) {
	return m.style, nil
}

func (m *MockStorage) ClearActiveStyle(ctx context.Context) error {
	m.style = nil
	return nil
}

func (m *MockStorage) AppendHistory(ctx context.Context, sessionID string, rec history.Record) error {
	if sessionID == "" {
		return errors.New("session id cannot be empty")
	}
	m.histories[sessionID] = append(m.histories[sessionID], rec)
	return nil
}

func (m *MockStorage) RecentHistory(ctx context.Context, sessionID string, limit int) ([]history.Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	records := m.histories[sessionID]
	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}
