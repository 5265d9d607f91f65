package services

import (
	"context"

	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/history"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Storage defines the interface for preset, style and history
// persistence. The assembly engine only reads through this interface;
// writes happen on import and style activation.
type Storage interface {
	HealthChecker
	Closer

	// SavePreset stores a preset, replacing any prior version wholesale
	SavePreset(ctx context.Context, p *preset.Preset) error

	// GetPreset retrieves a preset by name
	// Returns nil if the preset doesn't exist
	GetPreset(ctx context.Context, name string) (*preset.Preset, error)

	// ListPresets returns the names of all stored presets
	ListPresets(ctx context.Context) ([]string, error)

	// DeletePreset removes a preset by name
	DeletePreset(ctx context.Context, name string) error

	// SetActiveStyle records which fragment acts as the active style
	SetActiveStyle(ctx context.Context, style *preset.ActiveStyle) error

	// GetActiveStyle returns the active style, or nil when none is set
	GetActiveStyle(ctx context.Context) (*preset.ActiveStyle, error)

	// ClearActiveStyle removes the active style
	ClearActiveStyle(ctx context.Context) error

	// AppendHistory appends one exchange to a session's history
	AppendHistory(ctx context.Context, sessionID string, rec history.Record) error

	// RecentHistory returns up to limit most recent exchanges for a
	// session, oldest first
	RecentHistory(ctx context.Context, sessionID string, limit int) ([]history.Record, error)
}
