package prompts

import (
	"strings"

	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

// part is one emitted block of the assembled prompt, tagged with the
// role that admitted it. The tag lets the coordinator insert the base
// prompt relative to the main part without counting indices.
type part struct {
	role    Role
	content string
}

// include applies the per-role emission policy. Generic rules ride on
// the guidelines toggle: they are additional quality-control content,
// not a separate user-facing category.
func include(role Role, cfg Config) bool {
	switch role {
	case RoleMain:
		return cfg.IncludeMain
	case RoleGuideline, RoleOther:
		return cfg.IncludeGuidelines
	case RoleStyle:
		return cfg.IncludeStyle
	default: // RoleHostManaged
		return false
	}
}

// assembleOrdered emits fragments in the order the preset's user block
// declares. Disabled entries, dangling identifiers, placeholders and
// empty fragments are skipped silently. An empty result means the
// order block resolved to nothing usable, which callers treat the same
// as absent order metadata.
func assembleOrdered(entries []preset.OrderEntry, fragments []preset.Fragment, cfg Config) []part {
	byID := make(map[string]preset.Fragment, len(fragments))
	for _, f := range fragments {
		byID[f.Identifier] = f
	}

	var parts []part
	for _, e := range entries {
		if !e.Enabled {
			continue
		}
		f, ok := byID[e.Identifier]
		if !ok || !f.Usable() {
			continue
		}
		role := Classify(f, cfg)
		if !include(role, cfg) {
			continue
		}
		parts = append(parts, part{role: role, content: strings.TrimSpace(f.Content)})
	}
	return parts
}

// assembleFallback recovers prompts from presets that declare no
// ordering: at most one main fragment, every guideline fragment in
// store order, and the active style fragment, in that fixed order.
// Generic fragments are not discoverable here; the fallback recovers
// strictly less than ordered assembly does.
func assembleFallback(fragments []preset.Fragment, cfg Config) []part {
	var main *part
	var guidelines []part
	var style *part

	for _, f := range fragments {
		if !f.Usable() {
			continue
		}
		switch Classify(f, cfg) {
		case RoleMain:
			if main == nil {
				main = &part{role: RoleMain, content: strings.TrimSpace(f.Content)}
			}
		case RoleGuideline:
			guidelines = append(guidelines, part{role: RoleGuideline, content: strings.TrimSpace(f.Content)})
		case RoleStyle:
			if style == nil {
				style = &part{role: RoleStyle, content: strings.TrimSpace(f.Content)}
			}
		}
	}

	var parts []part
	if main != nil && cfg.IncludeMain {
		parts = append(parts, *main)
	}
	if cfg.IncludeGuidelines {
		parts = append(parts, guidelines...)
	}
	if style != nil && cfg.IncludeStyle {
		parts = append(parts, *style)
	}
	return parts
}
