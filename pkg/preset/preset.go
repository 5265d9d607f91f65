package preset

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MainIdentifier is the identifier SillyTavern presets use for the
// main/identity prompt fragment.
const MainIdentifier = "main"

// Fragment is one reusable prompt block within a preset. Names are
// human-authored labels and follow no convention; identifiers are
// unique within a preset.
type Fragment struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	Marker     bool   `json:"marker,omitempty"` // structural placeholder, carries no content
}

// Usable reports whether the fragment can contribute text to an
// assembled prompt. Placeholder markers and empty fragments never do.
func (f Fragment) Usable() bool {
	return !f.Marker && strings.TrimSpace(f.Content) != ""
}

// Preset is a named bundle of fragments plus optional ordering
// metadata. Presets are replaced wholesale on re-import.
type Preset struct {
	Name        string       `json:"name"`
	Fragments   []Fragment   `json:"fragments"`
	OrderBlocks []OrderBlock `json:"order_blocks,omitempty"`
	ImportedAt  time.Time    `json:"imported_at,omitempty"`
}

// Fragment returns the fragment with the given identifier, or nil.
func (p *Preset) Fragment(identifier string) *Fragment {
	for i := range p.Fragments {
		if p.Fragments[i].Identifier == identifier {
			return &p.Fragments[i]
		}
	}
	return nil
}

// document mirrors the subset of a SillyTavern preset file that the
// engine consumes. Preset files carry many other generation settings;
// those are ignored.
type document struct {
	Name        string          `json:"name"`
	Prompts     []Fragment      `json:"prompts"`
	PromptOrder json.RawMessage `json:"prompt_order"`
}

// Parse reads a SillyTavern preset JSON document. The name argument is
// used when the document does not carry its own name (most preset
// exports do not).
//
// Only a top-level JSON failure is an error. A missing or malformed
// prompt_order structure is not: legacy presets declare no ordering at
// all, and assembly falls back to pattern matching for them.
func Parse(name string, data []byte) (*Preset, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse preset document: %w", err)
	}

	if doc.Name != "" {
		name = doc.Name
	}
	if name == "" {
		return nil, fmt.Errorf("preset has no name")
	}

	p := &Preset{
		Name:       name,
		Fragments:  doc.Prompts,
		ImportedAt: time.Now().UTC(),
	}

	// Any structural mismatch in prompt_order collapses to "no order
	// metadata" rather than an import failure.
	if len(doc.PromptOrder) > 0 {
		var blocks []OrderBlock
		if err := json.Unmarshal(doc.PromptOrder, &blocks); err == nil {
			p.OrderBlocks = blocks
		}
	}

	return p, nil
}
