package prompts

import (
	"strings"

	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

// Mode identifies which assembly strategy produced a result.
type Mode int

const (
	// ModeOrdered follows the preset's user-customized order block.
	ModeOrdered Mode = iota + 1
	// ModeFallback recovers a canonical subset by name and identifier
	// heuristics when no usable order metadata exists.
	ModeFallback
)

func (m Mode) String() string {
	if m == ModeOrdered {
		return "ordered"
	}
	return "fallback"
}

// Result is an assembled prompt plus diagnostics about how it was
// built. The diagnostics are informational only; Prompt is the
// product.
type Result struct {
	Prompt string
	Mode   Mode
	Counts map[Role]int
}

// Builder assembles a final prompt string from a preset's fragments,
// its order metadata, and a caller-supplied base prompt, using a
// fluent interface.
//
// Assembly is total: malformed or absent order metadata degrades to
// fallback matching, and a preset that yields nothing still produces a
// valid result consisting of just the base prompt.
type Builder struct {
	fragments   []preset.Fragment
	orderBlocks []preset.OrderBlock
	basePrompt  string
	cfg         Config
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		cfg: Config{
			IncludeMain:       true,
			IncludeGuidelines: true,
			IncludeStyle:      true,
		},
	}
}

// WithPreset sets both the fragment collection and the order metadata
// from a loaded preset.
func (b *Builder) WithPreset(p *preset.Preset) *Builder {
	if p != nil {
		b.fragments = p.Fragments
		b.orderBlocks = p.OrderBlocks
	}
	return b
}

// WithFragments sets the fragment collection directly.
func (b *Builder) WithFragments(fragments []preset.Fragment) *Builder {
	b.fragments = fragments
	return b
}

// WithOrderBlocks sets the raw order metadata directly.
func (b *Builder) WithOrderBlocks(blocks []preset.OrderBlock) *Builder {
	b.orderBlocks = blocks
	return b
}

// WithBasePrompt sets the externally supplied scenario/context text.
// The engine treats it as opaque.
func (b *Builder) WithBasePrompt(basePrompt string) *Builder {
	b.basePrompt = basePrompt
	return b
}

// WithConfig sets the assembly toggles and vocabulary.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// Build assembles the final prompt. Ordered assembly is preferred; the
// fallback fires when order metadata is absent, malformed, or resolves
// to zero usable fragments.
func (b *Builder) Build() Result {
	mode := ModeFallback
	var parts []part

	if entries, ok := preset.ExtractOrder(b.orderBlocks); ok {
		if ordered := assembleOrdered(entries, b.fragments, b.cfg); len(ordered) > 0 {
			parts = ordered
			mode = ModeOrdered
		}
	}
	if mode == ModeFallback {
		parts = assembleFallback(b.fragments, b.cfg)
	}

	counts := make(map[Role]int, len(parts))
	for _, p := range parts {
		counts[p.role]++
	}

	return Result{
		Prompt: render(insertBase(parts, b.basePrompt)),
		Mode:   mode,
		Counts: counts,
	}
}

// insertBase places the base prompt immediately after the last main
// part, or at the very start when no main part was emitted.
func insertBase(parts []part, basePrompt string) []part {
	if basePrompt == "" {
		return parts
	}
	base := part{content: basePrompt}
	at := 0
	for i, p := range parts {
		if p.role == RoleMain {
			at = i + 1
		}
	}
	out := make([]part, 0, len(parts)+1)
	out = append(out, parts[:at]...)
	out = append(out, base)
	out = append(out, parts[at:]...)
	return out
}

// render joins part contents with a blank line.
func render(parts []part) string {
	contents := make([]string, len(parts))
	for i, p := range parts {
		contents[i] = p.content
	}
	return strings.Join(contents, "\n\n")
}
