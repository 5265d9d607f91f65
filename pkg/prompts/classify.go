package prompts

import (
	"strings"

	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

// Role is the functional role of a fragment within an assembled
// prompt. Classification never inspects fragment content, only the
// identifier and name.
type Role int

const (
	RoleOther Role = iota // generic rule, rides on the guidelines toggle
	RoleMain              // identity/system prompt
	RoleGuideline         // writing guidelines or forbidden-word lists
	RoleStyle             // the currently active writing style
	RoleHostManaged       // content the host application manages natively
)

func (r Role) String() string {
	switch r {
	case RoleMain:
		return "main"
	case RoleGuideline:
		return "guideline"
	case RoleStyle:
		return "style"
	case RoleHostManaged:
		return "host_managed"
	default:
		return "other"
	}
}

// DefaultHostManagedIDs lists the SillyTavern marker identifiers whose
// content the host already injects natively. Re-emitting them would
// duplicate or conflict with host-owned context, so they are excluded
// from assembly regardless of enablement.
var DefaultHostManagedIDs = []string{
	"chatHistory",
	"dialogueExamples",
	"worldInfoBefore",
	"worldInfoAfter",
	"charDescription",
	"charPersonality",
	"scenario",
	"personaDescription",
	"jailbreak",
	"nsfw",
	"enhanceDefinitions",
}

// DefaultGuidelineMarkers is the vocabulary of name substrings that
// mark a fragment as guideline or forbidden-word content. Matching is
// case-sensitive; deployments override the set for the scripts their
// preset authors use.
var DefaultGuidelineMarkers = []string{
	"指南",
	"禁词",
	"Guidelines",
	"Forbidden Words",
}

// Config carries the caller-supplied assembly toggles plus the
// deployment vocabulary. Zero values for the vocabulary fields select
// the defaults above.
type Config struct {
	IncludeMain       bool
	IncludeGuidelines bool
	IncludeStyle      bool

	// StyleIdentifier names the fragment acting as the active style.
	// Empty means no style is active.
	StyleIdentifier string

	GuidelineMarkers []string
	HostManagedIDs   []string
}

func (c Config) guidelineMarkers() []string {
	if c.GuidelineMarkers != nil {
		return c.GuidelineMarkers
	}
	return DefaultGuidelineMarkers
}

func (c Config) hostManaged(identifier string) bool {
	ids := c.HostManagedIDs
	if ids == nil {
		ids = DefaultHostManagedIDs
	}
	for _, id := range ids {
		if identifier == id {
			return true
		}
	}
	return false
}

// Classify decides the functional role of a fragment. First match
// wins: main identifier, host-managed set, guideline vocabulary on the
// name, active style identifier, then generic.
func Classify(f preset.Fragment, cfg Config) Role {
	if f.Identifier == preset.MainIdentifier {
		return RoleMain
	}
	if cfg.hostManaged(f.Identifier) {
		return RoleHostManaged
	}
	for _, marker := range cfg.guidelineMarkers() {
		if marker != "" && strings.Contains(f.Name, marker) {
			return RoleGuideline
		}
	}
	if cfg.StyleIdentifier != "" && f.Identifier == cfg.StyleIdentifier {
		return RoleStyle
	}
	return RoleOther
}
