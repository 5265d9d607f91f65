package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/prompts"
	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/textfilter"
)

// forbiddenWordMarkers flag the fragments whose content is a word
// list rather than prose.
var forbiddenWordMarkers = []string{"禁词", "Forbidden Words"}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <preset.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &PresetValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range validator.warnings {
		fmt.Println(w)
	}
	fmt.Println("Preset file is valid!")
}

type PresetValidator struct {
	errors   []string
	warnings []string
}

func (v *PresetValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("preset file must have .json extension: %s", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil
	v.warnings = nil

	name := strings.TrimSuffix(baseName, ".json")
	p, err := preset.Parse(name, data)
	if err != nil {
		return fmt.Errorf("file %s is not a preset document: %w", filename, err)
	}

	v.validatePreset(p)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	v.report(p)
	return nil
}

func (v *PresetValidator) validatePreset(p *preset.Preset) {
	seen := make(map[string]bool, len(p.Fragments))
	for _, f := range p.Fragments {
		if f.Identifier == "" {
			v.addError(fmt.Sprintf("fragment '%s' has an empty identifier", f.Name))
			continue
		}
		if seen[f.Identifier] {
			v.addError(fmt.Sprintf("duplicate fragment identifier '%s'", f.Identifier))
		}
		seen[f.Identifier] = true
	}

	entries, ok := preset.ExtractOrder(p.OrderBlocks)
	if !ok {
		v.addWarning("no user-customized prompt order block (character_id 100001); assembly will fall back to pattern matching")
	} else {
		for _, e := range entries {
			if !seen[e.Identifier] {
				v.addWarning(fmt.Sprintf("order entry '%s' names no fragment in this preset", e.Identifier))
			}
		}
	}

	v.checkForbiddenWords(p)
}

// checkForbiddenWords cross-checks forbidden-word list fragments
// against the prose fragments of the same preset. A preset that bans a
// word its own main prompt uses is almost certainly an authoring
// mistake.
func (v *PresetValidator) checkForbiddenWords(p *preset.Preset) {
	var words []string
	listIDs := make(map[string]bool)
	for _, f := range p.Fragments {
		for _, marker := range forbiddenWordMarkers {
			if strings.Contains(f.Name, marker) {
				words = append(words, textfilter.ParseWordList(f.Content)...)
				listIDs[f.Identifier] = true
				break
			}
		}
	}
	if len(words) == 0 {
		return
	}

	scanner := textfilter.NewScanner(words)
	for _, f := range p.Fragments {
		if listIDs[f.Identifier] || !f.Usable() {
			continue
		}
		if hits := scanner.Matches(f.Content); len(hits) > 0 {
			v.addWarning(fmt.Sprintf("fragment '%s' uses forbidden words: %s", f.Identifier, strings.Join(hits, ", ")))
		}
	}
}

func (v *PresetValidator) report(p *preset.Preset) {
	cfg := prompts.Config{IncludeMain: true, IncludeGuidelines: true, IncludeStyle: true}
	counts := make(map[prompts.Role]int)
	placeholders := 0
	for _, f := range p.Fragments {
		if f.Marker {
			placeholders++
			continue
		}
		counts[prompts.Classify(f, cfg)]++
	}

	fmt.Printf("Preset %q: %d fragments (%d placeholders)\n", p.Name, len(p.Fragments), placeholders)
	for _, role := range []prompts.Role{prompts.RoleMain, prompts.RoleGuideline, prompts.RoleHostManaged, prompts.RoleOther} {
		if n := counts[role]; n > 0 {
			fmt.Printf("  %s: %d\n", role, n)
		}
	}
}

func (v *PresetValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *PresetValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "warning: "+msg)
}
