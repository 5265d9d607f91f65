package preset

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// MatchName reports whether query matches a fragment name, using
// case-folded substring matching. Preset authors mix scripts and
// casing freely in names, so folding beats ASCII lowercasing here.
func MatchName(query, name string) bool {
	if query == "" {
		return false
	}
	return strings.Contains(foldCaser.String(name), foldCaser.String(query))
}

// FindByName returns the first usable fragment whose name matches the
// query, or nil. Lookup by exact identifier wins over name matching.
// Placeholder markers are never returned; activating one as a style
// would select a fragment that can emit nothing.
func (p *Preset) FindByName(query string) *Fragment {
	if f := p.Fragment(query); f != nil && f.Usable() {
		return f
	}
	for i := range p.Fragments {
		if p.Fragments[i].Usable() && MatchName(query, p.Fragments[i].Name) {
			return &p.Fragments[i]
		}
	}
	return nil
}
