package preset

// SillyTavern scopes prompt_order blocks by a numeric character id.
// Block 100000 holds the shipped defaults; block 100001 holds the
// user's customized ordering. Only the user block is consumed.
const (
	DefaultCharacterID = 100000
	UserCharacterID    = 100001
)

// OrderEntry references a fragment by identifier and records whether
// the user left it enabled.
type OrderEntry struct {
	Identifier string `json:"identifier"`
	Enabled    bool   `json:"enabled"`
}

// OrderBlock is one scoped ordering list within a preset's
// prompt_order metadata.
type OrderBlock struct {
	CharacterID int64        `json:"character_id"`
	Order       []OrderEntry `json:"order"`
}

// ExtractOrder locates the user-customized order block and returns its
// entries in declared order. The second return value reports whether
// order metadata resolved at all; callers fall back to pattern
// matching when it did not.
func ExtractOrder(blocks []OrderBlock) ([]OrderEntry, bool) {
	for _, b := range blocks {
		if b.CharacterID == UserCharacterID {
			return b.Order, true
		}
	}
	return nil, false
}
