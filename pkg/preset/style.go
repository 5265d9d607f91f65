package preset

import "time"

// ActiveStyle records which fragment currently acts as the writing
// style. At most one style is active per deployment; activating a new
// one replaces the old.
type ActiveStyle struct {
	PresetName  string    `json:"preset_name"`
	Identifier  string    `json:"identifier"`
	Name        string    `json:"name"`
	ActivatedAt time.Time `json:"activated_at"`
}
