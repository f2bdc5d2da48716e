// Package agents provides the character data model, the need evaluator,
// personality traits, and the survival behavior that drives vitals.
package agents

import (
	"github.com/talgya/campfire/internal/world"
)

// CharacterID is a unique identifier for a character.
type CharacterID uint64

// Character is a simulated person. The world simulation owns every field
// except the display hints, which the social system writes and never reads.
type Character struct {
	ID   CharacterID `json:"id"`
	Name string      `json:"name"`

	// Location
	Position world.Point `json:"position"`

	// Vitals on a 0–100 scale. Hunger and thirst grow, energy drains.
	Hunger float64 `json:"hunger"`
	Thirst float64 `json:"thirst"`
	Energy float64 `json:"energy"`

	// Personality, trait name → value in [0,1].
	Traits    Traits     `json:"traits"`
	Archetype string     `json:"archetype,omitempty"`
	Inventory *Inventory `json:"inventory,omitempty"`

	// Display hints for the rendering layer.
	Thoughts string `json:"thoughts,omitempty"` // Fallback when the speech bubble cannot be shown
	Bubble   string `json:"bubble,omitempty"`   // Current speech bubble text

	// Memory stream of notable experiences.
	Memories []Memory `json:"memories,omitempty"`

	// Metadata
	BornTick uint64 `json:"born_tick"`
	Alive    bool   `json:"alive"`
}

// Inventory holds the few goods a survivor carries.
type Inventory struct {
	Wood  int `json:"wood"`
	Food  int `json:"food"`
	Water int `json:"water"`
}

// WoodCount returns the carried wood, treating a missing inventory as empty.
func (c *Character) WoodCount() int {
	if c == nil || c.Inventory == nil {
		return 0
	}
	return c.Inventory.Wood
}

// Trait returns a personality trait, defaulting to neutral when absent.
func (c *Character) Trait(name string) float64 {
	if c == nil {
		return NeutralTrait
	}
	return c.Traits.Get(name)
}

// Present reports whether the character still exists in the world.
func (c *Character) Present() bool {
	return c != nil && c.Alive
}

// ShowBubble sets the speech bubble hint.
func (c *Character) ShowBubble(text string) {
	if c != nil {
		c.Bubble = text
	}
}

// Think sets the thoughts hint.
func (c *Character) Think(text string) {
	if c != nil {
		c.Thoughts = text
	}
}
