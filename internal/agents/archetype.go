// Personality archetypes: templates that seed traits and bend survival thresholds.

package agents

// Archetype constants.
const (
	ArchWanderer    = "Wanderer"
	ArchForager     = "Forager"
	ArchBuilder     = "Builder"
	ArchStoryteller = "Storyteller"
	ArchScout       = "Scout"
	ArchHermit      = "Hermit"
	ArchThinker     = "Thinker"
)

// PersonalityTemplate defines how an archetype shapes a character.
type PersonalityTemplate struct {
	// TraitCenters are the means the spawner samples traits around.
	TraitCenters Traits

	// EatAt and DrinkAt are the hunger/thirst levels (0–100) at which the
	// character stops what it is doing to find food or water.
	EatAt   float64
	DrinkAt float64

	// RestAt is the energy level below which the character rests.
	RestAt float64

	// GatherBias adds to the per-tick chance of collecting wood in forests.
	GatherBias float64

	// Weight is the relative spawn frequency.
	Weight float64
}

var archetypeTemplates = map[string]PersonalityTemplate{
	ArchWanderer: {
		TraitCenters: Traits{TraitCuriosity: 0.6, TraitSociability: 0.5, TraitCourage: 0.5, TraitDiligence: 0.4, TraitCalm: 0.6},
		EatAt:        60,
		DrinkAt:      55,
		RestAt:       30,
		Weight:       3,
	},
	ArchForager: {
		TraitCenters: Traits{TraitCuriosity: 0.4, TraitSociability: 0.5, TraitCourage: 0.4, TraitDiligence: 0.7, TraitCalm: 0.5},
		EatAt:        45,
		DrinkAt:      45,
		RestAt:       30,
		Weight:       3,
	},
	ArchBuilder: {
		TraitCenters: Traits{TraitCuriosity: 0.4, TraitSociability: 0.5, TraitCourage: 0.6, TraitDiligence: 0.8, TraitCalm: 0.5},
		EatAt:        60,
		DrinkAt:      60,
		RestAt:       25,
		GatherBias:   0.1,
		Weight:       2,
	},
	ArchStoryteller: {
		TraitCenters: Traits{TraitCuriosity: 0.6, TraitSociability: 0.9, TraitCourage: 0.5, TraitDiligence: 0.3, TraitCalm: 0.6},
		EatAt:        60,
		DrinkAt:      60,
		RestAt:       35,
		Weight:       2,
	},
	ArchScout: {
		TraitCenters: Traits{TraitCuriosity: 0.7, TraitSociability: 0.4, TraitCourage: 0.9, TraitDiligence: 0.5, TraitCalm: 0.4},
		EatAt:        70,
		DrinkAt:      65,
		RestAt:       20,
		Weight:       1,
	},
	ArchHermit: {
		TraitCenters: Traits{TraitCuriosity: 0.5, TraitSociability: 0.1, TraitCourage: 0.5, TraitDiligence: 0.6, TraitCalm: 0.8},
		EatAt:        55,
		DrinkAt:      55,
		RestAt:       30,
		Weight:       1,
	},
	ArchThinker: {
		// Forgets to eat.
		TraitCenters: Traits{TraitCuriosity: 0.9, TraitSociability: 0.5, TraitCourage: 0.3, TraitDiligence: 0.4, TraitCalm: 0.7},
		EatAt:        75,
		DrinkAt:      70,
		RestAt:       25,
		Weight:       1,
	},
}

// archetypeOrder fixes iteration order so seeded spawns are reproducible.
var archetypeOrder = []string{
	ArchWanderer, ArchForager, ArchBuilder, ArchStoryteller, ArchScout, ArchHermit, ArchThinker,
}

// Template returns the personality template for an archetype, falling back
// to the wanderer for unknown names.
func Template(archetype string) PersonalityTemplate {
	if tmpl, ok := archetypeTemplates[archetype]; ok {
		return tmpl
	}
	return archetypeTemplates[ArchWanderer]
}

// Archetypes returns all archetype names in spawn order.
func Archetypes() []string {
	out := make([]string, len(archetypeOrder))
	copy(out, archetypeOrder)
	return out
}

// pickArchetype chooses an archetype by weight given a draw in [0,1).
func pickArchetype(u float64) string {
	total := 0.0
	for _, name := range archetypeOrder {
		total += archetypeTemplates[name].Weight
	}
	remaining := u * total
	for _, name := range archetypeOrder {
		remaining -= archetypeTemplates[name].Weight
		if remaining <= 0 {
			return name
		}
	}
	return archetypeOrder[len(archetypeOrder)-1]
}
