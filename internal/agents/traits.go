package agents

// Canonical trait names.
const (
	TraitCuriosity   = "curiosity"
	TraitSociability = "sociability"
	TraitCourage     = "courage"
	TraitDiligence   = "diligence"
	TraitCalm        = "calm"
)

// NeutralTrait is used for any trait a character does not have.
const NeutralTrait = 0.5

// traitAliases maps legacy save-file keys onto canonical trait names.
// Order matters when a character carries more than one alias of a trait.
var traitAliases = []struct{ alias, canon string }{
	{"neugier", TraitCuriosity},
	{"curious", TraitCuriosity},
	{"sozial", TraitSociability},
	{"social", TraitSociability},
	{"mut", TraitCourage},
	{"brave", TraitCourage},
	{"fleiss", TraitDiligence},
	{"ruhe", TraitCalm},
	{"gelassen", TraitCalm},
}

// Traits maps trait names to values in [0,1].
type Traits map[string]float64

// CanonicalTraitName resolves aliases to the canonical trait name.
func CanonicalTraitName(name string) string {
	for _, a := range traitAliases {
		if a.alias == name {
			return a.canon
		}
	}
	return name
}

// Lookup returns a trait by canonical name or any of its aliases.
func (t Traits) Lookup(name string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	canon := CanonicalTraitName(name)
	if v, ok := t[canon]; ok {
		return clamp01(v), true
	}
	for _, a := range traitAliases {
		if a.canon != canon {
			continue
		}
		if v, ok := t[a.alias]; ok {
			return clamp01(v), true
		}
	}
	return 0, false
}

// Get returns a trait or NeutralTrait when it is missing.
func (t Traits) Get(name string) float64 {
	if v, ok := t.Lookup(name); ok {
		return v
	}
	return NeutralTrait
}

// Canonical returns a copy keyed by canonical names. A canonical key takes
// precedence over its aliases.
func (t Traits) Canonical() Traits {
	out := make(Traits, len(t))
	for name := range t {
		canon := CanonicalTraitName(name)
		if _, done := out[canon]; done {
			continue
		}
		out[canon], _ = t.Lookup(canon)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
