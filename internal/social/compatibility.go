package social

import (
	"math"

	"github.com/talgya/campfire/internal/agents"
)

// NeutralCompatibility is returned when two trait sets share no traits.
const NeutralCompatibility = 0.5

// Compatibility scores how alike two personalities are, in [0,1]: the mean
// of 1-|a-b| over the traits both sides have. Aliased trait names are
// compared under their canonical name. The score is symmetric.
func Compatibility(a, b agents.Traits) float64 {
	ca := a.Canonical()
	cb := b.Canonical()

	sum := 0.0
	shared := 0
	for name, va := range ca {
		vb, ok := cb[name]
		if !ok {
			continue
		}
		sum += 1 - math.Abs(va-vb)
		shared++
	}
	if shared == 0 {
		return NeutralCompatibility
	}
	return sum / float64(shared)
}
