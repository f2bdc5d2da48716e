package social_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/entropy"
	"github.com/talgya/campfire/internal/social"
)

func TestCompatibilitySymmetric(t *testing.T) {
	rng := entropy.NewSeeded(3)
	names := []string{agents.TraitCuriosity, agents.TraitSociability, agents.TraitCourage, agents.TraitCalm, "stubborn"}

	for i := 0; i < 200; i++ {
		a, b := agents.Traits{}, agents.Traits{}
		for _, n := range names {
			if rng.Float64() < 0.7 {
				a[n] = rng.Float64()
			}
			if rng.Float64() < 0.7 {
				b[n] = rng.Float64()
			}
		}
		ab := social.Compatibility(a, b)
		assert.Equal(t, ab, social.Compatibility(b, a))
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 1.0)
		if len(a) > 0 {
			assert.InDelta(t, 1.0, social.Compatibility(a, a), 1e-12)
		}
	}
}

func TestCompatibilityMeanOverSharedTraits(t *testing.T) {
	a := agents.Traits{agents.TraitCuriosity: 0.9, agents.TraitCourage: 0.2, "only_a": 1}
	b := agents.Traits{agents.TraitCuriosity: 0.5, agents.TraitCourage: 0.2, "only_b": 0}

	// (1-0.4 + 1-0) / 2
	assert.InDelta(t, 0.8, social.Compatibility(a, b), 1e-9)
}

func TestCompatibilityNoSharedTraits(t *testing.T) {
	assert.Equal(t, social.NeutralCompatibility, social.Compatibility(agents.Traits{"x": 1}, agents.Traits{"y": 0}))
	assert.Equal(t, social.NeutralCompatibility, social.Compatibility(nil, nil))
}

func TestCompatibilityComparesAliases(t *testing.T) {
	a := agents.Traits{"sozial": 0.8}
	b := agents.Traits{agents.TraitSociability: 0.8}
	assert.Equal(t, 1.0, social.Compatibility(a, b))
}
