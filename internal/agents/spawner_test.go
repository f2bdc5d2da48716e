package agents_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/world"
)

func TestSpawnPopulationDeterministic(t *testing.T) {
	m := world.Generate(world.SmallTestConfig())

	a := agents.NewSpawner(7).SpawnPopulation(20, m)
	b := agents.NewSpawner(7).SpawnPopulation(20, m)
	require.Len(t, a, 20)

	names := make(map[string]bool)
	for i := range a {
		assert.Equal(t, a[i].Name, b[i].Name)
		assert.Equal(t, a[i].Traits, b[i].Traits)
		assert.Equal(t, a[i].Position, b[i].Position)
		assert.True(t, a[i].Alive)
		assert.False(t, names[a[i].Name], "duplicate name %s", a[i].Name)
		names[a[i].Name] = true

		for name, v := range a[i].Traits {
			assert.GreaterOrEqual(t, v, 0.0, name)
			assert.LessOrEqual(t, v, 1.0, name)
		}
		assert.LessOrEqual(t, a[i].Position.X, m.Width)
		assert.LessOrEqual(t, a[i].Position.Y, m.Height)
	}
}

func TestSpawnerNamesStayUniqueWhenPoolsExhaust(t *testing.T) {
	s := agents.NewSpawner(1)
	names := make(map[string]bool)
	for i := 0; i < 700; i++ {
		c := s.SpawnAt(world.Point{})
		require.False(t, names[c.Name], "duplicate name %s", c.Name)
		names[c.Name] = true
	}
}

func TestTemplateFallback(t *testing.T) {
	assert.Equal(t, agents.Template(agents.ArchWanderer), agents.Template("nobody"))
	assert.Len(t, agents.Archetypes(), 7)
}
