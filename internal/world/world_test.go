package world_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/campfire/internal/world"
)

func TestDistanceAndWithin(t *testing.T) {
	a := world.Point{X: 0, Y: 0}
	b := world.Point{X: 30, Y: 40}

	assert.InDelta(t, 50.0, world.Distance(a, b), 1e-9)
	assert.True(t, world.Within(a, b, 50), "radius is inclusive")
	assert.False(t, world.Within(a, b, 49.99))
	assert.False(t, world.Within(a, world.Point{X: 200}, 80))
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := world.SmallTestConfig()
	m1 := world.Generate(cfg)
	m2 := world.Generate(cfg)

	require.Equal(t, m1.CellCount(), m2.CellCount())
	assert.Equal(t, 100, m1.CellCount())
	assert.Equal(t, m1.WaterSites, m2.WaterSites)
	assert.NotEmpty(t, m1.WaterSites, "every world has water")
	assert.Equal(t, world.TerrainCounts(m1), world.TerrainCounts(m2))
}

func TestStepToward(t *testing.T) {
	p := world.StepToward(world.Point{}, world.Point{X: 10}, 3)
	assert.InDelta(t, 3.0, p.X, 1e-9)

	p = world.StepToward(world.Point{}, world.Point{X: 2}, 3)
	assert.Equal(t, world.Point{X: 2}, p, "never overshoots")
}

func TestNearestAndClamp(t *testing.T) {
	_, ok := world.Nearest(nil, world.Point{})
	assert.False(t, ok)

	best, ok := world.Nearest([]world.Point{{X: 50}, {X: 5}, {X: -20}}, world.Point{})
	require.True(t, ok)
	assert.Equal(t, world.Point{X: 5}, best)

	m := world.NewMap(100, 50, 10)
	c := m.Clamp(world.Point{X: -5, Y: math.Inf(1)})
	assert.Equal(t, world.Point{X: 0, Y: 50}, c)
}
