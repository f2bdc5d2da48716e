// World generation using layered simplex noise.
// Generates elevation and moisture fields, then derives terrain and yields.

package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width    float64 // World units
	Height   float64
	CellSize float64
	Seed     int64 // 0 = random
}

// DefaultGenConfig returns a square world sized for a dozen characters.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:    400,
		Height:   400,
		CellSize: 10,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:    100,
		Height:   100,
		CellSize: 10,
		Seed:     42,
	}
}

// Generate creates a complete map with terrain and resource sites.
func Generate(cfg GenConfig) *Map {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	moistNoise := opensimplex.NewNormalized(seed + 1)

	m := NewMap(cfg.Width, cfg.Height, cfg.CellSize)

	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			x := float64(c)
			y := float64(r)

			elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)
			moist := octaveNoise(moistNoise, x, y, 3, 0.06, 0.5)

			cell := deriveCell(elev, moist)
			m.cells[r*m.cols+c] = cell

			center := Point{X: (x + 0.5) * m.CellSize, Y: (y + 0.5) * m.CellSize}
			if cell.Water >= 0.6 {
				m.WaterSites = append(m.WaterSites, center)
			}
			if cell.Forage >= 0.5 {
				m.ForageSites = append(m.ForageSites, center)
			}
		}
	}

	// A world without water kills everyone; guarantee at least one lake.
	if len(m.WaterSites) == 0 {
		center := Point{X: m.Width / 2, Y: m.Height / 2}
		m.Set(center, Cell{Terrain: TerrainLake, Water: 1})
		m.WaterSites = append(m.WaterSites, center)
	}

	return m
}

// deriveCell determines terrain and yields from environmental parameters.
func deriveCell(elev, moist float64) Cell {
	switch {
	case moist > 0.68 && elev < 0.45:
		return Cell{Terrain: TerrainLake, Water: 0.6 + moist*0.4}
	case moist < 0.25:
		return Cell{Terrain: TerrainBarren, Forage: moist * 0.5}
	case moist > 0.5 && elev > 0.4:
		return Cell{Terrain: TerrainForest, Wood: 0.5 + elev*0.5, Forage: moist * 0.6}
	default:
		return Cell{Terrain: TerrainPlains, Forage: 0.3 + moist*0.6, Water: moist * 0.3}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, c := range m.cells {
		counts[c.Terrain]++
	}
	return counts
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainPlains:
		return "Plains"
	case TerrainForest:
		return "Forest"
	case TerrainLake:
		return "Lake"
	case TerrainBarren:
		return "Barren"
	default:
		return "Unknown"
	}
}
