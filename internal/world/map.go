// Package world provides the continuous 2D plane characters live on,
// sampled from a coarse terrain grid.
package world

import (
	"fmt"
	"math"
)

// Point is a position in world units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Terrain types for grid cells.
type Terrain uint8

const (
	TerrainPlains Terrain = iota // Forage, nothing else
	TerrainForest                // Wood and some forage
	TerrainLake                  // Fresh water
	TerrainBarren                // Nothing useful
)

// Cell is one square of the terrain grid.
type Cell struct {
	Terrain Terrain `json:"terrain"`

	// Normalized yields, 0.0–1.0.
	Water  float64 `json:"water"`
	Forage float64 `json:"forage"`
	Wood   float64 `json:"wood"`
}

// Map holds the terrain grid and the derived resource sites.
type Map struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	CellSize float64 `json:"cell_size"`

	cols, rows int
	cells      []Cell

	// Centers of cells rich in a resource, used for pathing toward it.
	WaterSites  []Point `json:"-"`
	ForageSites []Point `json:"-"`
}

// NewMap creates a map of the given size with every cell set to plains.
func NewMap(width, height, cellSize float64) *Map {
	if cellSize <= 0 {
		cellSize = 10
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Map{
		Width:    width,
		Height:   height,
		CellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([]Cell, cols*rows),
	}
}

func (m *Map) index(p Point) int {
	c := int(p.X / m.CellSize)
	r := int(p.Y / m.CellSize)
	if c < 0 {
		c = 0
	}
	if c >= m.cols {
		c = m.cols - 1
	}
	if r < 0 {
		r = 0
	}
	if r >= m.rows {
		r = m.rows - 1
	}
	return r*m.cols + c
}

// At returns the cell containing p. Points outside the map are clamped to the edge.
func (m *Map) At(p Point) Cell {
	return m.cells[m.index(p)]
}

// Set replaces the cell containing p.
func (m *Map) Set(p Point, cell Cell) {
	m.cells[m.index(p)] = cell
}

// Clamp keeps p within the map bounds.
func (m *Map) Clamp(p Point) Point {
	p.X = math.Max(0, math.Min(m.Width, p.X))
	p.Y = math.Max(0, math.Min(m.Height, p.Y))
	return p
}

// CellCount returns the total number of grid cells.
func (m *Map) CellCount() int {
	return len(m.cells)
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Within reports whether b lies within radius of a (inclusive).
func Within(a, b Point, radius float64) bool {
	return Distance(a, b) <= radius
}

// Nearest returns the site closest to p. ok is false when sites is empty.
func Nearest(sites []Point, p Point) (best Point, ok bool) {
	bestDist := math.Inf(1)
	for _, s := range sites {
		if d := Distance(s, p); d < bestDist {
			best, bestDist, ok = s, d, true
		}
	}
	return best, ok
}

// StepToward moves from p toward target by at most step units.
func StepToward(p, target Point, step float64) Point {
	d := Distance(p, target)
	if d <= step || d == 0 {
		return target
	}
	return Point{
		X: p.X + (target.X-p.X)/d*step,
		Y: p.Y + (target.Y-p.Y)/d*step,
	}
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(%gx%g, cells=%d, water=%d, forage=%d)",
		m.Width, m.Height, m.CellCount(), len(m.WaterSites), len(m.ForageSites))
}
