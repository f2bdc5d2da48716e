// Character spawning. Creates the initial population with personalities,
// vitals, and starting positions around a few camps.

package agents

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/talgya/campfire/internal/world"
)

// Spawner creates characters for the simulation.
type Spawner struct {
	rng    *rand.Rand
	nextID CharacterID
	used   map[string]bool
}

// NewSpawner creates a character spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
		used:   make(map[string]bool),
	}
}

// SetNextID sets the next character ID to be issued (used when restoring from DB).
func (s *Spawner) SetNextID(id CharacterID) {
	s.nextID = id
}

// Reserve marks names as taken so restored characters keep unique names.
func (s *Spawner) Reserve(names ...string) {
	for _, n := range names {
		s.used[n] = true
	}
}

// SpawnPopulation creates count characters clustered around camps placed at
// the map's water sites. Camps keep people within talking range of each other.
func (s *Spawner) SpawnPopulation(count int, m *world.Map) []*Character {
	camps := s.pickCamps(m, 1+count/5)
	out := make([]*Character, 0, count)
	for i := 0; i < count; i++ {
		camp := camps[i%len(camps)]
		angle := s.rng.Float64() * 2 * math.Pi
		dist := s.rng.Float64() * 40
		pos := m.Clamp(world.Point{
			X: camp.X + math.Cos(angle)*dist,
			Y: camp.Y + math.Sin(angle)*dist,
		})
		out = append(out, s.SpawnAt(pos))
	}
	return out
}

// SpawnAt creates one character at the given position.
func (s *Spawner) SpawnAt(pos world.Point) *Character {
	id := s.nextID
	s.nextID++

	arch := pickArchetype(s.rng.Float64())
	tmpl := Template(arch)

	names := make([]string, 0, len(tmpl.TraitCenters))
	for name := range tmpl.TraitCenters {
		names = append(names, name)
	}
	sort.Strings(names)

	traits := make(Traits, len(names))
	for _, name := range names {
		traits[name] = clamp01(tmpl.TraitCenters[name] + s.rng.NormFloat64()*0.1)
	}

	return &Character{
		ID:        id,
		Name:      s.generateName(),
		Position:  pos,
		Hunger:    10 + s.rng.Float64()*30,
		Thirst:    10 + s.rng.Float64()*30,
		Energy:    60 + s.rng.Float64()*40,
		Traits:    traits,
		Archetype: arch,
		Inventory: &Inventory{Food: s.rng.Intn(3)},
		Alive:     true,
	}
}

func (s *Spawner) pickCamps(m *world.Map, n int) []world.Point {
	sites := m.WaterSites
	if len(sites) == 0 {
		return []world.Point{{X: m.Width / 2, Y: m.Height / 2}}
	}
	camps := make([]world.Point, 0, n)
	for i := 0; i < n; i++ {
		camps = append(camps, sites[s.rng.Intn(len(sites))])
	}
	return camps
}

// generateName returns a unique "First Last" name. Names must be unique:
// the social system keys conversation memory by name.
func (s *Spawner) generateName() string {
	for attempt := 0; attempt < 50; attempt++ {
		name := firstNames[s.rng.Intn(len(firstNames))] + " " + lastNames[s.rng.Intn(len(lastNames))]
		if !s.used[name] {
			s.used[name] = true
			return name
		}
	}
	// Pools exhausted; fall back to a numbered name.
	base := firstNames[s.rng.Intn(len(firstNames))] + " " + lastNames[s.rng.Intn(len(lastNames))]
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s %d", base, i)
		if !s.used[name] {
			s.used[name] = true
			return name
		}
	}
}

// Name pools for procedural generation.
var firstNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
}

var lastNames = []string{
	"Voss", "Thornwood", "Blackwood", "Ashford", "Ironhand", "Dunmore",
	"Greenvale", "Stormcrow", "Frostborn", "Hearthstone", "Millward",
	"Deepwell", "Brightwater", "Oakenshield", "Redforge", "Windholm",
	"Marshwood", "Embercroft", "Holloway", "Dawnridge", "Farrow",
}
