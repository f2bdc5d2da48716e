// Survival behavior: a needs-driven state machine for the world model.
// Every tick, characters' vitals drift, then each evaluates its state and
// takes one action.

package agents

import (
	"math"

	"github.com/talgya/campfire/internal/entropy"
	"github.com/talgya/campfire/internal/world"
)

// Vital drift per tick.
const (
	HungerPerTick = 0.05
	ThirstPerTick = 0.08
	EnergyPerTick = 0.04

	moveStep   = 2.0 // World units per tick
	wanderStep = 1.0
	reachRange = 5.0 // Close enough to use a resource site
)

// Action represents what a character decided to do this tick.
type Action struct {
	CharacterID CharacterID
	Kind        ActionKind
	Target      world.Point
	Detail      string // Human-readable description for event log
}

// ActionKind enumerates the possible survival actions.
type ActionKind uint8

const (
	ActionIdle    ActionKind = iota
	ActionEat                // Consume food from inventory
	ActionDrink              // Drink at a water source
	ActionForage             // Gather food from the land
	ActionGather             // Collect wood in a forest
	ActionRest               // Recover energy
	ActionTravel             // Move toward a resource site
	ActionWander             // Drift randomly
)

// DecayVitals advances hunger, thirst and fatigue by one tick.
func DecayVitals(c *Character) {
	c.Hunger = math.Min(100, c.Hunger+HungerPerTick)
	c.Thirst = math.Min(100, c.Thirst+ThirstPerTick)
	c.Energy = math.Max(0, c.Energy-EnergyPerTick)
}

// Decide determines what a character does this tick. Needs are evaluated
// bottom-up: a parched builder doesn't chop wood, they look for water. When
// hunger presses harder than thirst, food comes first.
func Decide(c *Character, m *world.Map, rng entropy.Source) Action {
	if !c.Alive {
		return Action{CharacterID: c.ID, Kind: ActionIdle}
	}
	tmpl := Template(c.Archetype)
	cell := m.At(c.Position)

	if EvaluateNeeds(c).Priority() == "hunger" {
		if a, ok := seekFood(c, m, cell, tmpl); ok {
			return a
		}
	}
	if a, ok := seekWater(c, m, cell, tmpl); ok {
		return a
	}
	if a, ok := seekFood(c, m, cell, tmpl); ok {
		return a
	}

	if c.Energy < tmpl.RestAt {
		return Action{CharacterID: c.ID, Kind: ActionRest, Detail: c.Name + " rests"}
	}

	if cell.Wood > 0 && rng.Float64() < 0.02+tmpl.GatherBias {
		return Action{CharacterID: c.ID, Kind: ActionGather, Detail: c.Name + " gathers wood"}
	}

	angle := rng.Float64() * 2 * math.Pi
	target := m.Clamp(world.Point{
		X: c.Position.X + math.Cos(angle)*wanderStep,
		Y: c.Position.Y + math.Sin(angle)*wanderStep,
	})
	return Action{CharacterID: c.ID, Kind: ActionWander, Target: target}
}

func seekWater(c *Character, m *world.Map, cell world.Cell, tmpl PersonalityTemplate) (Action, bool) {
	if c.Thirst < tmpl.DrinkAt {
		return Action{}, false
	}
	if cell.Water >= 0.6 {
		return Action{CharacterID: c.ID, Kind: ActionDrink, Detail: c.Name + " drinks"}, true
	}
	if site, ok := world.Nearest(m.WaterSites, c.Position); ok {
		return Action{CharacterID: c.ID, Kind: ActionTravel, Target: site, Detail: c.Name + " heads for water"}, true
	}
	return Action{}, false
}

func seekFood(c *Character, m *world.Map, cell world.Cell, tmpl PersonalityTemplate) (Action, bool) {
	if c.Hunger < tmpl.EatAt {
		return Action{}, false
	}
	if c.Inventory != nil && c.Inventory.Food > 0 {
		return Action{CharacterID: c.ID, Kind: ActionEat, Detail: c.Name + " eats a meal"}, true
	}
	if cell.Forage >= 0.5 {
		return Action{CharacterID: c.ID, Kind: ActionForage, Detail: c.Name + " forages for food"}, true
	}
	if site, ok := world.Nearest(m.ForageSites, c.Position); ok {
		return Action{CharacterID: c.ID, Kind: ActionTravel, Target: site, Detail: c.Name + " looks for food"}, true
	}
	return Action{}, false
}

// ApplyAction executes an action's effects on the character and returns any
// notable events for the log.
func ApplyAction(c *Character, action Action, m *world.Map) []string {
	var events []string

	switch action.Kind {
	case ActionEat:
		c.Inventory.Food--
		c.Hunger = math.Max(0, c.Hunger-35)
	case ActionDrink:
		c.Thirst = math.Max(0, c.Thirst-40)
	case ActionForage:
		inv := c.ensureInventory()
		inv.Food++
		if inv.Food == 1 {
			events = append(events, c.Name+" found something to eat")
		}
	case ActionGather:
		inv := c.ensureInventory()
		inv.Wood++
		if inv.Wood%10 == 0 {
			events = append(events, c.Name+" has collected a pile of wood")
		}
	case ActionRest:
		c.Energy = math.Min(100, c.Energy+1.5)
	case ActionTravel:
		c.Position = world.StepToward(c.Position, action.Target, moveStep)
		if world.Distance(c.Position, action.Target) < reachRange {
			c.Position = m.Clamp(action.Target)
		}
	case ActionWander:
		c.Position = m.Clamp(action.Target)
	}

	if c.Hunger >= 100 || c.Thirst >= 100 {
		c.Alive = false
		c.Bubble = ""
	}

	return events
}

func (c *Character) ensureInventory() *Inventory {
	if c.Inventory == nil {
		c.Inventory = &Inventory{}
	}
	return c.Inventory
}
