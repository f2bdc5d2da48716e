// Simulation ties together the world, its characters and the social system,
// and runs them each tick.

package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/entropy"
	"github.com/talgya/campfire/internal/social"
	"github.com/talgya/campfire/internal/world"
)

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// Event categories.
const (
	CategoryAgent    = "agent"
	CategoryDeath    = "death"
	CategoryDialogue = "dialogue"
)

// Event is a notable occurrence in the world.
type Event struct {
	Tick        uint64    `json:"tick"`
	At          time.Time `json:"at"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
}

// SimStats tracks aggregate world statistics.
type SimStats struct {
	TotalPopulation int     `json:"total_population"`
	Alive           int     `json:"alive"`
	Deaths          int     `json:"deaths"`
	AvgHunger       float64 `json:"avg_hunger"`
	AvgThirst       float64 `json:"avg_thirst"`
	AvgEnergy       float64 `json:"avg_energy"`
	Emergencies     int     `json:"emergencies"`
}

// Config assembles a Simulation. Zero fields take defaults: one second per
// tick, a crypto random source and no archive.
type Config struct {
	Map        *world.Map
	Characters []*agents.Character
	Spawner    *agents.Spawner
	Start      time.Time // Simulated start time
	Step       time.Duration
	Rand       entropy.Source
	Archive    social.Archive
	Params     *social.Params
	StartTick  uint64 // Resume point when restoring
}

// Simulation holds the complete world state and wires systems together.
// Tick mutates it under the write lock; readers use the snapshot methods.
type Simulation struct {
	mu sync.RWMutex

	WorldMap   *world.Map
	Characters []*agents.Character
	Index      map[agents.CharacterID]*agents.Character
	Spawner    *agents.Spawner
	Social     *social.System
	Clock      *social.ManualClock

	Events   []Event // Recent events, bounded
	unsaved  []Event
	LastTick uint64
	Stats    SimStats

	start time.Time
	step  time.Duration
	rng   entropy.Source
}

// NewSimulation creates a Simulation from generated or restored components.
func NewSimulation(cfg Config) *Simulation {
	step := cfg.Step
	if step <= 0 {
		step = time.Second
	}
	rng := cfg.Rand
	if rng == nil {
		rng = entropy.Crypto{}
	}
	start := cfg.Start
	if start.IsZero() {
		start = time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)
	}

	index := make(map[agents.CharacterID]*agents.Character, len(cfg.Characters))
	for _, c := range cfg.Characters {
		index[c.ID] = c
	}

	s := &Simulation{
		WorldMap:   cfg.Map,
		Characters: cfg.Characters,
		Index:      index,
		Spawner:    cfg.Spawner,
		Clock:      social.NewManualClock(start.Add(time.Duration(cfg.StartTick) * step)),
		LastTick:   cfg.StartTick,
		start:      start,
		step:       step,
		rng:        rng,
	}
	s.Social = social.NewSystem(social.Options{
		Params:  cfg.Params,
		Clock:   s.Clock,
		Rand:    rng,
		Display: social.DisplayFunc(s.showDialogue),
		Archive: cfg.Archive,
	})
	s.updateStats()
	return s
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// Elapsed returns the simulated time since the world began.
func (s *Simulation) Elapsed() time.Duration {
	return s.Clock.Now().Sub(s.start)
}

// Tick runs one simulation step: vitals drift, every living character acts,
// then the social system speaks due turns and considers new conversations.
func (s *Simulation) Tick(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick
	s.Clock.Advance(s.step)

	for _, c := range s.Characters {
		if !c.Alive {
			continue
		}

		agents.DecayVitals(c)

		action := agents.Decide(c, s.WorldMap, s.rng)
		for _, desc := range agents.ApplyAction(c, action, s.WorldMap) {
			s.record(tick, desc, CategoryAgent)
		}

		if !c.Alive {
			s.record(tick, fmt.Sprintf("%s has died", c.Name), CategoryDeath)
			slog.Info("character died", "name", c.Name, "hunger", c.Hunger, "thirst", c.Thirst)
		}
	}

	s.Social.ProcessTick(s.Characters)
}

// showDialogue is the social display: each spoken line becomes an event.
// It runs inside Tick, which already holds the lock.
func (s *Simulation) showDialogue(speaker, listener *agents.Character, text string) error {
	s.record(s.LastTick, fmt.Sprintf("%s to %s: %s", speaker.Name, listener.Name, text), CategoryDialogue)
	slog.Debug("dialogue", "speaker", speaker.Name, "listener", listener.Name, "text", text)
	return nil
}

func (s *Simulation) record(tick uint64, desc, category string) {
	e := Event{Tick: tick, At: s.Clock.Now(), Description: desc, Category: category}
	s.Events = append(s.Events, e)
	if len(s.Events) > maxEvents {
		s.Events = append([]Event(nil), s.Events[len(s.Events)-maxEvents:]...)
	}
	s.unsaved = append(s.unsaved, e)
}

// TickHour refreshes aggregate statistics.
func (s *Simulation) TickHour(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateStats()
	slog.Debug("hourly stats", "tick", tick, "alive", s.Stats.Alive, "emergencies", s.Stats.Emergencies)
}

// TickDay logs the daily report.
func (s *Simulation) TickDay(tick uint64) {
	s.mu.Lock()
	s.updateStats()
	stats := s.Stats
	eventCounts := make(map[string]int)
	for _, e := range s.Events {
		eventCounts[e.Category]++
	}
	recent := s.recentLocked(20)
	s.mu.Unlock()

	talk := s.Social.Stats()
	slog.Info("daily report",
		"tick", humanize.Comma(int64(tick)),
		"time", SimTime(s.Elapsed()),
		"alive", stats.Alive,
		"deaths", stats.Deaths,
		"avg_hunger", fmt.Sprintf("%.1f", stats.AvgHunger),
		"avg_thirst", fmt.Sprintf("%.1f", stats.AvgThirst),
		"avg_energy", fmt.Sprintf("%.1f", stats.AvgEnergy),
		"conversations", humanize.Comma(int64(talk.TotalConversations)),
		"active_dialogues", talk.ActiveDialogues,
		"avg_turns", fmt.Sprintf("%.2f", talk.AvgTurns),
		"events_dialogue", humanize.Comma(int64(eventCounts[CategoryDialogue])),
		"events_death", eventCounts[CategoryDeath],
	)

	for _, e := range recent {
		if e.Category == CategoryDeath {
			slog.Info("event", "category", e.Category, "description", e.Description)
		}
	}
}

func (s *Simulation) updateStats() {
	st := SimStats{TotalPopulation: len(s.Characters)}
	for _, c := range s.Characters {
		if !c.Alive {
			st.Deaths++
			continue
		}
		st.Alive++
		st.AvgHunger += c.Hunger
		st.AvgThirst += c.Thirst
		st.AvgEnergy += c.Energy
		if agents.EvaluateNeeds(c).Emergency {
			st.Emergencies++
		}
	}
	if st.Alive > 0 {
		n := float64(st.Alive)
		st.AvgHunger /= n
		st.AvgThirst /= n
		st.AvgEnergy /= n
	}
	s.Stats = st
}

// Shutdown ends every conversation in progress. Ticks after it still run
// the world but no longer talk.
func (s *Simulation) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Social.Shutdown()
	s.updateStats()
}

// Snapshot returns copies of every character.
func (s *Simulation) Snapshot() []agents.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]agents.Character, 0, len(s.Characters))
	for _, c := range s.Characters {
		cp := *c
		cp.Traits = c.Traits.Canonical()
		if c.Inventory != nil {
			inv := *c.Inventory
			cp.Inventory = &inv
		}
		cp.Memories = append([]agents.Memory(nil), c.Memories...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CurrentStats returns the latest aggregate statistics.
func (s *Simulation) CurrentStats() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats
}

// RecentEvents returns up to n of the latest events, newest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recentLocked(n)
}

func (s *Simulation) recentLocked(n int) []Event {
	if n > len(s.Events) || n < 0 {
		n = len(s.Events)
	}
	out := make([]Event, 0, n)
	for i := len(s.Events) - 1; i >= len(s.Events)-n; i-- {
		out = append(out, s.Events[i])
	}
	return out
}

// TakeUnsavedEvents returns the events recorded since the last call and
// forgets them.
func (s *Simulation) TakeUnsavedEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.unsaved
	s.unsaved = nil
	return out
}
