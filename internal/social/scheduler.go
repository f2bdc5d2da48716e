package social

import (
	"errors"
	"log/slog"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/entropy"
	"github.com/talgya/campfire/internal/world"
)

// Proximity finds the characters within radius of origin, excluding origin.
type Proximity func(origin *agents.Character, all []*agents.Character, radius float64) []*agents.Character

// Nearby is the default Proximity: Euclidean distance, radius inclusive,
// present characters only.
func Nearby(origin *agents.Character, all []*agents.Character, radius float64) []*agents.Character {
	var out []*agents.Character
	for _, c := range all {
		if c == origin || !c.Present() || c.Name == origin.Name {
			continue
		}
		if world.Within(origin.Position, c.Position, radius) {
			out = append(out, c)
		}
	}
	return out
}

// Scheduler decides, once per tick per character, whether that character
// strikes up a conversation.
type Scheduler struct {
	params    Params
	rng       entropy.Source
	memory    *Memory
	manager   *Manager
	proximity Proximity
}

// NewScheduler wires an initiation scheduler. A nil proximity uses Nearby.
func NewScheduler(params Params, rng entropy.Source, memory *Memory, manager *Manager, proximity Proximity) *Scheduler {
	if proximity == nil {
		proximity = Nearby
	}
	return &Scheduler{
		params:    params,
		rng:       rng,
		memory:    memory,
		manager:   manager,
		proximity: proximity,
	}
}

// Candidate is a potential partner with its ranking score.
type Candidate struct {
	Character     *agents.Character
	Compatibility float64
	Score         float64 // Compatibility plus jitter
}

// Rank picks the best partner for initiator among nearby. ok is false when
// nobody is nearby.
func (s *Scheduler) Rank(initiator *agents.Character, nearby []*agents.Character) (best Candidate, ok bool) {
	for _, c := range nearby {
		compat := Compatibility(initiator.Traits, c.Traits)
		score := compat + s.rng.Float64()*s.params.RankJitter
		if !ok || score > best.Score {
			best = Candidate{Character: c, Compatibility: compat, Score: score}
			ok = true
		}
	}
	return best, ok
}

// Consider runs the initiation pipeline for one character: find neighbors,
// rank them, roll the gate, and start a conversation if the pair is free.
// Returns the new conversation, or nil.
func (s *Scheduler) Consider(initiator *agents.Character, all []*agents.Character) *Conversation {
	if !initiator.Present() {
		return nil
	}
	nearby := s.proximity(initiator, all, s.params.Radius)
	best, ok := s.Rank(initiator, nearby)
	if !ok {
		return nil
	}
	partner := best.Character

	now := s.manager.clock.Now()
	since, talked := s.memory.Since(initiator.Name, partner.Name, now)
	emergency := agents.EvaluateNeeds(initiator).Emergency || agents.EvaluateNeeds(partner).Emergency
	chance := s.params.InitiationChance(best.Compatibility, since, talked, emergency,
		initiator.Trait(agents.TraitSociability))

	if s.rng.Float64() >= chance {
		return nil
	}
	if s.manager.HasActive(initiator.Name, partner.Name) {
		return nil
	}

	c, err := s.manager.Start(initiator, partner)
	if err != nil {
		if !errors.Is(err, ErrPairEngaged) && !errors.Is(err, ErrParticipantInvalid) {
			slog.Warn("conversation start failed", "initiator", initiator.Name, "error", err)
		}
		return nil
	}
	return c
}
