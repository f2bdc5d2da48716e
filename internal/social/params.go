// Package social is the autonomous social-interaction engine: it decides
// whether two characters talk, who talks to whom, what they talk about, and
// runs each conversation as a chain of timed turns until it ends.
package social

import "time"

// Params holds every tuning constant of the social system.
type Params struct {
	// Radius is the proximity search distance in world units (inclusive).
	Radius float64

	// Initiation gate: BaseRate plus additive bonuses, drawn once per
	// character per tick.
	BaseRate               float64
	CompatibilityThreshold float64
	CompatibilityBonus     float64
	ReunionAfter           time.Duration // Time since the pair last talked
	ReunionBonus           float64
	EmergencyBonus         float64
	SociableThreshold      float64
	SociableBonus          float64

	// RankJitter is the maximum random bonus added to compatibility when
	// ranking partners, so equal scores don't always pair the same way.
	RankJitter float64

	// Turn delays, drawn uniformly from [Min, Max).
	FirstReplyMin time.Duration
	FirstReplyMax time.Duration
	NextTurnMin   time.Duration
	NextTurnMax   time.Duration

	// ContinueChance is the probability of another turn after each reply.
	// MaxMessages caps a conversation regardless of the draw.
	ContinueChance float64
	MaxMessages    int

	// HistoryLimit bounds the retained log of ended conversations.
	HistoryLimit int
}

// DefaultParams returns the standard tuning.
func DefaultParams() Params {
	return Params{
		Radius:                 80,
		BaseRate:               0.005,
		CompatibilityThreshold: 0.7,
		CompatibilityBonus:     0.05,
		ReunionAfter:           300000 * time.Millisecond,
		ReunionBonus:           0.03,
		EmergencyBonus:         0.08,
		SociableThreshold:      0.7,
		SociableBonus:          0.04,
		RankJitter:             0.1,
		FirstReplyMin:          2000 * time.Millisecond,
		FirstReplyMax:          5000 * time.Millisecond,
		NextTurnMin:            3000 * time.Millisecond,
		NextTurnMax:            7000 * time.Millisecond,
		ContinueChance:         0.4,
		MaxMessages:            6,
		HistoryLimit:           1000,
	}
}

// InitiationChance is the per-tick probability that an initiator opens a
// conversation with its chosen partner:
//
//	BaseRate
//	+ CompatibilityBonus  if compatibility > CompatibilityThreshold
//	+ ReunionBonus        if the pair never talked or last talked more than ReunionAfter ago
//	+ EmergencyBonus      if either side is in an emergency
//	+ SociableBonus       if the initiator's sociability > SociableThreshold
func (p Params) InitiationChance(compatibility float64, sinceLast time.Duration, talkedBefore, emergency bool, sociability float64) float64 {
	chance := p.BaseRate
	if compatibility > p.CompatibilityThreshold {
		chance += p.CompatibilityBonus
	}
	if !talkedBefore || sinceLast > p.ReunionAfter {
		chance += p.ReunionBonus
	}
	if emergency {
		chance += p.EmergencyBonus
	}
	if sociability > p.SociableThreshold {
		chance += p.SociableBonus
	}
	return chance
}
