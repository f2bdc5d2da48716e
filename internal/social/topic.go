package social

import (
	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/entropy"
)

// Topic is a coarse conversational category.
type Topic string

const (
	TopicSurvival      Topic = "survival"
	TopicSocial        Topic = "social"
	TopicPlanning      Topic = "planning"
	TopicPhilosophical Topic = "philosophical"
)

// Topics lists every topic in weight order.
var Topics = []Topic{TopicSurvival, TopicSocial, TopicPlanning, TopicPhilosophical}

// topicWeights is the fallback distribution when no rule applies.
var topicWeights = []float64{0.4, 0.3, 0.2, 0.1}

// Topic selection thresholds.
const (
	curiousThreshold    = 0.7
	philosophicalChance = 0.3
	gregariousThreshold = 0.8
)

// Party is one side of a conversation as the topic selector sees it.
type Party struct {
	Needs  agents.NeedProfile
	Traits agents.Traits
}

// PartyOf evaluates a character's needs and captures its traits.
func PartyOf(c *agents.Character) Party {
	if c == nil {
		return Party{}
	}
	return Party{Needs: agents.EvaluateNeeds(c), Traits: c.Traits}
}

// SelectTopic picks what the initiator opens with. First match wins:
// either side in an emergency talks survival; a curious side steers toward
// philosophy (30%) or planning; a very sociable initiator makes small talk;
// otherwise the topic is drawn from the fixed weights.
func SelectTopic(initiator, partner Party, rng entropy.Source) Topic {
	if initiator.Needs.Emergency || partner.Needs.Emergency {
		return TopicSurvival
	}
	if initiator.Traits.Get(agents.TraitCuriosity) > curiousThreshold ||
		partner.Traits.Get(agents.TraitCuriosity) > curiousThreshold {
		if rng.Float64() < philosophicalChance {
			return TopicPhilosophical
		}
		return TopicPlanning
	}
	if initiator.Traits.Get(agents.TraitSociability) > gregariousThreshold {
		return TopicSocial
	}
	return weightedTopic(rng)
}

// weightedTopic walks the weights subtracting each from a scaled draw.
func weightedTopic(rng entropy.Source) Topic {
	total := 0.0
	for _, w := range topicWeights {
		total += w
	}
	remaining := rng.Float64() * total
	for i, w := range topicWeights {
		remaining -= w
		if remaining <= 0 {
			return Topics[i]
		}
	}
	// Rounding can leave a sliver above zero.
	return Topics[len(Topics)-1]
}
