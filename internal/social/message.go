package social

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/entropy"
)

// Emotion tags the mood a message was spoken in.
type Emotion string

const (
	EmotionAnxious    Emotion = "anxious"
	EmotionEmpathetic Emotion = "empathetic"
	EmotionConcerned  Emotion = "concerned"
	EmotionCheerful   Emotion = "cheerful"
	EmotionFocused    Emotion = "focused"
	EmotionPensive    Emotion = "pensive"
)

// Substitution thresholds on normalized needs and traits.
const (
	thirstUrgency   = 0.8
	hungerUrgency   = 0.7
	directCourage   = 0.8
	warmSociability = 0.8
)

// openers start a conversation; replies answer one.
var openers = map[Topic][]string{
	TopicSurvival: {
		"Do you know where we can find water?",
		"I haven't had any food since yesterday. Have you seen anything to eat?",
		"We need to think about food before the cold sets in.",
		"Is the lake to the north still good water?",
		"I'm worried we won't find enough food around here.",
	},
	TopicSocial: {
		"How have you been, {listener}?",
		"It's good to see a friendly face out here.",
		"I heard laughter from the other camp last night.",
		"Do you ever miss the old village?",
		"You look like you could use some company.",
	},
	TopicPlanning: {
		"We should build a proper shelter before the weather turns.",
		"What if we set up a camp closer to the water?",
		"Let's split up tomorrow: I'll gather, you scout.",
		"We could store food in the cave for leaner days.",
	},
	TopicPhilosophical: {
		"Do you ever wonder why we keep going?",
		"What do you think lies beyond the mountains?",
		"Sometimes I think the forest remembers us.",
		"Is surviving the same as living?",
	},
}

var replies = map[Topic][]string{
	TopicSurvival: {
		"I saw a stream past the ridge, there should be water there.",
		"There are berries by the old oak. It's not much food, but it's something.",
		"We'll find food. We always have.",
		"Stay close, we'll look for water together.",
	},
	TopicSocial: {
		"Better now that you're here.",
		"Out here, every friend counts.",
		"I've been thinking about the people we left behind.",
		"Come sit by the fire tonight.",
	},
	TopicPlanning: {
		"Good idea. I'll bring what I can carry.",
		"We'd have to agree on who keeps watch.",
		"Let's do it before the rain comes.",
		"I'd rather stay near the forest, there's more cover.",
	},
	TopicPhilosophical: {
		"Maybe the reason is each other.",
		"I try not to think about it too much.",
		"Perhaps the mountains are just more of the same.",
		"Living is what happens between the surviving.",
	},
}

// woodOpeners are added to the planning pool when the speaker carries wood.
var woodOpeners = []string{
	"I've got {wood} pieces of wood. Enough to start a shelter?",
	"With my {wood} pieces of wood we could keep a fire going all night.",
}

var (
	waterTokens = regexp.MustCompile(`\b(water|something to drink)\b`)
	foodTokens  = regexp.MustCompile(`\b(food|something to eat)\b`)
)

const (
	waterUrgency = "water (and fast, I'm parched)"
	foodUrgency  = "food (I'm starving)"
	directPrefix = "I'll be blunt. "
	strainPrefix = "Sorry, I can hardly think straight. "
)

// Compose renders a topic into an utterance. turn 0 draws from the opening
// pool, later turns from the reply pool. The speaker's needs and traits
// bend the text: urgent thirst and hunger rewrite water and food mentions,
// then a bold speaker is direct, or failing that a warm one greets the
// listener by name.
func Compose(topic Topic, speaker, listener *agents.Character, turn int, rng entropy.Source) string {
	pool := replies[topic]
	if turn == 0 {
		pool = openers[topic]
		if topic == TopicPlanning && speaker.WoodCount() > 0 {
			pool = append(append([]string(nil), pool...), woodOpeners...)
		}
	}
	if len(pool) == 0 {
		pool = openers[TopicSocial]
	}

	idx := int(rng.Float64() * float64(len(pool)))
	if idx >= len(pool) {
		idx = len(pool) - 1
	}
	text := fillPlaceholders(pool[idx], speaker, listener)

	needs := agents.EvaluateNeeds(speaker)
	if needs.Thirst > thirstUrgency {
		text = waterTokens.ReplaceAllString(text, waterUrgency)
	}
	if needs.Hunger > hungerUrgency {
		text = foodTokens.ReplaceAllString(text, foodUrgency)
	}

	switch {
	case speaker.Trait(agents.TraitCourage) > directCourage:
		text = directPrefix + text
	case speaker.Trait(agents.TraitSociability) > warmSociability:
		text = firstName(listener) + ", my friend! " + text
	}
	return text
}

// Escalate prefixes a line spoken under survival pressure.
func Escalate(text string) string {
	return strainPrefix + text
}

func fillPlaceholders(text string, speaker, listener *agents.Character) string {
	r := strings.NewReplacer(
		"{listener}", firstName(listener),
		"{speaker}", firstName(speaker),
		"{wood}", strconv.Itoa(speaker.WoodCount()),
	)
	return r.Replace(text)
}

func firstName(c *agents.Character) string {
	if c == nil || c.Name == "" {
		return "friend"
	}
	if i := strings.IndexByte(c.Name, ' '); i > 0 {
		return c.Name[:i]
	}
	return c.Name
}

// Analysis is the result of keyword matching on an utterance.
type Analysis struct {
	Urgent   bool
	Water    bool
	Food     bool
	Keywords []string
}

var urgencyWords = []string{"starving", "parched", "hardly think", "desperate", "help", "worried"}

// AnalyzeMessage scans text for need and urgency keywords.
func AnalyzeMessage(text string) Analysis {
	lower := strings.ToLower(text)
	var a Analysis
	for _, w := range urgencyWords {
		if strings.Contains(lower, w) {
			a.Urgent = true
			a.Keywords = append(a.Keywords, w)
		}
	}
	if waterTokens.MatchString(lower) {
		a.Water = true
		a.Keywords = append(a.Keywords, "water")
	}
	if foodTokens.MatchString(lower) {
		a.Food = true
		a.Keywords = append(a.Keywords, "food")
	}
	return a
}

// EmotionFor tags a message: a speaker in an emergency is anxious, a calm
// speaker answering an urgent line is empathetic, otherwise the topic sets
// the tone.
func EmotionFor(topic Topic, speaker agents.NeedProfile, previous string) Emotion {
	if speaker.Emergency {
		return EmotionAnxious
	}
	if previous != "" && AnalyzeMessage(previous).Urgent {
		return EmotionEmpathetic
	}
	switch topic {
	case TopicSurvival:
		return EmotionConcerned
	case TopicSocial:
		return EmotionCheerful
	case TopicPhilosophical:
		return EmotionPensive
	default:
		return EmotionFocused
	}
}
