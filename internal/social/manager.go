package social

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/entropy"
)

var (
	// ErrPairEngaged means the pair already has an active conversation.
	ErrPairEngaged = errors.New("pair already in conversation")
	// ErrParticipantInvalid means a participant is missing, gone, or the
	// same character on both sides.
	ErrParticipantInvalid = errors.New("invalid participant")
)

// Roster resolves names to the characters currently in the world.
type Roster interface {
	Lookup(name string) *agents.Character
}

// Manager owns every conversation from its opening line until it ends.
// Active conversations are registered by id and by pair; ended ones move to
// a bounded history.
type Manager struct {
	params  Params
	rng     entropy.Source
	clock   Clock
	timers  *Timers
	memory  *Memory
	roster  Roster
	display Display
	archive Archive

	active  map[string]*Conversation // id → conversation
	byPair  map[string]string        // pair key → id
	history []*Conversation
	seq     uint64

	counters counters
}

type counters struct {
	started    int
	ended      int
	endedTurns int
	topics     map[Topic]int
}

// NewManager wires a lifecycle manager. display and archive may be nil.
func NewManager(params Params, rng entropy.Source, clock Clock, timers *Timers, memory *Memory, roster Roster, display Display, archive Archive) *Manager {
	return &Manager{
		params:   params,
		rng:      rng,
		clock:    clock,
		timers:   timers,
		memory:   memory,
		roster:   roster,
		display:  display,
		archive:  archive,
		active:   make(map[string]*Conversation),
		byPair:   make(map[string]string),
		counters: counters{topics: make(map[Topic]int)},
	}
}

// HasActive reports whether a and b are already talking to each other.
func (m *Manager) HasActive(a, b string) bool {
	_, ok := m.byPair[PairKey(a, b)]
	return ok
}

// Get returns an active conversation by id.
func (m *Manager) Get(id string) (*Conversation, bool) {
	c, ok := m.active[id]
	return c, ok
}

// Start opens a conversation: the initiator picks a topic and speaks, the
// pair's memory is stamped, and the partner's reply is scheduled.
func (m *Manager) Start(initiator, partner *agents.Character) (*Conversation, error) {
	if !initiator.Present() || !partner.Present() || initiator.Name == partner.Name {
		return nil, ErrParticipantInvalid
	}
	key := PairKey(initiator.Name, partner.Name)
	if _, engaged := m.byPair[key]; engaged {
		return nil, fmt.Errorf("start %s: %w", key, ErrPairEngaged)
	}

	now := m.clock.Now()
	topic := SelectTopic(PartyOf(initiator), PartyOf(partner), m.rng)
	text := Compose(topic, initiator, partner, 0, m.rng)

	m.seq++
	c := &Conversation{
		ID:           conversationID(key, now, m.seq),
		Participants: [2]string{initiator.Name, partner.Name},
		Topic:        topic,
		StartTime:    now,
		Active:       true,
		State:        StateCreated,
	}
	c.Messages = append(c.Messages, Message{
		Speaker:  initiator.Name,
		Listener: partner.Name,
		Text:     text,
		At:       now,
		Emotion:  EmotionFor(topic, agents.EvaluateNeeds(initiator), ""),
	})

	m.active[c.ID] = c
	m.byPair[key] = c.ID
	m.counters.started++
	m.counters.topics[topic]++

	show(m.display, initiator, partner, text)

	m.memory.Record(initiator.Name, partner.Name, now)
	if m.archive != nil {
		if err := m.archive.RecordMemory(key, now); err != nil {
			slog.Warn("archive memory write failed", "pair", key, "error", err)
		}
	}

	slog.Info("conversation started",
		"conversation", c.ID,
		"initiator", initiator.Name,
		"partner", partner.Name,
		"topic", topic,
	)

	m.schedule(c, m.params.FirstReplyMin, m.params.FirstReplyMax)
	return c, nil
}

func (m *Manager) schedule(c *Conversation, lo, hi time.Duration) {
	delay := time.Duration(entropy.UniformRange(m.rng, float64(lo), float64(hi)))
	if delay <= 0 {
		delay = time.Millisecond
	}
	id := c.ID
	c.State = StateTurnPending
	m.timers.At(id, m.clock.Now().Add(delay), func(now time.Time) {
		m.turn(id, now)
	})
}

// turn speaks the next line of a pending conversation, then either
// schedules another turn or ends it.
func (m *Manager) turn(id string, now time.Time) {
	c, ok := m.active[id]
	if !ok || !c.Active {
		return
	}

	n := len(c.Messages)
	speakerName := c.Participants[n%2]
	listenerName := c.Participants[(n+1)%2]
	speaker := m.roster.Lookup(speakerName)
	listener := m.roster.Lookup(listenerName)
	if !speaker.Present() || !listener.Present() {
		m.end(c, EndParticipantGone)
		return
	}

	last := c.Messages[n-1]
	if !now.After(last.At) {
		now = last.At.Add(time.Millisecond)
	}

	needs := agents.EvaluateNeeds(speaker)
	text := Compose(c.Topic, speaker, listener, n, m.rng)
	if needs.Emergency {
		text = Escalate(text)
	}
	c.Messages = append(c.Messages, Message{
		Speaker:  speakerName,
		Listener: listenerName,
		Text:     text,
		At:       now,
		Emotion:  EmotionFor(c.Topic, needs, last.Text),
	})
	show(m.display, speaker, listener, text)

	slog.Debug("conversation turn", "conversation", c.ID, "speaker", speakerName, "turn", len(c.Messages))

	if len(c.Messages) >= m.params.MaxMessages {
		m.end(c, EndTurnCap)
		return
	}
	if m.rng.Float64() >= m.params.ContinueChance {
		m.end(c, EndFinished)
		return
	}
	m.schedule(c, m.params.NextTurnMin, m.params.NextTurnMax)
}

// end retires a conversation: it leaves both registries, its pending turn
// is cancelled, and it joins the history.
func (m *Manager) end(c *Conversation, reason string) {
	if !c.Active {
		return
	}
	c.Active = false
	c.State = StateEnded
	c.EndReason = reason
	c.EndTime = m.clock.Now()
	if last := c.Messages[len(c.Messages)-1].At; c.EndTime.Before(last) {
		c.EndTime = last
	}

	delete(m.active, c.ID)
	delete(m.byPair, c.PairKey())
	m.timers.Cancel(c.ID)

	m.history = append(m.history, c)
	if limit := m.params.HistoryLimit; limit > 0 && len(m.history) > limit {
		m.history = append([]*Conversation(nil), m.history[len(m.history)-limit:]...)
	}
	m.counters.ended++
	m.counters.endedTurns += len(c.Messages)

	m.remember(c)

	if m.archive != nil {
		if err := m.archive.RecordConversation(c); err != nil {
			slog.Warn("archive conversation write failed", "conversation", c.ID, "error", err)
		}
	}

	slog.Info("conversation ended",
		"conversation", c.ID,
		"topic", c.Topic,
		"turns", len(c.Messages),
		"reason", reason,
	)
}

// remember writes the conversation into both participants' memory streams.
// Survival talk weighs more than small talk.
func (m *Manager) remember(c *Conversation) {
	importance := 0.3
	if c.Topic == TopicSurvival {
		importance = 0.6
	}
	for i, name := range c.Participants {
		ch := m.roster.Lookup(name)
		if !ch.Present() {
			continue
		}
		other := c.Participants[1-i]
		agents.AddMemory(ch, c.EndTime, fmt.Sprintf("Talked with %s about %s", other, c.Topic), importance)
	}
}

// EndAll ends every active conversation with the given reason.
func (m *Manager) EndAll(reason string) int {
	open := make([]*Conversation, 0, len(m.active))
	for _, c := range m.active {
		open = append(open, c)
	}
	sortByStart(open)
	for _, c := range open {
		m.end(c, reason)
	}
	return len(open)
}

// Active returns copies of the active conversations.
func (m *Manager) Active() []Conversation {
	open := make([]*Conversation, 0, len(m.active))
	for _, c := range m.active {
		open = append(open, c)
	}
	sortByStart(open)
	out := make([]Conversation, 0, len(open))
	for _, c := range open {
		out = append(out, c.Clone())
	}
	return out
}

func sortByStart(cs []*Conversation) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].StartTime.Equal(cs[j].StartTime) {
			return cs[i].ID < cs[j].ID
		}
		return cs[i].StartTime.Before(cs[j].StartTime)
	})
}

// Recent returns copies of up to n most recently ended conversations,
// newest first.
func (m *Manager) Recent(n int) []Conversation {
	if n > len(m.history) || n < 0 {
		n = len(m.history)
	}
	out := make([]Conversation, 0, n)
	for i := len(m.history) - 1; i >= len(m.history)-n; i-- {
		out = append(out, m.history[i].Clone())
	}
	return out
}
