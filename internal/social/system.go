package social

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/entropy"
)

// Options configures a System. Zero fields take defaults: DefaultParams,
// a manual clock at the Unix epoch, a crypto random source, LogDisplay, no
// archive, and Nearby proximity.
type Options struct {
	Params    *Params
	Clock     Clock
	Rand      entropy.Source
	Display   Display
	Archive   Archive
	Proximity Proximity
}

// System is the social engine for one simulation session. It is created
// once at simulation start, fed every tick, and shut down with the
// simulation. All methods are safe for concurrent use; ticks are processed
// one at a time.
type System struct {
	mu sync.Mutex

	clock     Clock
	timers    *Timers
	memory    *Memory
	roster    *roster
	manager   *Manager
	scheduler *Scheduler
	archive   Archive
	closed    bool
}

// NewSystem builds a social system from options.
func NewSystem(opts Options) *System {
	params := DefaultParams()
	if opts.Params != nil {
		params = *opts.Params
	}
	clock := opts.Clock
	if clock == nil {
		clock = NewManualClock(time.Unix(0, 0))
	}
	rng := opts.Rand
	if rng == nil {
		rng = entropy.Crypto{}
	}
	display := opts.Display
	if display == nil {
		display = LogDisplay{}
	}

	timers := NewTimers()
	memory := NewMemory()
	r := &roster{byName: make(map[string]*agents.Character)}
	manager := NewManager(params, rng, clock, timers, memory, r, display, opts.Archive)

	return &System{
		clock:     clock,
		timers:    timers,
		memory:    memory,
		roster:    r,
		manager:   manager,
		scheduler: NewScheduler(params, rng, memory, manager, opts.Proximity),
		archive:   opts.Archive,
	}
}

// RestoreMemory loads persisted conversation memory from the archive.
func (s *System) RestoreMemory() error {
	if s.archive == nil {
		return nil
	}
	entries, err := s.archive.LoadMemory()
	if err != nil {
		return fmt.Errorf("load memory: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory.Restore(entries)
	slog.Info("conversation memory restored", "pairs", len(entries))
	return nil
}

// ProcessTick advances the social engine by one simulation step: turns that
// have come due are spoken, then every character considers starting a
// conversation. Safe with zero or one character.
func (s *System) ProcessTick(characters []*agents.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.roster.refresh(characters)
	s.timers.RunDue(s.clock.Now())

	if len(characters) < 2 {
		return
	}
	for _, c := range characters {
		s.scheduler.Consider(c, characters)
	}
}

// Shutdown cancels every pending turn and ends all active conversations.
// Later ticks are ignored.
func (s *System) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	cancelled := s.timers.CancelAll()
	ended := s.manager.EndAll(EndShutdown)
	slog.Info("social system shut down", "cancelled_turns", cancelled, "ended_conversations", ended)
}

// Stats returns aggregate conversation statistics.
func (s *System) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.Stats()
}

// ActiveDialogues returns copies of the conversations in progress.
func (s *System) ActiveDialogues() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.Active()
}

// RecentConversations returns up to n ended conversations, newest first.
func (s *System) RecentConversations(n int) []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.Recent(n)
}

// LastTalked returns when two characters last started a conversation.
func (s *System) LastTalked(a, b string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Last(a, b)
}

// Acquaintances returns everyone name has talked with, mapped to when their
// latest conversation started.
func (s *System) Acquaintances(name string) map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]time.Time)
	for key, at := range s.memory.Snapshot() {
		a, b, ok := SplitPairKey(key)
		if !ok {
			continue
		}
		switch name {
		case a:
			out[b] = at
		case b:
			out[a] = at
		}
	}
	return out
}

// MemorySize returns the number of pairs in conversation memory.
func (s *System) MemorySize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Len()
}

// PendingTurns returns the number of scheduled turns.
func (s *System) PendingTurns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers.Pending()
}

// Start opens a conversation directly, bypassing proximity and the gate.
// Used by admin tooling and tests.
func (s *System) Start(initiator, partner *agents.Character) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Conversation{}, fmt.Errorf("start conversation: system shut down")
	}
	s.roster.add(initiator)
	s.roster.add(partner)
	c, err := s.manager.Start(initiator, partner)
	if err != nil {
		return Conversation{}, err
	}
	return c.Clone(), nil
}

// roster is the name index of the characters seen on the latest tick.
type roster struct {
	byName map[string]*agents.Character
}

func (r *roster) refresh(characters []*agents.Character) {
	clear(r.byName)
	for _, c := range characters {
		r.add(c)
	}
}

func (r *roster) add(c *agents.Character) {
	if c != nil {
		r.byName[c.Name] = c
	}
}

// Lookup returns the named character, or nil if it is not in the world.
func (r *roster) Lookup(name string) *agents.Character {
	return r.byName[name]
}
