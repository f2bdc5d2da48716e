package social_test

import (
	"errors"
	"time"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/social"
	"github.com/talgya/campfire/internal/world"
)

var epoch = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

// calm returns a character with comfortable vitals and neutral traits.
func calm(name string, x, y float64) *agents.Character {
	return &agents.Character{
		Name:     name,
		Position: world.Point{X: x, Y: y},
		Hunger:   10,
		Thirst:   10,
		Energy:   90,
		Traits: agents.Traits{
			agents.TraitCuriosity:   0.5,
			agents.TraitSociability: 0.5,
			agents.TraitCourage:     0.5,
		},
		Alive: true,
	}
}

type recordingDisplay struct {
	lines []string
	fail  error
	panic bool
}

func (d *recordingDisplay) Show(speaker, listener *agents.Character, text string) error {
	if d.panic {
		panic("renderer crashed")
	}
	if d.fail != nil {
		return d.fail
	}
	d.lines = append(d.lines, speaker.Name+": "+text)
	return nil
}

type memArchive struct {
	memory        map[string]time.Time
	conversations []social.Conversation
	failWrites    bool
}

func newMemArchive() *memArchive {
	return &memArchive{memory: make(map[string]time.Time)}
}

func (a *memArchive) RecordMemory(key string, at time.Time) error {
	if a.failWrites {
		return errors.New("disk full")
	}
	a.memory[key] = at
	return nil
}

func (a *memArchive) RecordConversation(c *social.Conversation) error {
	if a.failWrites {
		return errors.New("disk full")
	}
	a.conversations = append(a.conversations, c.Clone())
	return nil
}

func (a *memArchive) LoadMemory() (map[string]time.Time, error) {
	return a.memory, nil
}
