package persistence_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/engine"
	"github.com/talgya/campfire/internal/entropy"
	"github.com/talgya/campfire/internal/persistence"
	"github.com/talgya/campfire/internal/social"
	"github.com/talgya/campfire/internal/world"
)

var epoch = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func openDB(t *testing.T) *persistence.DB {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "campfire.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMemoryRoundTripKeepsNewest(t *testing.T) {
	db := openDB(t)
	key := social.PairKey("Lena", "Bram")

	require.NoError(t, db.RecordMemory(key, epoch.Add(time.Minute)))
	require.NoError(t, db.RecordMemory(key, epoch))
	require.NoError(t, db.RecordMemory(social.PairKey("Iris", "Finn"), epoch))

	got, err := db.LoadMemory()
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, epoch.Add(time.Minute), got[key])
}

func TestConversationArchive(t *testing.T) {
	db := openDB(t)

	c := &social.Conversation{
		ID:           "c-1",
		Participants: [2]string{"Lena", "Bram"},
		Topic:        social.TopicPlanning,
		StartTime:    epoch,
		EndTime:      epoch.Add(5 * time.Second),
		State:        social.StateEnded,
		EndReason:    social.EndFinished,
		Messages: []social.Message{
			{Speaker: "Lena", Listener: "Bram", Text: "We should build a shelter.", At: epoch, Emotion: social.EmotionFocused},
			{Speaker: "Bram", Listener: "Lena", Text: "Good idea.", At: epoch.Add(3 * time.Second), Emotion: social.EmotionFocused},
		},
	}
	require.NoError(t, db.RecordConversation(c))
	// Re-recording replaces rather than duplicates.
	require.NoError(t, db.RecordConversation(c))

	later := &social.Conversation{
		ID:           "c-2",
		Participants: [2]string{"Iris", "Finn"},
		Topic:        social.TopicSocial,
		StartTime:    epoch.Add(time.Minute),
		EndTime:      epoch.Add(2 * time.Minute),
		EndReason:    social.EndShutdown,
		Messages:     []social.Message{{Speaker: "Iris", Listener: "Finn", Text: "Hi", At: epoch.Add(time.Minute)}},
	}
	require.NoError(t, db.RecordConversation(later))

	got, err := db.RecentConversations(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c-2", got[0].ID)

	first := got[1]
	assert.Equal(t, [2]string{"Lena", "Bram"}, first.Participants)
	assert.Equal(t, social.TopicPlanning, first.Topic)
	assert.Equal(t, social.EndFinished, first.EndReason)
	assert.Equal(t, epoch.Add(5*time.Second), first.EndTime)
	require.Len(t, first.Messages, 2)
	assert.Equal(t, "Bram", first.Messages[1].Speaker)
	assert.Equal(t, "Good idea.", first.Messages[1].Text)
	assert.Equal(t, social.EmotionFocused, first.Messages[1].Emotion)
	assert.Equal(t, epoch.Add(3*time.Second), first.Messages[1].At)
}

func TestCharactersRoundTrip(t *testing.T) {
	db := openDB(t)

	chars := []agents.Character{
		{
			ID:        1,
			Name:      "Lena Hart",
			Position:  world.Point{X: 12.5, Y: 40},
			Hunger:    30,
			Thirst:    20,
			Energy:    70,
			Traits:    agents.Traits{agents.TraitCuriosity: 0.8},
			Archetype: "Scout",
			Inventory: &agents.Inventory{Wood: 4, Food: 1},
			Memories:  []agents.Memory{{At: epoch, Content: "Talked with Bram about planning", Importance: 0.3}},
			Bubble:    "Hello",
			Alive:     true,
		},
		{ID: 2, Name: "Bram Stone", Alive: false},
	}
	require.NoError(t, db.SaveCharacters(chars))

	got, err := db.LoadCharacters()
	require.NoError(t, err)
	require.Len(t, got, 2)

	lena := got[0]
	assert.Equal(t, "Lena Hart", lena.Name)
	assert.Equal(t, world.Point{X: 12.5, Y: 40}, lena.Position)
	assert.InDelta(t, 0.8, lena.Trait(agents.TraitCuriosity), 1e-9)
	require.NotNil(t, lena.Inventory)
	assert.Equal(t, 4, lena.Inventory.Wood)
	require.Len(t, lena.Memories, 1)
	assert.True(t, lena.Memories[0].At.Equal(epoch))
	assert.True(t, lena.Alive)

	assert.False(t, got[1].Alive)
	assert.Nil(t, got[1].Inventory)

	// A second save is a full replace.
	require.NoError(t, db.SaveCharacters(chars[:1]))
	got, err = db.LoadCharacters()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSaveCharactersReportsUnencodableState(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.SaveCharacters([]agents.Character{{ID: 1, Name: "Lena", Alive: true}}))

	bad := agents.Character{
		ID:       1,
		Name:     "Lena",
		Alive:    true,
		Memories: []agents.Memory{{At: epoch, Content: "broken", Importance: math.NaN()}},
	}
	err := db.SaveCharacters([]agents.Character{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal memories of 1")

	// The failed save rolled back; the previous roster survives.
	got, err := db.LoadCharacters()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Memories)
}

func TestMeta(t *testing.T) {
	db := openDB(t)

	v, err := db.GetMeta("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	tick, err := db.LastTick()
	require.NoError(t, err)
	assert.Zero(t, tick)

	require.NoError(t, db.SaveMeta(persistence.MetaLastTick, "1440"))
	tick, err = db.LastTick()
	require.NoError(t, err)
	assert.Equal(t, uint64(1440), tick)
}

func TestSaveWorldState(t *testing.T) {
	db := openDB(t)

	lena := &agents.Character{ID: 1, Name: "Lena", Position: world.Point{X: 40, Y: 40}, Hunger: 10, Thirst: 10, Energy: 90, Alive: true}
	bram := &agents.Character{ID: 2, Name: "Bram", Position: world.Point{X: 50, Y: 40}, Hunger: 10, Thirst: 10, Energy: 90, Alive: true}
	sim := engine.NewSimulation(engine.Config{
		Map:        world.NewMap(100, 100, 10),
		Characters: []*agents.Character{lena, bram},
		Rand:       entropy.Constant(0),
		Archive:    db,
	})
	for tick := uint64(1); tick <= 20; tick++ {
		sim.Tick(tick)
	}

	require.NoError(t, db.SaveWorldState(sim))

	tick, err := db.LastTick()
	require.NoError(t, err)
	assert.Equal(t, uint64(20), tick)

	chars, err := db.LoadCharacters()
	require.NoError(t, err)
	assert.Len(t, chars, 2)

	events, err := db.RecentEvents(context.Background(), 100)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
	assert.Equal(t, engine.CategoryDialogue, events[len(events)-1].Category)

	// The social system archived through the same database.
	memory, err := db.LoadMemory()
	require.NoError(t, err)
	assert.Contains(t, memory, social.PairKey("Lena", "Bram"))
	convs, err := db.RecentConversations(context.Background(), 5)
	require.NoError(t, err)
	require.NotEmpty(t, convs)
	assert.Equal(t, social.EndTurnCap, convs[0].EndReason)

	// Saving again without new events does not duplicate them.
	require.NoError(t, db.SaveWorldState(sim))
	again, err := db.RecentEvents(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, again, len(events))
}
