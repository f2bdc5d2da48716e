package social_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/entropy"
	"github.com/talgya/campfire/internal/social"
)

type harness struct {
	sys     *social.System
	clock   *social.ManualClock
	display *recordingDisplay
	archive *memArchive
	lena    *agents.Character
	bram    *agents.Character
}

// newHarness places two characters far enough apart that ticks never start
// a conversation on their own.
func newHarness(t *testing.T, rng entropy.Source, params *social.Params) *harness {
	t.Helper()
	h := &harness{
		clock:   social.NewManualClock(epoch),
		display: &recordingDisplay{},
		archive: newMemArchive(),
		lena:    calm("Lena", 0, 0),
		bram:    calm("Bram", 200, 0),
	}
	h.sys = social.NewSystem(social.Options{
		Params:  params,
		Clock:   h.clock,
		Rand:    rng,
		Display: h.display,
		Archive: h.archive,
	})
	return h
}

func (h *harness) run(seconds int, chars ...*agents.Character) {
	if chars == nil {
		chars = []*agents.Character{h.lena, h.bram}
	}
	for i := 0; i < seconds; i++ {
		h.clock.Advance(time.Second)
		h.sys.ProcessTick(chars)
	}
}

func TestConversationRunsToTurnCap(t *testing.T) {
	h := newHarness(t, entropy.Constant(0), nil)

	c, err := h.sys.Start(h.lena, h.bram)
	require.NoError(t, err)
	assert.Equal(t, social.TopicSurvival, c.Topic)
	assert.Equal(t, social.StateCreated, c.State)
	require.Len(t, c.Messages, 1)
	assert.Equal(t, "Do you know where we can find water?", c.Messages[0].Text)
	assert.Equal(t, 1, h.sys.PendingTurns())
	assert.Equal(t, c.Messages[0].Text, h.lena.Bubble)

	h.run(30)

	assert.Empty(t, h.sys.ActiveDialogues())
	assert.Equal(t, 0, h.sys.PendingTurns())
	done := h.sys.RecentConversations(1)
	require.Len(t, done, 1)
	got := done[0]
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, social.EndTurnCap, got.EndReason)
	assert.Equal(t, social.StateEnded, got.State)
	assert.False(t, got.Active)
	require.Len(t, got.Messages, 6)

	wantOffsets := []time.Duration{0, 2 * time.Second, 5 * time.Second, 8 * time.Second, 11 * time.Second, 14 * time.Second}
	for i, msg := range got.Messages {
		if i%2 == 0 {
			assert.Equal(t, "Lena", msg.Speaker)
			assert.Equal(t, "Bram", msg.Listener)
		} else {
			assert.Equal(t, "Bram", msg.Speaker)
		}
		assert.Equal(t, epoch.Add(wantOffsets[i]), msg.At, "message %d", i)
		if i > 0 {
			assert.True(t, msg.At.After(got.Messages[i-1].At))
		}
	}
	assert.False(t, got.EndTime.Before(got.Messages[5].At))
	assert.Len(t, h.display.lines, 6)

	st := h.sys.Stats()
	assert.Equal(t, 1, st.TotalConversations)
	assert.Equal(t, 1, st.EndedConversations)
	assert.Equal(t, 0, st.ActiveDialogues)
	assert.InDelta(t, 6.0, st.AvgTurns, 1e-9)
	assert.Equal(t, 1, st.TopicCounts[social.TopicSurvival])
	assert.Equal(t, 0, st.TopicCounts[social.TopicPhilosophical])

	require.Len(t, h.lena.Memories, 1)
	assert.Equal(t, "Talked with Bram about survival", h.lena.Memories[0].Content)
	assert.InDelta(t, 0.6, h.lena.Memories[0].Importance, 1e-9)
	require.Len(t, h.bram.Memories, 1)
}

func TestConversationEndsWhenDrawFails(t *testing.T) {
	h := newHarness(t, entropy.Constant(0.9), nil)

	_, err := h.sys.Start(h.lena, h.bram)
	require.NoError(t, err)
	h.run(10)

	done := h.sys.RecentConversations(5)
	require.Len(t, done, 1)
	assert.Equal(t, social.EndFinished, done[0].EndReason)
	assert.Len(t, done[0].Messages, 2)
	assert.InDelta(t, 2.0, h.sys.Stats().AvgTurns, 1e-9)
}

func TestConversationEndsWhenParticipantLeaves(t *testing.T) {
	t.Run("missing from tick", func(t *testing.T) {
		h := newHarness(t, entropy.Constant(0), nil)
		_, err := h.sys.Start(h.lena, h.bram)
		require.NoError(t, err)

		h.run(5, h.lena)

		done := h.sys.RecentConversations(1)
		require.Len(t, done, 1)
		assert.Equal(t, social.EndParticipantGone, done[0].EndReason)
		assert.Len(t, done[0].Messages, 1)
		assert.Equal(t, 0, h.sys.PendingTurns())
	})

	t.Run("died", func(t *testing.T) {
		h := newHarness(t, entropy.Constant(0), nil)
		_, err := h.sys.Start(h.lena, h.bram)
		require.NoError(t, err)

		h.bram.Alive = false
		h.run(5)

		done := h.sys.RecentConversations(1)
		require.Len(t, done, 1)
		assert.Equal(t, social.EndParticipantGone, done[0].EndReason)
		assert.Empty(t, h.bram.Memories)
		assert.Len(t, h.lena.Memories, 1)
	})
}

func TestPairGuard(t *testing.T) {
	h := newHarness(t, entropy.Constant(0), nil)

	_, err := h.sys.Start(h.lena, h.bram)
	require.NoError(t, err)

	_, err = h.sys.Start(h.bram, h.lena)
	require.ErrorIs(t, err, social.ErrPairEngaged)
	_, err = h.sys.Start(h.lena, h.bram)
	require.ErrorIs(t, err, social.ErrPairEngaged)
	assert.Len(t, h.sys.ActiveDialogues(), 1)
	assert.Equal(t, 1, h.sys.Stats().TotalConversations)

	// A different pair involving the same character is allowed.
	iris := calm("Iris", 400, 0)
	_, err = h.sys.Start(h.lena, iris)
	require.NoError(t, err)
	assert.Len(t, h.sys.ActiveDialogues(), 2)
}

func TestStartRejectsInvalidParticipants(t *testing.T) {
	h := newHarness(t, entropy.Constant(0), nil)

	_, err := h.sys.Start(h.lena, h.lena)
	assert.ErrorIs(t, err, social.ErrParticipantInvalid)
	_, err = h.sys.Start(h.lena, nil)
	assert.ErrorIs(t, err, social.ErrParticipantInvalid)

	h.bram.Alive = false
	_, err = h.sys.Start(h.lena, h.bram)
	assert.ErrorIs(t, err, social.ErrParticipantInvalid)
	assert.Equal(t, 0, h.sys.Stats().TotalConversations)
}

func TestDisplayFailureFallsBackToThoughts(t *testing.T) {
	cases := map[string]*recordingDisplay{
		"error": {fail: errors.New("no renderer")},
		"panic": {panic: true},
	}
	for name, display := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, entropy.Constant(0), nil)
			h.sys = social.NewSystem(social.Options{
				Clock:   h.clock,
				Rand:    entropy.Constant(0),
				Display: display,
			})

			c, err := h.sys.Start(h.lena, h.bram)
			require.NoError(t, err)
			assert.Equal(t, c.Messages[0].Text, h.lena.Thoughts)
			assert.Empty(t, h.lena.Bubble)

			// The conversation carries on regardless.
			h.run(3)
			active := h.sys.ActiveDialogues()
			require.Len(t, active, 1)
			assert.Len(t, active[0].Messages, 2)
			assert.NotEmpty(t, h.bram.Thoughts)
		})
	}
}

func TestShutdownEndsEverything(t *testing.T) {
	h := newHarness(t, entropy.Constant(0), nil)
	_, err := h.sys.Start(h.lena, h.bram)
	require.NoError(t, err)

	h.sys.Shutdown()
	assert.Equal(t, 0, h.sys.PendingTurns())
	assert.Empty(t, h.sys.ActiveDialogues())
	done := h.sys.RecentConversations(1)
	require.Len(t, done, 1)
	assert.Equal(t, social.EndShutdown, done[0].EndReason)

	// Ticks after shutdown are ignored.
	h.lena.Position = h.bram.Position
	h.run(10)
	after := h.sys.RecentConversations(5)
	require.Len(t, after, 1)
	assert.Len(t, after[0].Messages, 1)
	assert.Equal(t, 1, h.sys.Stats().TotalConversations)

	_, err = h.sys.Start(h.lena, h.bram)
	assert.Error(t, err)

	h.sys.Shutdown()
}

func TestArchiveReceivesMemoryAndConversations(t *testing.T) {
	h := newHarness(t, entropy.Constant(0.9), nil)

	_, err := h.sys.Start(h.lena, h.bram)
	require.NoError(t, err)
	h.run(10)

	assert.Equal(t, epoch, h.archive.memory[social.PairKey("Lena", "Bram")])
	require.Len(t, h.archive.conversations, 1)
	assert.Equal(t, social.EndFinished, h.archive.conversations[0].EndReason)
}

func TestArchiveFailuresAreTolerated(t *testing.T) {
	h := newHarness(t, entropy.Constant(0.9), nil)
	h.archive.failWrites = true

	_, err := h.sys.Start(h.lena, h.bram)
	require.NoError(t, err)
	h.run(10)

	assert.Len(t, h.sys.RecentConversations(1), 1)
	_, ok := h.sys.LastTalked("Bram", "Lena")
	assert.True(t, ok, "in-memory record survives archive failure")
}

func TestRestoreMemory(t *testing.T) {
	h := newHarness(t, entropy.Constant(0), nil)
	h.archive.memory[social.PairKey("Lena", "Bram")] = epoch.Add(-time.Hour)

	require.NoError(t, h.sys.RestoreMemory())
	assert.Equal(t, 1, h.sys.MemorySize())
	last, ok := h.sys.LastTalked("Lena", "Bram")
	require.True(t, ok)
	assert.Equal(t, epoch.Add(-time.Hour), last)

	// Without an archive restoring is a no-op.
	bare := social.NewSystem(social.Options{})
	assert.NoError(t, bare.RestoreMemory())
}

func TestAcquaintances(t *testing.T) {
	h := newHarness(t, entropy.Constant(0), nil)
	h.archive.memory[social.PairKey("Lena", "Bram")] = epoch.Add(-time.Hour)
	h.archive.memory[social.PairKey("Iris", "Finn")] = epoch.Add(-2 * time.Hour)
	h.archive.memory[social.PairKey("Lena", "Iris")] = epoch.Add(-3 * time.Hour)
	require.NoError(t, h.sys.RestoreMemory())

	assert.Equal(t, map[string]time.Time{
		"Bram": epoch.Add(-time.Hour),
		"Iris": epoch.Add(-3 * time.Hour),
	}, h.sys.Acquaintances("Lena"))
	assert.Empty(t, h.sys.Acquaintances("Nobody"))
}

func TestHistoryIsBounded(t *testing.T) {
	params := social.DefaultParams()
	params.HistoryLimit = 2
	h := newHarness(t, entropy.Constant(0.9), &params)

	var ids []string
	for i := 0; i < 3; i++ {
		c, err := h.sys.Start(h.lena, h.bram)
		require.NoError(t, err)
		ids = append(ids, c.ID)
		h.run(6)
	}

	assert.Len(t, ids, 3)
	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])

	recent := h.sys.RecentConversations(10)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[1], recent[1].ID)

	st := h.sys.Stats()
	assert.Equal(t, 3, st.TotalConversations)
	assert.Equal(t, 3, st.EndedConversations)
}
