package social_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/campfire/internal/social"
)

func TestTimersFireInDueOrder(t *testing.T) {
	timers := social.NewTimers()
	var fired []string
	record := func(id string) func(time.Time) {
		return func(time.Time) { fired = append(fired, id) }
	}

	timers.At("c", epoch.Add(3*time.Second), record("c"))
	timers.At("a", epoch.Add(1*time.Second), record("a"))
	timers.At("b", epoch.Add(1*time.Second), record("b"))
	require.Equal(t, 3, timers.Pending())

	assert.Equal(t, 0, timers.RunDue(epoch))
	assert.Equal(t, 2, timers.RunDue(epoch.Add(2*time.Second)))
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, 1, timers.RunDue(epoch.Add(time.Hour)))
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Equal(t, 0, timers.Pending())
}

func TestTimersCancelAndReplace(t *testing.T) {
	timers := social.NewTimers()
	calls := 0
	inc := func(time.Time) { calls++ }

	timers.At("x", epoch.Add(time.Second), inc)
	timers.At("x", epoch.Add(5*time.Second), inc)
	assert.Equal(t, 1, timers.Pending(), "rescheduling replaces")

	due, ok := timers.Due("x")
	require.True(t, ok)
	assert.Equal(t, epoch.Add(5*time.Second), due)

	assert.True(t, timers.Cancel("x"))
	assert.False(t, timers.Cancel("x"))
	timers.RunDue(epoch.Add(time.Minute))
	assert.Equal(t, 0, calls)

	timers.At("y", epoch, inc)
	timers.At("z", epoch, inc)
	assert.Equal(t, 2, timers.CancelAll())
	timers.RunDue(epoch.Add(time.Minute))
	assert.Equal(t, 0, calls)
}

func TestTimersCallbackCanReschedule(t *testing.T) {
	timers := social.NewTimers()
	var at []time.Time
	var tick func(now time.Time)
	tick = func(now time.Time) {
		at = append(at, now)
		if len(at) < 3 {
			timers.At("loop", now.Add(time.Second), tick)
		}
	}
	timers.At("loop", epoch.Add(time.Second), tick)

	for i := 1; i <= 5; i++ {
		timers.RunDue(epoch.Add(time.Duration(i) * time.Second))
	}
	assert.Len(t, at, 3)
	assert.Equal(t, 0, timers.Pending())
}
