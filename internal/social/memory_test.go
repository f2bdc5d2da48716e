package social_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/campfire/internal/social"
)

func TestPairKeyIsUnordered(t *testing.T) {
	assert.Equal(t, social.PairKey("Lena", "Bram"), social.PairKey("Bram", "Lena"))
	assert.NotEqual(t, social.PairKey("Lena", "Bram"), social.PairKey("Lena", "Finn"))

	a, b, ok := social.SplitPairKey(social.PairKey("Lena", "Bram"))
	require.True(t, ok)
	assert.Equal(t, "Bram", a)
	assert.Equal(t, "Lena", b)
}

func TestMemoryOverwritesPerPair(t *testing.T) {
	m := social.NewMemory()
	m.Record("Lena", "Bram", epoch)
	m.Record("Bram", "Lena", epoch.Add(time.Minute))
	m.Record("Lena", "Finn", epoch)

	assert.Equal(t, 2, m.Len())
	last, ok := m.Last("Lena", "Bram")
	require.True(t, ok)
	assert.Equal(t, epoch.Add(time.Minute), last)

	// An older write never replaces a newer one.
	m.Record("Lena", "Bram", epoch)
	last, _ = m.Last("Bram", "Lena")
	assert.Equal(t, epoch.Add(time.Minute), last)

	since, ok := m.Since("Lena", "Bram", epoch.Add(6*time.Minute))
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute, since)

	_, ok = m.Since("Lena", "Nobody", epoch)
	assert.False(t, ok)
}

func TestMemoryRestoreKeepsMostRecent(t *testing.T) {
	m := social.NewMemory()
	m.Record("Lena", "Bram", epoch.Add(time.Hour))
	m.Restore(map[string]time.Time{
		social.PairKey("Lena", "Bram"): epoch,
		social.PairKey("Iris", "Finn"): epoch,
	})

	assert.Equal(t, 2, m.Len())
	snap := m.Snapshot()
	assert.Equal(t, epoch.Add(time.Hour), snap[social.PairKey("Bram", "Lena")])
}
