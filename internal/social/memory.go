package social

import (
	"strings"
	"time"
)

// pairSeparator joins the two names of a pair key. Names never contain it.
const pairSeparator = "\x1f"

// PairKey returns the canonical key for an unordered pair: the two names
// sorted and joined.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + pairSeparator + b
}

// SplitPairKey returns the two names of a pair key in sorted order.
func SplitPairKey(key string) (string, string, bool) {
	a, b, ok := strings.Cut(key, pairSeparator)
	return a, b, ok
}

// Memory remembers when each pair of characters last talked. It holds at
// most one entry per unordered pair, always the most recent time.
type Memory struct {
	last map[string]time.Time
}

// NewMemory creates an empty conversation memory.
func NewMemory() *Memory {
	return &Memory{last: make(map[string]time.Time)}
}

// Record notes that a and b talked at the given time. Older times never
// replace newer ones.
func (m *Memory) Record(a, b string, at time.Time) {
	m.recordKey(PairKey(a, b), at)
}

func (m *Memory) recordKey(key string, at time.Time) {
	if prev, ok := m.last[key]; ok && at.Before(prev) {
		return
	}
	m.last[key] = at
}

// Last returns when a and b last talked.
func (m *Memory) Last(a, b string) (time.Time, bool) {
	at, ok := m.last[PairKey(a, b)]
	return at, ok
}

// Since returns how long ago a and b last talked. ok is false for a pair
// that never talked.
func (m *Memory) Since(a, b string, now time.Time) (time.Duration, bool) {
	at, ok := m.Last(a, b)
	if !ok {
		return 0, false
	}
	return now.Sub(at), true
}

// Len returns the number of pairs remembered.
func (m *Memory) Len() int {
	return len(m.last)
}

// Restore merges previously persisted entries, keeping the most recent
// time per pair.
func (m *Memory) Restore(entries map[string]time.Time) {
	for key, at := range entries {
		m.recordKey(key, at)
	}
}

// Snapshot returns a copy of every entry.
func (m *Memory) Snapshot() map[string]time.Time {
	out := make(map[string]time.Time, len(m.last))
	for k, v := range m.last {
		out[k] = v
	}
	return out
}
