// Character memory stream: notable experiences such as finished conversations.

package agents

import (
	"sort"
	"time"
)

const MaxMemories = 50

// Memory records a notable experience in a character's life.
type Memory struct {
	At         time.Time `json:"at"`
	Content    string    `json:"content"`
	Importance float64   `json:"importance"` // 0.0–1.0
}

// AddMemory appends a memory to the character's stream. When full, the
// oldest of the least important memories makes room, unless the new one
// matters less than everything already kept.
func AddMemory(c *Character, at time.Time, content string, importance float64) {
	if c == nil {
		return
	}
	m := Memory{At: at, Content: content, Importance: importance}

	if len(c.Memories) < MaxMemories {
		c.Memories = append(c.Memories, m)
		return
	}

	victim := 0
	for i := 1; i < len(c.Memories); i++ {
		cur, best := c.Memories[i], c.Memories[victim]
		if cur.Importance < best.Importance ||
			(cur.Importance == best.Importance && cur.At.Before(best.At)) {
			victim = i
		}
	}
	if m.Importance < c.Memories[victim].Importance {
		return
	}
	c.Memories = append(c.Memories[:victim], c.Memories[victim+1:]...)
	c.Memories = append(c.Memories, m)
}

// RecentMemories returns the most recent N memories, newest first.
func RecentMemories(c *Character, count int) []Memory {
	if c == nil || len(c.Memories) == 0 {
		return nil
	}

	sorted := make([]Memory, len(c.Memories))
	copy(sorted, c.Memories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.After(sorted[j].At)
	})

	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}

// ImportantMemories returns the top N memories by importance.
func ImportantMemories(c *Character, count int) []Memory {
	if c == nil || len(c.Memories) == 0 {
		return nil
	}

	sorted := make([]Memory, len(c.Memories))
	copy(sorted, c.Memories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Importance > sorted[j].Importance
	})

	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}
