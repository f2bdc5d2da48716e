package social

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is where a conversation is in its lifecycle.
type State uint8

const (
	StateCreated     State = iota // Opening line spoken
	StateTurnPending              // Waiting on a scheduled reply
	StateEnded                    // Finished; no further mutation
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateTurnPending:
		return "turn_pending"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// End reasons.
const (
	EndFinished        = "finished"         // Continuation draw failed
	EndTurnCap         = "turn_cap"         // Reached MaxMessages
	EndParticipantGone = "participant_gone" // A participant left the world
	EndShutdown        = "shutdown"         // The owning session was torn down
)

// Message is one turn of a conversation.
type Message struct {
	Speaker  string    `json:"speaker"`
	Listener string    `json:"listener"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
	Emotion  Emotion   `json:"emotion"`
}

// Conversation is a bounded exchange between two characters. Participants
// alternate, starting with the initiator at index 0.
type Conversation struct {
	ID           string    `json:"id"`
	Participants [2]string `json:"participants"`
	Topic        Topic     `json:"topic"`
	Messages     []Message `json:"messages"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Active       bool      `json:"active"`
	State        State     `json:"state"`
	EndReason    string    `json:"end_reason,omitempty"`
}

// PairKey returns the canonical key of an unordered pair of names.
func (c *Conversation) PairKey() string {
	return PairKey(c.Participants[0], c.Participants[1])
}

// Turns returns the number of messages spoken.
func (c *Conversation) Turns() int {
	return len(c.Messages)
}

// Clone returns a deep copy safe to hand outside the system.
func (c *Conversation) Clone() Conversation {
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	return out
}

// conversationNamespace scopes the name-based UUIDs of conversations.
var conversationNamespace = uuid.MustParse("6f1c2a9e-3b7d-4c51-9a0e-2d8f4b6c1e73")

// conversationID derives a stable id from the pair, the start time and a
// sequence number that separates conversations started in the same instant.
func conversationID(pairKey string, start time.Time, seq uint64) string {
	name := fmt.Sprintf("%s@%d#%d", pairKey, start.UnixMilli(), seq)
	return uuid.NewSHA1(conversationNamespace, []byte(name)).String()
}
