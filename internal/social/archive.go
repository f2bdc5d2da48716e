package social

import "time"

// Archive persists what the social system wants to outlive the process:
// conversation memory and finished conversations. Writes are best-effort.
type Archive interface {
	RecordMemory(pairKey string, at time.Time) error
	RecordConversation(c *Conversation) error
	LoadMemory() (map[string]time.Time, error)
}
