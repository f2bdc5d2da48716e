package social

// Stats summarizes conversation activity.
type Stats struct {
	TotalConversations int           `json:"total_conversations"`
	ActiveDialogues    int           `json:"active_dialogues"`
	EndedConversations int           `json:"ended_conversations"`
	AvgTurns           float64       `json:"avg_turns"` // Mean messages per ended conversation
	TopicCounts        map[Topic]int `json:"topic_counts"`
}

// Stats returns counters accumulated since the manager was created. They
// survive history trimming.
func (m *Manager) Stats() Stats {
	st := Stats{
		TotalConversations: m.counters.started,
		ActiveDialogues:    len(m.active),
		EndedConversations: m.counters.ended,
		TopicCounts:        make(map[Topic]int, len(Topics)),
	}
	for _, t := range Topics {
		st.TopicCounts[t] = m.counters.topics[t]
	}
	if m.counters.ended > 0 {
		st.AvgTurns = float64(m.counters.endedTurns) / float64(m.counters.ended)
	}
	return st
}
