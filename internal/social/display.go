package social

import (
	"fmt"
	"log/slog"

	"github.com/talgya/campfire/internal/agents"
)

// Display shows a line of dialogue to whoever is watching. Implementations
// may fail; the social system recovers and falls back to the speaker's
// thoughts.
type Display interface {
	Show(speaker, listener *agents.Character, text string) error
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(speaker, listener *agents.Character, text string) error

// Show calls f.
func (f DisplayFunc) Show(speaker, listener *agents.Character, text string) error {
	return f(speaker, listener, text)
}

// LogDisplay writes dialogue to the structured log at debug level.
type LogDisplay struct{}

// Show logs the line.
func (LogDisplay) Show(speaker, listener *agents.Character, text string) error {
	slog.Debug("dialogue", "speaker", speaker.Name, "listener", listener.Name, "text", text)
	return nil
}

// show hands a line to the display. On success the speaker's bubble shows
// the text; on any failure, including a panic, the text lands in the
// speaker's thoughts instead.
func show(d Display, speaker, listener *agents.Character, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("display panic: %v", r)
		}
		if err != nil {
			slog.Warn("display failed, falling back to thoughts", "speaker", speaker.Name, "error", err)
			speaker.Think(text)
			return
		}
		speaker.ShowBubble(text)
	}()
	if d == nil {
		return nil
	}
	return d.Show(speaker, listener, text)
}
