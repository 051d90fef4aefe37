package screen

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/engine"
	"github.com/iamsmart/masterclass/internal/tutor"
	"github.com/iamsmart/masterclass/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Env is what every course screen needs from the running application.
type Env struct {
	Engine  *engine.Engine
	Content *curriculum.Catalog
	Tutor   *tutor.Tutor
}

// ShowPromptMsg asks the application to open the modal for Prompt.
type ShowPromptMsg struct {
	Prompt engine.Prompt
}

// ShowPrompt returns a command that opens p after its delay. A zero prompt
// yields nil.
func ShowPrompt(p engine.Prompt) tea.Cmd {
	if p.IsZero() {
		return nil
	}
	msg := ShowPromptMsg{Prompt: p}
	if p.Delay <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(p.Delay, func(time.Time) tea.Msg { return msg })
}

// NoticeMsg shows a transient line above the footer.
type NoticeMsg struct {
	Text  string
	Error bool
}

// Resumer is implemented by screens that re-read state when a screen on top
// of them closes.
type Resumer interface {
	Resume() tea.Cmd
}

// Modal is implemented by screens that must be finished, not dismissed.
// The application ignores Esc while a blocking modal is active.
type Modal interface {
	Blocking() bool
}
