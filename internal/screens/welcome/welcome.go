// Package welcome is the splash shown before the dashboard.
package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/iamsmart/masterclass/internal/router"
	"github.com/iamsmart/masterclass/internal/screen"
	"github.com/iamsmart/masterclass/internal/ui/theme"
)

const (
	frameInterval = 60 * time.Millisecond
	tagline       = "GenAI for working professionals, one section at a time"
)

var deskArt = []string{
	"╭─────────────╮",
	"│  ┌───────┐  │",
	"│  │ > _   │  │",
	"│  │  ✦ AI │  │",
	"│  └───────┘  │",
	"│   ───┬───   │",
	"╰──────┴──────╯",
}

// The splash plays in three stages: the desk draws one row per frame, the
// banner appears, then the tagline types out.
var (
	artFrames    = len(deskArt)
	bannerFrame  = artFrames + 2
	taglineStart = bannerFrame + 2
	revealFrames = taglineStart + len([]rune(tagline))
)

type frameMsg struct{}

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

// WelcomeScreen replaces itself with the dashboard on the first key press.
type WelcomeScreen struct {
	course string
	next   func() screen.Screen
	frame  int
	done   bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New builds the splash. next is called once, when the learner presses a key.
func New(course string, next func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{course: course, next: next}
}

func (w *WelcomeScreen) Title() string { return "" }

func (w *WelcomeScreen) Init() tea.Cmd { return nextFrame() }

// Revealed reports whether the animation has finished.
func (w *WelcomeScreen) Revealed() bool { return w.frame >= revealFrames }

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case frameMsg:
		if w.Revealed() {
			return w, nil
		}
		w.frame++
		return w, nextFrame()
	case tea.KeyPressMsg:
		if w.done {
			return w, nil
		}
		w.done = true
		dash := w.next()
		return w, func() tea.Msg { return router.ReplaceScreenMsg{Screen: dash} }
	}
	return w, nil
}

func (w *WelcomeScreen) View(width, height int) string {
	desk := lipgloss.NewStyle().Foreground(theme.Primary)
	rows := min(w.frame, artFrames)
	parts := []string{desk.Render(strings.Join(deskArt[:rows], "\n"))}

	if w.frame >= bannerFrame {
		parts = append(parts, "", RenderBanner(width))
		if w.course != "" {
			parts = append(parts, theme.Subtitle.Render(w.course))
		}
	}
	if w.frame >= taglineStart {
		typed := []rune(tagline)[:min(w.frame-taglineStart, len([]rune(tagline)))]
		parts = append(parts, "", lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(string(typed)))
	}
	if w.Revealed() {
		parts = append(parts, "", theme.Hint.Render("press any key to continue"))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(parts, "\n"))
}
