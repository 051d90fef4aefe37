// Package home is the learner dashboard: overall progress, badges and the
// entry points to each day, the score card and the certificate.
package home

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/engine"
	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/router"
	"github.com/iamsmart/masterclass/internal/screen"
	"github.com/iamsmart/masterclass/internal/screens/day"
	"github.com/iamsmart/masterclass/internal/ui/components"
	"github.com/iamsmart/masterclass/internal/ui/layout"
	"github.com/iamsmart/masterclass/internal/ui/theme"
)

// HomeScreen is the dashboard.
type HomeScreen struct {
	env  screen.Env
	menu components.Menu
}

var (
	_ screen.Screen  = (*HomeScreen)(nil)
	_ screen.Resumer = (*HomeScreen)(nil)
)

// New creates the dashboard for the started engine in env.
func New(env screen.Env) *HomeScreen {
	h := &HomeScreen{env: env}
	h.refresh()
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "Dashboard"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "s", Description: "Score card"},
		{Key: "q", Description: "Quit"},
	}
}

// Resume rebuilds the menu when a day, modal or score card closes.
func (h *HomeScreen) Resume() tea.Cmd {
	h.refresh()
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "q":
			return h, tea.Quit
		case "s":
			return h, h.openScoreCard()
		}
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

// refresh rebuilds the menu from the engine's lock and completion state.
func (h *HomeScreen) refresh() {
	e := h.env.Engine
	var items []components.MenuItem
	prevDone := true
	for _, d := range e.Days() {
		d := d
		done, _ := e.DayComplete(d)
		item := components.MenuItem{
			Label:  h.dayTitle(d),
			Action: func() tea.Cmd { return h.enterDay(d) },
		}
		switch {
		case done:
			item.Note = "✓ complete"
		case !prevDone:
			item.Note = "🔒 finish the previous day first"
		}
		prevDone = done
		items = append(items, item)
	}

	sc := e.ScoreCard()
	certItem := components.MenuItem{Label: "Certificate", Action: h.requestCertificate}
	if sc.ProgressPercent < 100 {
		certItem.Note = "🔒 complete every day"
	}
	items = append(items,
		components.MenuItem{Label: "Score card", Action: h.openScoreCard},
		certItem,
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	)

	selected := h.menu.Selected
	h.menu = components.NewMenu(items)
	if selected > 0 {
		h.menu.Select(selected)
	}
}

func (h *HomeScreen) dayTitle(d curriculum.DayID) string {
	if h.env.Content != nil {
		if t := h.env.Content.DayTitle(d); t != "" {
			return t
		}
	}
	return string(d)
}

func (h *HomeScreen) enterDay(d curriculum.DayID) tea.Cmd {
	entry, err := h.env.Engine.EnterDay(d)
	if err != nil {
		text := err.Error()
		if errors.Is(err, engine.ErrDayLocked) {
			text = "Complete the previous day to unlock " + h.dayTitle(d)
		}
		return notice(text, true)
	}
	push := func() tea.Msg {
		return router.PushScreenMsg{Screen: day.New(h.env, entry, h.dayTitle(d))}
	}
	if entry.Prompt.IsZero() {
		return push
	}
	return tea.Sequence(push, screen.ShowPrompt(entry.Prompt))
}

func (h *HomeScreen) openScoreCard() tea.Cmd {
	return screen.ShowPrompt(engine.Prompt{Kind: engine.PromptScoreCard})
}

func (h *HomeScreen) requestCertificate() tea.Cmd {
	p, err := h.env.Engine.RequestCertificate()
	if errors.Is(err, engine.ErrCertificateLocked) {
		return notice("Complete every day to unlock your certificate", true)
	}
	if err != nil {
		return notice(err.Error(), true)
	}
	return screen.ShowPrompt(p)
}

func notice(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return screen.NoticeMsg{Text: text, Error: isErr} }
}

func (h *HomeScreen) View(width, height int) string {
	e := h.env.Engine
	cw := components.ContentWidth(width)
	sc := e.ScoreCard()
	p := e.Profile()

	var sections []string

	course := "GenAI Masterclass"
	if h.env.Content != nil && h.env.Content.Course() != "" {
		course = h.env.Content.Course()
	}
	greeting := "Welcome"
	if p.Onboarding != nil && p.Onboarding.Name != "" {
		greeting += ", " + p.Onboarding.Name
	}
	sections = append(sections,
		theme.Title.Render(course),
		theme.Subtitle.Render(greeting))

	bar := components.NewProgressBar("Progress", sc.ProgressPercent, true, cw-4)
	stats := fmt.Sprintf("%s   %s   %s",
		theme.Points.Render(fmt.Sprintf("★ %d points", sc.Stats.TotalPoints)),
		theme.Correct.Render(fmt.Sprintf("✓ %d correct", sc.Stats.TotalCorrect)),
		theme.Subtitle.Render(fmt.Sprintf("%d/%d sections", sc.Completed, sc.Total)))
	sections = append(sections, components.Card(bar.View()+"\n"+stats, cw))

	if !layout.IsCompactWidth(width) {
		sections = append(sections, components.Card(renderBadges(p.Badges(sc.Total)), cw))
	}

	sections = append(sections, lipgloss.NewStyle().Width(cw).Render(h.menu.View()))

	return components.Panel(strings.Join(sections, "\n\n"), width, height)
}

func renderBadges(badges []profile.Badge) string {
	parts := make([]string, 0, len(badges))
	for _, b := range badges {
		if b.Earned {
			parts = append(parts, theme.Points.Render("🏅 "+b.Name))
		} else {
			parts = append(parts, theme.Disabled.Render("○ "+b.Name))
		}
	}
	return strings.Join(parts, "  ")
}
