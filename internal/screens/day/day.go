// Package day lists one day's sections with their lock state.
package day

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/iamsmart/masterclass/internal/engine"
	"github.com/iamsmart/masterclass/internal/router"
	"github.com/iamsmart/masterclass/internal/screen"
	"github.com/iamsmart/masterclass/internal/screens/section"
	"github.com/iamsmart/masterclass/internal/ui/components"
	"github.com/iamsmart/masterclass/internal/ui/layout"
	"github.com/iamsmart/masterclass/internal/ui/theme"
)

// DayScreen shows the sections of an entered day.
type DayScreen struct {
	env   screen.Env
	entry engine.Entry
	title string
	menu  components.Menu
}

var (
	_ screen.Screen  = (*DayScreen)(nil)
	_ screen.Resumer = (*DayScreen)(nil)
)

// New creates the section list for entry.
func New(env screen.Env, entry engine.Entry, title string) *DayScreen {
	d := &DayScreen{env: env, entry: entry, title: title}
	d.rebuild()
	d.menu.Select(d.firstOpen())
	return d
}

func (d *DayScreen) Init() tea.Cmd { return nil }

func (d *DayScreen) Title() string { return d.title }

func (d *DayScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open section"},
	}
}

// Resume picks up sections committed on the screen that just closed.
func (d *DayScreen) Resume() tea.Cmd {
	d.refresh()
	return nil
}

func (d *DayScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	d.menu, cmd = d.menu.Update(msg)
	return d, cmd
}

// refresh re-reads lock and completion state after a section was committed.
func (d *DayScreen) refresh() {
	entry, err := d.env.Engine.EnterDay(d.entry.Day)
	if err != nil {
		return
	}
	entry.Prompt = engine.Prompt{}
	d.entry = entry
	d.rebuild()
}

func (d *DayScreen) rebuild() {
	items := make([]components.MenuItem, len(d.entry.Sections))
	for i, s := range d.entry.Sections {
		s := s
		item := components.MenuItem{
			Label:  fmt.Sprintf("%s %2d. %s", marker(s), i+1, s.Title),
			Action: func() tea.Cmd { return d.open(s) },
		}
		if s.Locked {
			item.Note = "locked"
		}
		items[i] = item
	}
	selected := d.menu.Selected
	d.menu = components.NewMenu(items)
	d.menu.Select(selected)
}

// firstOpen is the index of the first unlocked, incomplete section.
func (d *DayScreen) firstOpen() int {
	for i, s := range d.entry.Sections {
		if !s.Locked && !s.Completed {
			return i
		}
	}
	return 0
}

func (d *DayScreen) open(s engine.SectionState) tea.Cmd {
	if s.Locked {
		return func() tea.Msg {
			return screen.NoticeMsg{Text: "Complete the previous section to unlock this one", Error: true}
		}
	}
	next := section.New(d.env, d.entry.Day, s.Index, s.Completed)
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func marker(s engine.SectionState) string {
	switch {
	case s.Completed:
		return "✓"
	case s.Locked:
		return "🔒"
	default:
		return "•"
	}
}

func (d *DayScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	done := 0
	for _, s := range d.entry.Sections {
		if s.Completed {
			done++
		}
	}
	pct := 0
	if n := len(d.entry.Sections); n > 0 {
		pct = done * 100 / n
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(d.title))
	b.WriteString("\n\n")
	b.WriteString(components.NewProgressBar("", pct, true, cw).View())
	b.WriteString("\n\n")
	b.WriteString(d.menu.View())
	if done == len(d.entry.Sections) && done > 0 {
		b.WriteString("\n")
		b.WriteString(theme.Correct.Render("Day complete! Press Esc to return to the dashboard."))
	}
	return components.Panel(b.String(), width, height)
}
