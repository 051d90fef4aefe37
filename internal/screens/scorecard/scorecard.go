// Package scorecard shows running totals, per-day completion and badges.
package scorecard

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/engine"
	"github.com/iamsmart/masterclass/internal/router"
	"github.com/iamsmart/masterclass/internal/screen"
	"github.com/iamsmart/masterclass/internal/ui/components"
	"github.com/iamsmart/masterclass/internal/ui/layout"
	"github.com/iamsmart/masterclass/internal/ui/theme"
)

// ScoreCardScreen is shown after each day's feedback form and on demand
// from the dashboard.
type ScoreCardScreen struct {
	env screen.Env
	day curriculum.DayID
	err string
}

var _ screen.Screen = (*ScoreCardScreen)(nil)

// New creates a score card. day is the day that was just finished, or ""
// when opened from the dashboard.
func New(env screen.Env, day curriculum.DayID) *ScoreCardScreen {
	return &ScoreCardScreen{env: env, day: day}
}

func (s *ScoreCardScreen) Init() tea.Cmd { return nil }

func (s *ScoreCardScreen) Title() string { return "Score card" }

func (s *ScoreCardScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "c", Description: "Certificate"},
		{Key: "Enter", Description: "Close"},
	}
}

func (s *ScoreCardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch k.String() {
	case "enter":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "c":
		p, err := s.env.Engine.RequestCertificate()
		if errors.Is(err, engine.ErrCertificateLocked) {
			s.err = "Finish every day to unlock your certificate."
			return s, nil
		}
		if err != nil {
			s.err = err.Error()
			return s, nil
		}
		pop := func() tea.Msg { return router.PopScreenMsg{} }
		return s, tea.Sequence(pop, screen.ShowPrompt(p))
	}
	return s, nil
}

func (s *ScoreCardScreen) View(width, height int) string {
	e := s.env.Engine
	sc := e.ScoreCard()
	cw := components.ContentWidth(width)

	var b strings.Builder
	if s.day != "" {
		b.WriteString(theme.Correct.Render(fmt.Sprintf("🎉 %s complete!", s.dayTitle(s.day))))
		b.WriteString("\n\n")
	}
	b.WriteString(theme.Title.Render("Your score card"))
	b.WriteString("\n\n")
	b.WriteString(components.NewProgressBar("Course", sc.ProgressPercent, true, cw-4).View())
	b.WriteString("\n\n")

	rows := [][2]string{
		{"Points", theme.Points.Render(fmt.Sprint(sc.Stats.TotalPoints))},
		{"Correct answers", theme.Correct.Render(fmt.Sprint(sc.Stats.TotalCorrect))},
		{"Incorrect answers", theme.Incorrect.Render(fmt.Sprint(sc.Stats.TotalIncorrect))},
		{"Sections", fmt.Sprintf("%d/%d", sc.Completed, sc.Total)},
	}
	for _, d := range e.Days() {
		status := theme.Disabled.Render("in progress")
		if sc.DaysComplete[d] {
			status = theme.Correct.Render("complete")
		}
		rows = append(rows, [2]string{s.dayTitle(d), status})
	}
	var table strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&table, "%-32s %s\n", theme.Body.Render(r[0]), r[1])
	}
	b.WriteString(components.Card(strings.TrimRight(table.String(), "\n"), cw))

	b.WriteString("\n\n")
	for _, badge := range e.Profile().Badges(sc.Total) {
		if badge.Earned {
			b.WriteString(theme.Points.Render("🏅 " + badge.Name))
		} else {
			b.WriteString(theme.Disabled.Render("○ " + badge.Name))
		}
		b.WriteString(theme.Hint.Render("  " + badge.Description))
		b.WriteString("\n")
	}

	if s.err != "" {
		b.WriteString("\n")
		b.WriteString(theme.Incorrect.Render(s.err))
	}
	return components.Panel(b.String(), width, height)
}

func (s *ScoreCardScreen) dayTitle(d curriculum.DayID) string {
	if s.env.Content != nil {
		if t := s.env.Content.DayTitle(d); t != "" {
			return t
		}
	}
	return string(d)
}
