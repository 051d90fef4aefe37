package app

import (
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/engine"
	"github.com/iamsmart/masterclass/internal/router"
	"github.com/iamsmart/masterclass/internal/screen"
	"github.com/iamsmart/masterclass/internal/screens/home"
	"github.com/iamsmart/masterclass/internal/screens/onboarding"
	"github.com/iamsmart/masterclass/internal/screens/scorecard"
	"github.com/iamsmart/masterclass/internal/screens/survey"
	"github.com/iamsmart/masterclass/internal/screens/welcome"
	"github.com/iamsmart/masterclass/internal/tutor"
	"github.com/iamsmart/masterclass/internal/ui/layout"
)

const noticeDuration = 4 * time.Second

// Options wires the TUI to a started engine. Events must be the engine's
// PresentationBus.
type Options struct {
	Engine  *engine.Engine
	Events  *engine.Recorder
	Content *curriculum.Catalog
	Tutor   *tutor.Tutor

	// SkipSplash opens the dashboard directly.
	SkipSplash bool
}

type clearNoticeMsg struct{ seq int }

// AppModel is the root Bubble Tea model.
type AppModel struct {
	env    screen.Env
	events *engine.Recorder
	router *router.Router
	width  int
	height int

	notice    string
	noticeErr bool
	noticeSeq int
}

func newAppModel(opts Options) AppModel {
	env := screen.Env{Engine: opts.Engine, Content: opts.Content, Tutor: opts.Tutor}
	dashboard := func() screen.Screen { return home.New(env) }

	var first screen.Screen
	if opts.SkipSplash {
		first = dashboard()
	} else {
		course := ""
		if opts.Content != nil {
			course = opts.Content.Course()
		}
		first = welcome.New(course, dashboard)
	}
	return AppModel{
		env:    env,
		events: opts.Events,
		router: router.New(first),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 && !blocking(m.router.Active()) {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	case screen.ShowPromptMsg:
		s := m.promptScreen(msg.Prompt)
		if s == nil {
			return m, nil
		}
		return m, m.drain(m.router.Push(s))

	case screen.NoticeMsg:
		var cmd tea.Cmd
		m, cmd = m.setNotice(msg.Text, msg.Error)
		return m, cmd

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	cmd := m.router.Update(msg)
	return m, m.drain(cmd)
}

func blocking(s screen.Screen) bool {
	mod, ok := s.(screen.Modal)
	return ok && mod.Blocking()
}

func (m AppModel) setNotice(text string, isErr bool) (AppModel, tea.Cmd) {
	m.noticeSeq++
	m.notice = text
	m.noticeErr = isErr
	seq := m.noticeSeq
	return m, tea.Tick(noticeDuration, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}

// drain turns engine events recorded during the last update into commands.
func (m AppModel) drain(cmd tea.Cmd) tea.Cmd {
	if m.events == nil {
		return cmd
	}
	cmds := []tea.Cmd{cmd}
	for _, ev := range m.events.Drain() {
		switch ev := ev.(type) {
		case engine.EventCelebrate:
			text := fmt.Sprintf("✓ Section complete! %+d points", ev.Correct-ev.Incorrect)
			cmds = append(cmds, func() tea.Msg { return screen.NoticeMsg{Text: text} })
		case engine.EventQuizFailed:
			text := fmt.Sprintf("You got %d/%d. Give it another go.", ev.Correct, ev.Answered)
			cmds = append(cmds, func() tea.Msg { return screen.NoticeMsg{Text: text, Error: true} })
		case engine.EventShowPrompt:
			cmds = append(cmds, screen.ShowPrompt(ev.Prompt))
		}
	}
	return tea.Batch(cmds...)
}

// promptScreen builds the modal for p. It returns nil when that modal is
// already on top.
func (m AppModel) promptScreen(p engine.Prompt) screen.Screen {
	var s screen.Screen
	switch p.Kind {
	case engine.PromptOnboarding:
		if m.env.Engine.Profile().Onboarded() {
			return nil
		}
		s = onboarding.New(m.env)
	case engine.PromptScoreCard:
		s = scorecard.New(m.env, p.Day)
	case "":
		return nil
	default:
		s = survey.New(m.env, p.Kind)
	}
	if active := m.router.Active(); active != nil && sameModal(active, s) {
		return nil
	}
	return s
}

func sameModal(a, b screen.Screen) bool {
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b) && a.Title() == b.Title()
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	var stats layout.HeaderStats
	if m.env.Engine != nil {
		sc := m.env.Engine.ScoreCard()
		stats = layout.HeaderStats{Points: sc.Stats.TotalPoints, ProgressPercent: sc.ProgressPercent}
	}
	header := layout.RenderHeader(title, stats, m.width)

	var footerHints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	}
	if m.router.Depth() > 1 && !blocking(active) {
		footerHints = append(footerHints, layout.KeyHint{Key: "Esc", Description: "Back"})
	}
	footerHints = append(footerHints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})

	footer := layout.RenderFooter(footerHints, m.width)
	if n := layout.RenderNotice(m.notice, m.noticeErr, m.width); n != "" {
		footer = n + "\n" + footer
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program and blocks until the learner quits.
// Background profile saves are flushed before returning.
func Run(opts Options) error {
	defer opts.Engine.Flush()
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
