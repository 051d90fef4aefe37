// Package survey runs the one-time questionnaires and the final feedback
// form that precedes the certificate.
package survey

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/engine"
	"github.com/iamsmart/masterclass/internal/router"
	"github.com/iamsmart/masterclass/internal/screen"
	"github.com/iamsmart/masterclass/internal/screens/certificate"
	"github.com/iamsmart/masterclass/internal/ui/components"
	"github.com/iamsmart/masterclass/internal/ui/layout"
	"github.com/iamsmart/masterclass/internal/ui/theme"
)

// SurveyScreen asks a form's questions one at a time.
type SurveyScreen struct {
	env     screen.Env
	kind    engine.PromptKind
	form    curriculum.SurveyForm
	step    int
	answers map[string]string
	choice  components.MultiChoice
	err     string
}

var (
	_ screen.Screen = (*SurveyScreen)(nil)
	_ screen.Modal  = (*SurveyScreen)(nil)
)

// New creates the screen for a survey prompt. The form is looked up in the
// catalog under the prompt kind.
func New(env screen.Env, kind engine.PromptKind) *SurveyScreen {
	s := &SurveyScreen{env: env, kind: kind, answers: map[string]string{}}
	if env.Content != nil {
		s.form, _ = env.Content.Survey(string(kind))
	}
	if s.form.Title == "" {
		s.form.Title = defaultTitle(kind)
	}
	s.load()
	return s
}

func defaultTitle(kind engine.PromptKind) string {
	words := strings.Fields(strings.ReplaceAll(string(kind), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (s *SurveyScreen) load() {
	if s.step < len(s.form.Questions) {
		q := s.form.Questions[s.step]
		s.choice = components.NewMultiChoice(q.Prompt, q.Options)
	}
}

func (s *SurveyScreen) Init() tea.Cmd { return nil }

func (s *SurveyScreen) Title() string { return s.form.Title }

// Blocking keeps the form open until it is submitted.
func (s *SurveyScreen) Blocking() bool { return true }

func (s *SurveyScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Next"},
	}
}

func (s *SurveyScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); !ok {
		return s, nil
	}
	if s.step >= len(s.form.Questions) {
		if k := msg.(tea.KeyMsg); k.String() == "enter" {
			return s, s.submit()
		}
		return s, nil
	}

	s.choice, _ = s.choice.Update(msg)
	if !s.choice.Submitted {
		return s, nil
	}
	q := s.form.Questions[s.step]
	if s.choice.Chosen >= 0 && s.choice.Chosen < len(q.Options) {
		s.answers[q.ID] = q.Options[s.choice.Chosen]
	}
	s.step++
	if s.step < len(s.form.Questions) {
		s.load()
		return s, nil
	}
	return s, s.submit()
}

// submit records the answers and routes to whatever follows the form.
func (s *SurveyScreen) submit() tea.Cmd {
	e := s.env.Engine
	if s.kind == engine.PromptFinalFeedback {
		if err := e.CompleteFinalFeedback(s.answers); err != nil {
			return s.fail(err)
		}
		cert, err := e.Certificate()
		if err != nil {
			return s.fail(err)
		}
		return func() tea.Msg { return router.ReplaceScreenMsg{Screen: certificate.New(cert)} }
	}

	next, err := e.CompleteSurvey(s.kind, s.answers)
	if err != nil {
		return s.fail(err)
	}
	pop := func() tea.Msg { return router.PopScreenMsg{} }
	thanks := func() tea.Msg { return screen.NoticeMsg{Text: "Thanks for your feedback!"} }
	if next.IsZero() {
		return tea.Sequence(pop, thanks)
	}
	return tea.Sequence(pop, thanks, screen.ShowPrompt(next))
}

func (s *SurveyScreen) fail(err error) tea.Cmd {
	s.err = err.Error()
	return nil
}

func (s *SurveyScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	var b strings.Builder
	b.WriteString(theme.Title.Render(s.form.Title))
	b.WriteString("\n\n")
	if n := len(s.form.Questions); s.step < n {
		b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Question %d of %d", s.step+1, n)))
		b.WriteString("\n\n")
		b.WriteString(layout.Wrap(s.choice.View(), cw))
	} else {
		b.WriteString(theme.Body.Render("Press Enter to submit."))
	}
	if s.err != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Incorrect.Render(s.err))
	}
	return components.Panel(b.String(), width, height)
}
