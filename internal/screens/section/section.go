// Package section shows a section's reading material and runs its quiz.
package section

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/engine"
	"github.com/iamsmart/masterclass/internal/quiz"
	"github.com/iamsmart/masterclass/internal/router"
	"github.com/iamsmart/masterclass/internal/screen"
	"github.com/iamsmart/masterclass/internal/ui/components"
	"github.com/iamsmart/masterclass/internal/ui/layout"
	"github.com/iamsmart/masterclass/internal/ui/theme"
)

type phase int

const (
	phaseReading phase = iota
	phaseQuiz
	phaseFeedback
	phaseFailed
	phasePassed
)

const hintTimeout = 15 * time.Second

// SectionScreen walks the learner from the reading material through the quiz
// to the completion commit.
type SectionScreen struct {
	env     screen.Env
	day     curriculum.DayID
	index   int
	section curriculum.Section
	review  bool
	err     error

	phase    phase
	viewport viewport.Model
	session  *engine.Session
	pres     quiz.Presentation
	choice   components.MultiChoice
	last     engine.Answer
	commit   *engine.CommitResult

	// hintSeq tags hint requests so a late reply for an earlier question
	// is dropped.
	hintSeq     int
	hint        string
	hintLoading bool
	spinner     spinner.Model
}

var _ screen.Screen = (*SectionScreen)(nil)

// New creates the screen for section index of day. In review mode the
// material is shown without a quiz.
func New(env screen.Env, day curriculum.DayID, index int, review bool) *SectionScreen {
	s := &SectionScreen{
		env:      env,
		day:      day,
		index:    index,
		review:   review,
		viewport: viewport.New(viewport.WithWidth(60), viewport.WithHeight(10)),
		spinner:  spinner.New(spinner.WithSpinner(spinner.MiniDot)),
	}
	s.viewport.SoftWrap = true

	sections, err := env.Engine.Sections(day)
	switch {
	case err != nil:
		s.err = err
	case index < 0 || index >= len(sections):
		s.err = curriculum.ErrUnknownSection
	default:
		s.section = sections[index]
		s.viewport.SetContent(s.section.Content)
	}
	return s
}

func (s *SectionScreen) Init() tea.Cmd { return nil }

func (s *SectionScreen) Title() string {
	if s.section.Title == "" {
		return "Section"
	}
	return s.section.Title
}

func (s *SectionScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseReading:
		next := "Start quiz"
		if s.review {
			next = "Done"
		}
		return []layout.KeyHint{{Key: "↑↓", Description: "Scroll"}, {Key: "Enter", Description: next}}
	case phaseQuiz:
		return []layout.KeyHint{{Key: "↑↓", Description: "Choose"}, {Key: "1-9", Description: "Answer"}, {Key: "Enter", Description: "Submit"}}
	case phaseFailed:
		return []layout.KeyHint{{Key: "Enter", Description: "Try again"}}
	default:
		return []layout.KeyHint{{Key: "Enter", Description: "Continue"}}
	}
}

type hintMsg struct {
	seq  int
	text string
	err  error
}

func (s *SectionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case hintMsg:
		if msg.seq != s.hintSeq {
			return s, nil
		}
		s.hintLoading = false
		if msg.err == nil {
			s.hint = msg.text
		}
		return s, nil
	case spinner.TickMsg:
		if !s.hintLoading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *SectionScreen) handleKey(k tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.err != nil {
		return s, pop
	}
	switch s.phase {
	case phaseReading:
		if k.String() != "enter" {
			var cmd tea.Cmd
			s.viewport, cmd = s.viewport.Update(k)
			return s, cmd
		}
		if s.review {
			return s, pop
		}
		return s, s.start()

	case phaseQuiz:
		s.choice, _ = s.choice.Update(k)
		if s.choice.Submitted {
			return s, s.submit(s.choice.Chosen)
		}

	case phaseFeedback:
		if k.String() == "enter" {
			return s, s.advance()
		}

	case phaseFailed:
		if k.String() == "enter" {
			return s, s.present()
		}

	case phasePassed:
		if k.String() == "enter" {
			return s, pop
		}
	}
	return s, nil
}

func pop() tea.Msg { return router.PopScreenMsg{} }

// start opens the quiz session. A section without questions is committed
// straight away.
func (s *SectionScreen) start() tea.Cmd {
	sess, commit, err := s.env.Engine.OpenSection(s.day, s.index)
	if errors.Is(err, engine.ErrAlreadyComplete) {
		s.review = true
		return notice("You have already completed this section", false)
	}
	if err != nil {
		return notice(err.Error(), true)
	}
	if commit != nil {
		s.commit = commit
		s.phase = phasePassed
		return nil
	}
	s.session = sess
	return s.present()
}

func (s *SectionScreen) present() tea.Cmd {
	pres, err := s.session.Present()
	if err != nil {
		return notice(err.Error(), true)
	}
	s.pres = pres
	s.choice = components.NewMultiChoice(pres.Prompt, pres.Options)
	s.hint = ""
	s.hintLoading = false
	s.phase = phaseQuiz
	return nil
}

func (s *SectionScreen) submit(slot int) tea.Cmd {
	q, _ := s.session.Current()
	chosenText := ""
	if slot >= 0 && slot < len(s.pres.Options) {
		chosenText = s.pres.Options[slot]
	}

	ans, err := s.session.Answer(slot)
	if err != nil {
		s.choice = components.NewMultiChoice(s.pres.Prompt, s.pres.Options)
		return notice(err.Error(), true)
	}
	s.last = ans
	s.choice.Reveal(ans.IsCorrect)
	s.phase = phaseFeedback

	if ans.IsCorrect || !s.env.Tutor.Enabled() {
		return nil
	}
	s.hintSeq++
	s.hintLoading = true
	return tea.Batch(s.spinner.Tick, s.requestHint(s.hintSeq, q, optionIndex(q, chosenText)))
}

func (s *SectionScreen) requestHint(seq int, q curriculum.Question, chosen int) tea.Cmd {
	t := s.env.Tutor
	userID := s.env.Engine.UserID()
	title := s.section.Title
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), hintTimeout)
		defer cancel()
		text, err := t.Hint(ctx, userID, title, q, chosen)
		return hintMsg{seq: seq, text: text, err: err}
	}
}

// optionIndex maps displayed option text back to its index in q.
func optionIndex(q curriculum.Question, text string) int {
	for i, o := range q.Options {
		if o == text {
			return i
		}
	}
	return -1
}

// advance moves past the feedback for the last answer.
func (s *SectionScreen) advance() tea.Cmd {
	switch {
	case s.last.Commit != nil:
		s.commit = s.last.Commit
		s.phase = phasePassed
		return nil
	case s.last.Failed:
		s.phase = phaseFailed
		return nil
	}
	return s.present()
}

func notice(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return screen.NoticeMsg{Text: text, Error: isErr} }
}

func (s *SectionScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	if s.err != nil {
		return components.Panel(theme.Incorrect.Render(s.err.Error()), width, height)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(s.section.Title))
	b.WriteString("\n\n")

	switch s.phase {
	case phaseReading:
		s.viewport.SetWidth(cw)
		s.viewport.SetHeight(max(height-8, 3))
		b.WriteString(s.viewport.View())
		if !s.review {
			b.WriteString("\n\n")
			b.WriteString(theme.Hint.Render("Press Enter when you are ready for the quiz."))
		}

	case phaseQuiz, phaseFeedback:
		b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Question %d of %d", s.pres.Index+1, s.pres.Total)))
		b.WriteString("\n\n")
		b.WriteString(layout.Wrap(s.choice.View(), cw))
		if s.phase == phaseFeedback {
			b.WriteString("\n")
			b.WriteString(s.feedbackView(cw))
		}

	case phaseFailed:
		out := s.last.Outcome
		b.WriteString(theme.Incorrect.Render(fmt.Sprintf("You got %d/%d", out.Correct, out.Answered())))
		b.WriteString("\n\n")
		b.WriteString(theme.Body.Render(fmt.Sprintf("You need %d correct answers to pass. The questions will be reshuffled.", quiz.PassThreshold)))

	case phasePassed:
		b.WriteString(s.passedView())
	}

	return components.Panel(b.String(), width, height)
}

func (s *SectionScreen) feedbackView(cw int) string {
	if s.last.IsCorrect {
		return theme.Correct.Render("Correct!")
	}
	out := theme.Incorrect.Render("Not quite. The same question comes back with the options reshuffled.")
	switch {
	case s.hintLoading:
		out += "\n" + s.spinner.View() + theme.Hint.Render(" asking the tutor for a hint")
	case s.hint != "":
		out += "\n\n" + components.Card(theme.Hint.Render("Hint: "+s.hint), cw)
	}
	return out
}

func (s *SectionScreen) passedView() string {
	if s.commit == nil || s.commit.Duplicate {
		return theme.Correct.Render("Section complete!")
	}
	correct, incorrect := 0, 0
	if s.last.Commit != nil {
		correct, incorrect = s.last.Outcome.Correct, s.last.Outcome.Incorrect
	}
	lines := []string{
		theme.Correct.Render("🎉 Section complete!"),
		"",
		theme.Points.Render(fmt.Sprintf("%+d points", correct-incorrect)) +
			theme.Subtitle.Render(fmt.Sprintf("   total %d", s.commit.Stats.TotalPoints)),
		"",
		theme.Hint.Render("Press Enter to continue."),
	}
	return strings.Join(lines, "\n")
}
