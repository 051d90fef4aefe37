package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/engine"
	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/screen"
	"github.com/iamsmart/masterclass/internal/screen/screentest"
	"github.com/iamsmart/masterclass/internal/screens/home"
	"github.com/iamsmart/masterclass/internal/screens/onboarding"
	"github.com/iamsmart/masterclass/internal/screens/scorecard"
	"github.com/iamsmart/masterclass/internal/screens/survey"
	"github.com/iamsmart/masterclass/internal/screens/welcome"
)

func newTestModel(t *testing.T, skipSplash bool) (AppModel, screentest.Env) {
	t.Helper()
	env := screentest.New(t, nil, nil)
	m := newAppModel(Options{
		Engine:     env.Engine,
		Events:     env.Events,
		Content:    env.Content,
		SkipSplash: skipSplash,
	})
	return m, env
}

func update(m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

func TestFirstScreen(t *testing.T) {
	m, _ := newTestModel(t, false)
	if _, ok := m.router.Active().(*welcome.WelcomeScreen); !ok {
		t.Errorf("active = %T, want welcome", m.router.Active())
	}
	m, _ = newTestModel(t, true)
	if _, ok := m.router.Active().(*home.HomeScreen); !ok {
		t.Errorf("active = %T, want home", m.router.Active())
	}
}

func TestPromptScreens(t *testing.T) {
	m, _ := newTestModel(t, true)

	tests := []struct {
		kind engine.PromptKind
		want string
	}{
		{engine.PromptOnboarding, "*onboarding.OnboardingScreen"},
		{engine.PromptScoreCard, "*scorecard.ScoreCardScreen"},
		{engine.PromptOutcomeSurvey, "*survey.SurveyScreen"},
		{engine.PromptFinalFeedback, "*survey.SurveyScreen"},
	}
	for _, tt := range tests {
		s := m.promptScreen(engine.Prompt{Kind: tt.kind})
		if s == nil {
			t.Errorf("%s: nil screen", tt.kind)
			continue
		}
		switch s.(type) {
		case *onboarding.OnboardingScreen, *scorecard.ScoreCardScreen, *survey.SurveyScreen:
		default:
			t.Errorf("%s: screen = %T, want %s", tt.kind, s, tt.want)
		}
	}
	if s := m.promptScreen(engine.Prompt{}); s != nil {
		t.Errorf("zero prompt gave %T", s)
	}
}

func TestShowPromptPushesOnce(t *testing.T) {
	m, _ := newTestModel(t, true)

	m, _ = update(m, screen.ShowPromptMsg{Prompt: engine.Prompt{Kind: engine.PromptScoreCard}})
	if m.router.Depth() != 2 {
		t.Fatalf("depth = %d, want 2", m.router.Depth())
	}
	m, _ = update(m, screen.ShowPromptMsg{Prompt: engine.Prompt{Kind: engine.PromptScoreCard}})
	if m.router.Depth() != 2 {
		t.Errorf("depth = %d, duplicate modal was pushed", m.router.Depth())
	}
}

func TestEscPopsUnlessBlocking(t *testing.T) {
	m, _ := newTestModel(t, true)

	m, _ = update(m, screen.ShowPromptMsg{Prompt: engine.Prompt{Kind: engine.PromptOnboarding}})
	if _, ok := m.router.Active().(*onboarding.OnboardingScreen); !ok {
		t.Fatalf("active = %T, want onboarding", m.router.Active())
	}
	_, cmd := update(m, screentest.Special(tea.KeyEscape))
	if cmd != nil {
		t.Error("Esc must not dismiss a blocking modal")
	}

	m, _ = newTestModel(t, true)
	m, _ = update(m, screen.ShowPromptMsg{Prompt: engine.Prompt{Kind: engine.PromptScoreCard}})
	_, cmd = update(m, screentest.Special(tea.KeyEscape))
	if cmd == nil {
		t.Fatal("Esc should pop the score card")
	}
}

func TestOnboardedLearnerSkipsOnboardingPrompt(t *testing.T) {
	m, env := newTestModel(t, true)
	if err := env.Engine.CompleteOnboarding(profileAnswers()); err != nil {
		t.Fatalf("CompleteOnboarding: %v", err)
	}
	if s := m.promptScreen(engine.Prompt{Kind: engine.PromptOnboarding}); s != nil {
		t.Errorf("got %T for an onboarded learner", s)
	}
}

func TestDrainTurnsEventsIntoMessages(t *testing.T) {
	m, env := newTestModel(t, true)

	env.Events.Emit(engine.EventQuizFailed{Day: curriculum.Day1, SectionID: "x", Correct: 2, Answered: 6, Questions: 3})
	env.Events.Emit(engine.EventCelebrate{Day: curriculum.Day1, SectionID: "x", Correct: 3, Incorrect: 1})
	env.Events.Emit(engine.EventShowPrompt{Prompt: engine.Prompt{Kind: engine.PromptOutcomeSurvey}})

	msgs := screentest.Collect(m.drain(nil))
	if len(msgs) != 3 {
		t.Fatalf("msgs = %v", msgs)
	}
	fail, ok := msgs[0].(screen.NoticeMsg)
	if !ok || !fail.Error || fail.Text != "You got 2/6. Give it another go." {
		t.Errorf("fail notice = %#v", msgs[0])
	}
	win, ok := msgs[1].(screen.NoticeMsg)
	if !ok || win.Error || win.Text != "✓ Section complete! +2 points" {
		t.Errorf("celebrate notice = %#v", msgs[1])
	}
	if p, ok := msgs[2].(screen.ShowPromptMsg); !ok || p.Prompt.Kind != engine.PromptOutcomeSurvey {
		t.Errorf("prompt msg = %#v", msgs[2])
	}
	if left := env.Events.Drain(); len(left) != 0 {
		t.Errorf("events left after drain: %v", left)
	}
}

func TestNoticeClearsOnlyLatest(t *testing.T) {
	m, _ := newTestModel(t, true)

	m, _ = update(m, screen.NoticeMsg{Text: "first"})
	m, _ = update(m, screen.NoticeMsg{Text: "second"})
	m, _ = update(m, clearNoticeMsg{seq: 1})
	if m.notice != "second" {
		t.Errorf("notice = %q, stale clear removed it", m.notice)
	}
	m, _ = update(m, clearNoticeMsg{seq: 2})
	if m.notice != "" {
		t.Errorf("notice = %q, want cleared", m.notice)
	}
}

func TestViewTooSmall(t *testing.T) {
	m, _ := newTestModel(t, true)
	m, _ = update(m, tea.WindowSizeMsg{Width: 40, Height: 10})
	v := m.View()
	if !v.AltScreen {
		t.Error("view should use the alternate screen")
	}
}

func profileAnswers() profile.Onboarding {
	return profile.Onboarding{Name: "Asha", Profession: profile.ProfessionStudent}
}
