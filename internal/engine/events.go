package engine

import (
	"sync"
	"time"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/profile"
)

// PromptKind names a modal the presentation layer should show.
type PromptKind string

const (
	PromptOnboarding      PromptKind = "onboarding"
	PromptOutcomeSurvey   PromptKind = PromptKind(profile.OutcomeSurvey)
	PromptDay1Feedback    PromptKind = PromptKind(profile.Day1Feedback)
	PromptOrgFitSurvey    PromptKind = PromptKind(profile.OrgFitSurvey)
	PromptDay2Application PromptKind = PromptKind(profile.Day2Application)
	PromptDay2Feedback    PromptKind = PromptKind(profile.Day2Feedback)
	PromptScoreCard       PromptKind = "score_card"
	PromptFinalFeedback   PromptKind = "final_feedback"
)

// SurveyKey returns the profile key recorded when this prompt is completed.
// Score cards and the final feedback form are not recorded.
func (k PromptKind) SurveyKey() (profile.SurveyKey, bool) {
	switch k {
	case PromptOutcomeSurvey, PromptDay1Feedback, PromptOrgFitSurvey, PromptDay2Application, PromptDay2Feedback:
		return profile.SurveyKey(k), true
	}
	return "", false
}

// Prompt is a request to show a modal. The zero value means no prompt.
type Prompt struct {
	Kind  PromptKind
	Day   curriculum.DayID
	Delay time.Duration
}

// IsZero reports whether p requests nothing.
func (p Prompt) IsZero() bool { return p.Kind == "" }

// Event is a one-way notification to the presentation layer.
type Event interface {
	event()
}

// EventCelebrate is emitted once per newly completed section.
type EventCelebrate struct {
	Day       curriculum.DayID
	SectionID string
	Correct   int
	Incorrect int
}

// EventShowPrompt asks the presentation layer to show a modal.
type EventShowPrompt struct {
	Prompt Prompt
}

// EventQuizFailed reports a failed attempt with its literal tally.
type EventQuizFailed struct {
	Day       curriculum.DayID
	SectionID string
	Correct   int
	Answered  int
	Questions int
}

func (EventCelebrate) event()  {}
func (EventShowPrompt) event() {}
func (EventQuizFailed) event() {}

// PresentationBus receives engine events. Emit must not block.
type PresentationBus interface {
	Emit(Event)
}

// BusFunc adapts a function to PresentationBus.
type BusFunc func(Event)

func (f BusFunc) Emit(e Event) { f(e) }

type nopBus struct{}

func (nopBus) Emit(Event) {}

// Recorder is a PresentationBus that keeps every event for later draining.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Drain returns and clears the recorded events.
func (r *Recorder) Drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}
