package engine

import (
	"fmt"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/gating"
	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/store"
)

// Progress event kinds written to the journal.
const (
	KindSectionCompleted    = "section_completed"
	KindQuizFailed          = "quiz_failed"
	KindSurveyCompleted     = "survey_completed"
	KindOnboardingCompleted = "onboarding_completed"
	KindFinalFeedback       = "final_feedback"
	KindCertificateIssued   = "certificate_issued"
)

// CommitResult describes the effect of a completion commit.
type CommitResult struct {
	SectionID string
	// Duplicate is set when the section was already completed; nothing
	// changed and no events were emitted.
	Duplicate bool
	Stats     profile.Stats
	Prompt    Prompt
}

// Commit records a passed section. It is idempotent: committing a section
// that is already completed changes nothing. A section whose predecessor is
// not completed is refused with ErrSectionLocked. Otherwise the section is
// appended, the attempt counts are added to the stats, the profile is saved
// in the background, a celebration is emitted and at most one trigger rule
// fires.
func (e *Engine) Commit(day curriculum.DayID, sectionID string, correct, incorrect int) (CommitResult, error) {
	sections, index, err := e.locate(day, sectionID)
	if err != nil {
		return CommitResult{}, err
	}

	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return CommitResult{}, ErrNotStarted
	}
	if e.profile.IsCompleted(sectionID) {
		res := CommitResult{SectionID: sectionID, Duplicate: true, Stats: e.profile.Stats}
		e.mu.Unlock()
		return res, nil
	}
	if gating.IsLocked(sections, index, e.profile.CompletedSet()) {
		e.mu.Unlock()
		return CommitResult{}, fmt.Errorf("%w: %s", ErrSectionLocked, sectionID)
	}

	now := e.now()
	next := e.profile.
		WithCompleted(sectionID, now).
		WithStatsDelta(correct, incorrect, now)
	e.replaceLocked(next)
	prompt := evaluateRules(e.rules, next, day, sectionID)
	userID := e.userID
	e.mu.Unlock()

	e.record(store.ProgressEventData{
		UserID:    userID,
		Kind:      KindSectionCompleted,
		Day:       string(day),
		SectionID: sectionID,
		Correct:   correct,
		Incorrect: incorrect,
	})

	events := []Event{EventCelebrate{Day: day, SectionID: sectionID, Correct: correct, Incorrect: incorrect}}
	if !prompt.IsZero() {
		events = append(events, EventShowPrompt{Prompt: prompt})
	}
	e.emit(events)

	return CommitResult{SectionID: sectionID, Stats: next.Stats, Prompt: prompt}, nil
}

// locate returns the day's sections and the index of sectionID in them.
func (e *Engine) locate(day curriculum.DayID, sectionID string) ([]curriculum.Section, int, error) {
	sections, err := e.content.Day(day)
	if err != nil {
		return nil, 0, err
	}
	for i, s := range sections {
		if s.ID == sectionID {
			return sections, i, nil
		}
	}
	return nil, 0, curriculum.ErrUnknownSection
}
