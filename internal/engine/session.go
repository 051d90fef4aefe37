package engine

import (
	"fmt"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/gating"
	"github.com/iamsmart/masterclass/internal/quiz"
	"github.com/iamsmart/masterclass/internal/store"
)

// Session runs the quiz for one open section. A failed attempt is replaced
// by a fresh one with zeroed counts; a passed attempt commits the section.
type Session struct {
	e         *Engine
	day       curriculum.DayID
	index     int
	section   curriculum.Section
	questions []curriculum.Question
	attempt   *quiz.Attempt
	done      bool
}

// Answer is the outcome of one submission.
type Answer struct {
	quiz.Result

	// Failed is set when the attempt ended below the pass threshold. The
	// session has already been reset to a fresh attempt.
	Failed  bool
	Outcome quiz.Outcome

	// Commit is set when the attempt passed and the section was committed.
	Commit *CommitResult
}

// OpenSection starts a quiz session for an unlocked, incomplete section.
// A section without questions completes immediately; the returned session
// is nil and the commit result describes the completion.
func (e *Engine) OpenSection(day curriculum.DayID, index int) (*Session, *CommitResult, error) {
	sections, err := e.content.Day(day)
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= len(sections) {
		return nil, nil, fmt.Errorf("%w: index %d in %s", curriculum.ErrUnknownSection, index, day)
	}
	section := sections[index]

	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil, nil, ErrNotStarted
	}
	completed := e.profile.CompletedSet()
	e.mu.Unlock()

	if gating.IsLocked(sections, index, completed) {
		return nil, nil, fmt.Errorf("%w: %s", ErrSectionLocked, section.ID)
	}
	if completed[section.ID] {
		return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyComplete, section.ID)
	}

	questions := e.quizzes.Questions(section.ID)
	if len(questions) == 0 {
		res, err := e.Commit(day, section.ID, 0, 0)
		if err != nil {
			return nil, nil, err
		}
		return nil, &res, nil
	}

	attempt, err := quiz.NewAttempt(questions, e.shuffler)
	if err != nil {
		return nil, nil, err
	}
	return &Session{
		e:         e,
		day:       day,
		index:     index,
		section:   section,
		questions: questions,
		attempt:   attempt,
	}, nil, nil
}

// Section returns the section being quizzed.
func (s *Session) Section() curriculum.Section { return s.section }

// Day returns the day the section belongs to.
func (s *Session) Day() curriculum.DayID { return s.day }

// Done reports whether the section has been committed.
func (s *Session) Done() bool { return s.done }

// Counts returns the running tallies of the current attempt.
func (s *Session) Counts() (correct, incorrect int) { return s.attempt.Counts() }

// Current returns the question being asked.
func (s *Session) Current() (curriculum.Question, bool) {
	if s.done {
		return curriculum.Question{}, false
	}
	return s.attempt.Current()
}

// Present shows the current question with a fresh option order.
func (s *Session) Present() (quiz.Presentation, error) {
	if s.done {
		return quiz.Presentation{}, quiz.ErrAttemptComplete
	}
	return s.attempt.Present()
}

// Answer submits the option at slot of the live presentation.
func (s *Session) Answer(slot int) (Answer, error) {
	if s.done {
		return Answer{}, quiz.ErrAttemptComplete
	}
	res, err := s.attempt.Submit(slot)
	if err != nil {
		return Answer{}, err
	}
	ans := Answer{Result: res}
	if !res.IsAttemptComplete {
		return ans, nil
	}

	out, err := s.attempt.Outcome()
	if err != nil {
		return Answer{}, err
	}
	ans.Outcome = out

	if !out.Passed {
		ans.Failed = true
		s.fail(out)
		return ans, nil
	}

	cr, err := s.e.Commit(s.day, s.section.ID, out.Correct, out.Incorrect)
	if err != nil {
		return Answer{}, err
	}
	s.done = true
	ans.Commit = &cr
	return ans, nil
}

// fail reports the tally, journals it and starts over.
func (s *Session) fail(out quiz.Outcome) {
	s.e.emit([]Event{EventQuizFailed{
		Day:       s.day,
		SectionID: s.section.ID,
		Correct:   out.Correct,
		Answered:  out.Answered(),
		Questions: len(s.questions),
	}})
	s.e.record(store.ProgressEventData{
		UserID:    s.e.UserID(),
		Kind:      KindQuizFailed,
		Day:       string(s.day),
		SectionID: s.section.ID,
		Correct:   out.Correct,
		Incorrect: out.Incorrect,
		Detail:    s.attempt.ID(),
	})

	// NewAttempt only fails on an empty question set, which OpenSection
	// already ruled out.
	s.attempt, _ = quiz.NewAttempt(s.questions, s.e.shuffler)
}
