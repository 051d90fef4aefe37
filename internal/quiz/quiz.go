// Package quiz implements the per-section quiz attempt: shuffled
// presentations, answer scoring and the pass/fail outcome.
package quiz

import (
	"errors"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/iamsmart/masterclass/internal/curriculum"
)

// PassThreshold is the absolute number of correct answers required to pass,
// independent of how many questions the quiz has.
const PassThreshold = 3

var (
	ErrNoQuestions     = errors.New("quiz has no questions")
	ErrNotPresented    = errors.New("no question is being presented")
	ErrInvalidOption   = errors.New("option out of range")
	ErrAttemptComplete = errors.New("attempt is complete")
	ErrAttemptUnderway = errors.New("attempt is not complete")
)

// Shuffler permutes n elements in place via swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// NewShuffler returns a PCG-backed Shuffler. It is not safe for concurrent use.
func NewShuffler(seed uint64) Shuffler {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Presentation is one showing of the current question. Options are in
// display order; the correct slot is tracked internally.
type Presentation struct {
	Index   int
	Total   int
	Prompt  string
	Options []string
}

// Result is returned for every counted submission.
type Result struct {
	IsCorrect         bool
	CorrectCount      int
	IncorrectCount    int
	IsAttemptComplete bool
}

// Outcome summarizes a finished attempt.
type Outcome struct {
	Passed    bool
	Correct   int
	Incorrect int
}

// Answered is the number of counted submissions.
func (o Outcome) Answered() int { return o.Correct + o.Incorrect }

// Attempt is a single pass through a section's questions. A wrong answer
// keeps the learner on the same question; only a correct answer advances.
type Attempt struct {
	id        string
	questions []curriculum.Question
	shuffler  Shuffler

	index     int
	correct   int
	incorrect int

	order []int // order[slot] = original option index; nil when not presented
}

// NewAttempt starts an attempt over questions.
func NewAttempt(questions []curriculum.Question, shuffler Shuffler) (*Attempt, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if shuffler == nil {
		shuffler = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Attempt{
		id:        uuid.NewString(),
		questions: questions,
		shuffler:  shuffler,
	}, nil
}

// ID identifies the attempt in the progress journal.
func (a *Attempt) ID() string { return a.id }

// Complete reports whether every question has been answered correctly.
func (a *Attempt) Complete() bool { return a.index >= len(a.questions) }

// Counts returns the running correct and incorrect tallies.
func (a *Attempt) Counts() (correct, incorrect int) { return a.correct, a.incorrect }

// Present shows the current question with a freshly shuffled option order.
// Calling it again re-presents the same question with a new order.
func (a *Attempt) Present() (Presentation, error) {
	if a.Complete() {
		return Presentation{}, ErrAttemptComplete
	}
	q := a.questions[a.index]

	order := make([]int, len(q.Options))
	for i := range order {
		order[i] = i
	}
	a.shuffler.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	a.order = order

	opts := make([]string, len(order))
	for slot, orig := range order {
		opts[slot] = q.Options[orig]
	}
	return Presentation{
		Index:   a.index,
		Total:   len(a.questions),
		Prompt:  q.Prompt,
		Options: opts,
	}, nil
}

// Submit answers the live presentation with the option at slot. An
// out-of-range slot is rejected without being counted.
func (a *Attempt) Submit(slot int) (Result, error) {
	if a.Complete() {
		return Result{}, ErrAttemptComplete
	}
	if a.order == nil {
		return Result{}, ErrNotPresented
	}
	if slot < 0 || slot >= len(a.order) {
		return Result{}, ErrInvalidOption
	}

	correct := a.order[slot] == a.questions[a.index].CorrectOptionIndex
	a.order = nil
	if correct {
		a.correct++
		a.index++
	} else {
		a.incorrect++
	}

	return Result{
		IsCorrect:         correct,
		CorrectCount:      a.correct,
		IncorrectCount:    a.incorrect,
		IsAttemptComplete: a.Complete(),
	}, nil
}

// Current returns the question being asked.
func (a *Attempt) Current() (curriculum.Question, bool) {
	if a.Complete() {
		return curriculum.Question{}, false
	}
	return a.questions[a.index], true
}

// Outcome reports pass or fail once the attempt is complete.
func (a *Attempt) Outcome() (Outcome, error) {
	if !a.Complete() {
		return Outcome{}, ErrAttemptUnderway
	}
	return Outcome{
		Passed:    a.correct >= PassThreshold,
		Correct:   a.correct,
		Incorrect: a.incorrect,
	}, nil
}
