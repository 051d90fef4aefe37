// Package engine owns a learner's progression through the masterclass: it
// loads the profile, gates sections and days, runs quiz sessions, commits
// completions and decides which one-time prompt follows each completion.
//
// The in-memory profile is the source of truth for gating within a session.
// Writes to the ProfileStore are asynchronous and best-effort: a failed
// write is logged and never retried or rolled back.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/gating"
	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/quiz"
	"github.com/iamsmart/masterclass/internal/store"
)

var (
	ErrNotFound              = profile.ErrNotFound
	ErrNotStarted            = errors.New("engine not started")
	ErrDayLocked             = errors.New("day is locked")
	ErrSectionLocked         = errors.New("section is locked")
	ErrAlreadyComplete       = errors.New("section already completed")
	ErrUnknownSurvey         = errors.New("unknown survey")
	ErrCertificateLocked     = errors.New("certificate requires every day to be complete")
	ErrFinalFeedbackRequired = errors.New("final feedback must be submitted before the certificate")
)

// ProfileStore persists learner profiles. Load returns ErrNotFound for an
// unknown learner.
type ProfileStore interface {
	Load(ctx context.Context, userID string) (profile.LearnerProfile, error)
	Save(ctx context.Context, userID string, p profile.LearnerProfile) error
}

// Journal records progress events for auditing. It is satisfied by
// store.EventRepo.
type Journal interface {
	AppendProgressEvent(ctx context.Context, data store.ProgressEventData) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for non-fatal warnings.
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithJournal records progress transitions to j.
func WithJournal(j Journal) Option { return func(e *Engine) { e.journal = j } }

// WithRules replaces the default trigger table.
func WithRules(rules []Rule) Option { return func(e *Engine) { e.rules = rules } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithShuffler sets the option shuffler used for every quiz attempt.
func WithShuffler(s quiz.Shuffler) Option { return func(e *Engine) { e.shuffler = s } }

// WithCourse sets the course name printed on certificates.
func WithCourse(name string) Option { return func(e *Engine) { e.course = name } }

// Engine drives one learner's progression.
type Engine struct {
	content  curriculum.ContentProvider
	quizzes  curriculum.QuizBank
	store    ProfileStore
	bus      PresentationBus
	journal  Journal
	logger   *log.Logger
	rules    []Rule
	now      func() time.Time
	shuffler quiz.Shuffler
	course   string

	mu      sync.Mutex
	userID  string
	started bool
	profile profile.LearnerProfile
	version uint64
	cert    certificateFlow

	// Saves run in the background; persistMu orders them so an older
	// snapshot never overwrites a newer one.
	saves     sync.WaitGroup
	persistMu sync.Mutex
	persisted uint64
}

// New creates an engine. Rules default to DefaultRules(content).
func New(content curriculum.ContentProvider, quizzes curriculum.QuizBank, ps ProfileStore, bus PresentationBus, opts ...Option) (*Engine, error) {
	e := &Engine{
		content: content,
		quizzes: quizzes,
		store:   ps,
		bus:     bus,
		logger:  log.New(os.Stderr, "", log.LstdFlags),
		now:     time.Now,
		course:  "GenAI Masterclass",
	}
	if c, ok := content.(interface{ Course() string }); ok && c.Course() != "" {
		e.course = c.Course()
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bus == nil {
		e.bus = nopBus{}
	}
	if e.rules == nil {
		rules, err := DefaultRules(content)
		if err != nil {
			return nil, err
		}
		e.rules = rules
	}
	return e, nil
}

// Start loads the learner's profile. An unknown learner starts from the
// default profile, which is not written until the first change.
func (e *Engine) Start(ctx context.Context, userID string) error {
	p, err := e.store.Load(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		p = profile.Default(userID, e.now())
	case err != nil:
		return fmt.Errorf("load profile: %w", err)
	default:
		p = p.Normalize()
		p.UserID = userID
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.userID = userID
	e.profile = p
	e.started = true
	e.cert = certificateFlow{}
	return nil
}

// UserID returns the learner the engine was started for.
func (e *Engine) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// Profile returns a copy of the in-memory profile.
func (e *Engine) Profile() profile.LearnerProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.Clone()
}

// Days returns the course days in order.
func (e *Engine) Days() []curriculum.DayID { return e.content.Days() }

// Sections returns the ordered sections of a day.
func (e *Engine) Sections(day curriculum.DayID) ([]curriculum.Section, error) {
	return e.content.Day(day)
}

// TotalSections counts the sections across every day.
func (e *Engine) TotalSections() int {
	n := 0
	for _, d := range e.content.Days() {
		s, err := e.content.Day(d)
		if err != nil {
			continue
		}
		n += len(s)
	}
	return n
}

// IsLocked reports whether the section at index of day is locked.
func (e *Engine) IsLocked(day curriculum.DayID, index int) (bool, error) {
	sections, err := e.content.Day(day)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return gating.IsLocked(sections, index, e.profile.CompletedSet()), nil
}

// DayComplete reports whether every section of day is completed.
func (e *Engine) DayComplete(day curriculum.DayID) (bool, error) {
	sections, err := e.content.Day(day)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return gating.DayComplete(sections, e.profile.CompletedSet()), nil
}

// SectionState is a section with its gating status for display.
type SectionState struct {
	curriculum.Section
	Index     int
	Locked    bool
	Completed bool
}

// Entry is the result of entering a day.
type Entry struct {
	Day      curriculum.DayID
	Sections []SectionState
	// Prompt is shown on entry when a pre-day questionnaire is pending.
	Prompt Prompt
}

// EnterDay applies the coarse day gate and returns the day's sections.
func (e *Engine) EnterDay(day curriculum.DayID) (Entry, error) {
	sections, err := e.content.Day(day)
	if err != nil {
		return Entry{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return Entry{}, ErrNotStarted
	}
	completed := e.profile.CompletedSet()
	ok, err := gating.CanEnterDay(e.content, day, completed)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrDayLocked, day)
	}

	entry := Entry{Day: day, Sections: make([]SectionState, len(sections))}
	for i, s := range sections {
		entry.Sections[i] = SectionState{
			Section:   s,
			Index:     i,
			Locked:    gating.IsLocked(sections, i, completed),
			Completed: completed[s.ID],
		}
	}

	switch {
	case day == curriculum.Day1 && !e.profile.Onboarded():
		entry.Prompt = Prompt{Kind: PromptOnboarding, Day: day}
	case day == curriculum.Day2 && !e.profile.HasSurvey(profile.OrgFitSurvey):
		entry.Prompt = Prompt{Kind: PromptOrgFitSurvey, Day: day}
	}
	return entry, nil
}

// ScoreCard summarizes progress for the score card modal.
type ScoreCard struct {
	Stats           profile.Stats
	Completed       int
	Total           int
	ProgressPercent int
	DaysComplete    map[curriculum.DayID]bool
}

// ScoreCard returns the learner's running totals.
func (e *Engine) ScoreCard() ScoreCard {
	total := e.TotalSections()
	e.mu.Lock()
	defer e.mu.Unlock()
	completed := e.profile.CompletedSet()
	sc := ScoreCard{
		Stats:           e.profile.Stats,
		Completed:       len(e.profile.CompletedSections),
		Total:           total,
		ProgressPercent: e.profile.ProgressPercent(total),
		DaysComplete:    map[curriculum.DayID]bool{},
	}
	for _, d := range e.content.Days() {
		if s, err := e.content.Day(d); err == nil {
			sc.DaysComplete[d] = gating.DayComplete(s, completed)
		}
	}
	return sc
}

// Flush waits for in-flight background writes.
func (e *Engine) Flush() {
	e.saves.Wait()
}

// replaceLocked swaps in next and schedules a save. Callers hold e.mu.
func (e *Engine) replaceLocked(next profile.LearnerProfile) {
	e.profile = next
	e.version++
	e.persist(e.userID, next.Clone(), e.version)
}

func (e *Engine) persist(userID string, snap profile.LearnerProfile, version uint64) {
	e.saves.Add(1)
	go func() {
		defer e.saves.Done()
		e.persistMu.Lock()
		defer e.persistMu.Unlock()
		if version <= e.persisted {
			return
		}
		if err := e.store.Save(context.Background(), userID, snap); err != nil {
			e.logger.Printf("warning: failed to save profile for %s: %v", userID, err)
			return
		}
		e.persisted = version
	}()
}

// record journals a progress event in the background.
func (e *Engine) record(data store.ProgressEventData) {
	if e.journal == nil {
		return
	}
	e.saves.Add(1)
	go func() {
		defer e.saves.Done()
		if err := e.journal.AppendProgressEvent(context.Background(), data); err != nil {
			e.logger.Printf("warning: failed to journal %s event: %v", data.Kind, err)
		}
	}()
}

func (e *Engine) emit(events []Event) {
	for _, ev := range events {
		e.bus.Emit(ev)
	}
}
