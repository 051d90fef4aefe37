package curriculum

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownDay is returned when a day is not part of the course.
var ErrUnknownDay = errors.New("unknown day")

// ErrUnknownSection is returned when a section ID is not found in a day.
var ErrUnknownSection = errors.New("unknown section")

// ContentProvider supplies the ordered sections of each day.
type ContentProvider interface {
	// Days returns the day IDs in course order.
	Days() []DayID

	// Day returns the ordered sections of a day.
	Day(id DayID) ([]Section, error)
}

// QuizBank supplies the questions gating a section. An empty slice means the
// section has no quiz.
type QuizBank interface {
	Questions(sectionID string) []Question
}

// Catalog is an immutable, validated content pack. It implements both
// ContentProvider and QuizBank.
type Catalog struct {
	version string
	course  string
	days    []Day
	byDay   map[DayID]int
	quizFor map[string]string // section ID -> quiz ID
	quizzes map[string][]Question
	surveys map[string]SurveyForm
}

var (
	_ ContentProvider = (*Catalog)(nil)
	_ QuizBank        = (*Catalog)(nil)
)

// Version returns the pack's semantic version.
func (c *Catalog) Version() string { return c.version }

// Course returns the course title printed on certificates.
func (c *Catalog) Course() string { return c.course }

func (c *Catalog) Days() []DayID {
	ids := make([]DayID, len(c.days))
	for i, d := range c.days {
		ids[i] = d.ID
	}
	return ids
}

func (c *Catalog) Day(id DayID) ([]Section, error) {
	i, ok := c.byDay[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDay, id)
	}
	out := make([]Section, len(c.days[i].Sections))
	copy(out, c.days[i].Sections)
	return out, nil
}

// DayTitle returns the display title of a day, or the ID when unknown.
func (c *Catalog) DayTitle(id DayID) string {
	if i, ok := c.byDay[id]; ok && c.days[i].Title != "" {
		return c.days[i].Title
	}
	return string(id)
}

// Section looks up a section and its position within a day.
func (c *Catalog) Section(day DayID, sectionID string) (Section, int, error) {
	sections, err := c.Day(day)
	if err != nil {
		return Section{}, 0, err
	}
	for i, s := range sections {
		if s.ID == sectionID {
			return s, i, nil
		}
	}
	return Section{}, 0, fmt.Errorf("%w: %q in %s", ErrUnknownSection, sectionID, day)
}

func (c *Catalog) Questions(sectionID string) []Question {
	qs := c.quizzes[c.quizFor[sectionID]]
	out := make([]Question, len(qs))
	for i, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

// Survey returns the form for a one-time prompt key.
func (c *Catalog) Survey(key string) (SurveyForm, bool) {
	f, ok := c.surveys[key]
	return f, ok
}

// SurveyKeys returns the keys of every survey form, sorted.
func (c *Catalog) SurveyKeys() []string {
	keys := make([]string, 0, len(c.surveys))
	for k := range c.surveys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TotalSections counts sections across all days.
func (c *Catalog) TotalSections() int {
	n := 0
	for _, d := range c.days {
		n += len(d.Sections)
	}
	return n
}
