package curriculum

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
)

// SupportedPackVersion is the content pack format this build understands.
// Packs with a different major version are rejected.
const SupportedPackVersion = "v1.0.0"

//go:embed data/masterclass.json
var defaultPack []byte

// PackError describes why a content pack was rejected.
type PackError struct {
	Reason string
	Err    error
}

func (e *PackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("content pack: %s: %v", e.Reason, e.Err)
	}
	return "content pack: " + e.Reason
}

func (e *PackError) Unwrap() error { return e.Err }

type pack struct {
	Version string                `json:"version"`
	Course  string                `json:"course"`
	Days    []Day                 `json:"days"`
	Quizzes map[string][]Question `json:"quizzes"`
	Surveys map[string]SurveyForm `json:"surveys"`
}

var compiledPackSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	// Round-trip through JSON so the compiler sees plain decoded values.
	raw, err := json.Marshal(packSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal pack schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse pack schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	const url = "schema://masterclass-pack.json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile(url)
})

// LoadPack reads, validates and indexes a JSON content pack.
func LoadPack(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read content pack: %w", err)
	}
	return parsePack(raw)
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return parsePack(defaultPack)
})

// Default returns the embedded two-day masterclass.
func Default() (*Catalog, error) {
	return loadDefault()
}

func parsePack(raw []byte) (*Catalog, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &PackError{Reason: "invalid JSON", Err: err}
	}
	sch, err := compiledPackSchema()
	if err != nil {
		return nil, fmt.Errorf("compile pack schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, &PackError{Reason: "schema validation failed", Err: err}
	}

	var p pack
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &PackError{Reason: "decode", Err: err}
	}

	if !semver.IsValid(p.Version) {
		return nil, &PackError{Reason: fmt.Sprintf("invalid version %q", p.Version)}
	}
	if semver.Major(p.Version) != semver.Major(SupportedPackVersion) {
		return nil, &PackError{Reason: fmt.Sprintf("version %s is not compatible with %s", p.Version, SupportedPackVersion)}
	}

	c := &Catalog{
		version: p.Version,
		course:  p.Course,
		days:    p.Days,
		byDay:   make(map[DayID]int, len(p.Days)),
		quizFor: make(map[string]string),
		quizzes: p.Quizzes,
		surveys: p.Surveys,
	}
	if c.quizzes == nil {
		c.quizzes = map[string][]Question{}
	}
	if c.surveys == nil {
		c.surveys = map[string]SurveyForm{}
	}

	for i, d := range p.Days {
		if _, dup := c.byDay[d.ID]; dup {
			return nil, &PackError{Reason: fmt.Sprintf("duplicate day %q", d.ID)}
		}
		c.byDay[d.ID] = i
		for _, s := range d.Sections {
			if _, dup := c.quizFor[s.ID]; dup {
				return nil, &PackError{Reason: fmt.Sprintf("duplicate section %q", s.ID)}
			}
			quizID := s.QuizID
			if quizID == "" {
				quizID = s.ID
			}
			c.quizFor[s.ID] = quizID
		}
	}

	for id, qs := range p.Quizzes {
		for i, q := range qs {
			if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
				return nil, &PackError{Reason: fmt.Sprintf("quiz %q question %d: answer %d out of range", id, i, q.CorrectOptionIndex)}
			}
		}
	}

	return c, nil
}
