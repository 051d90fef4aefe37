// Package profile defines the learner profile document and its
// copy-on-write updates.
package profile

import (
	"errors"
	"maps"
	"slices"
	"time"
)

// ErrNotFound is returned by profile stores for an unknown learner.
var ErrNotFound = errors.New("profile not found")

// SurveyKey names a one-time prompt recorded in the profile.
type SurveyKey string

const (
	OutcomeSurvey     SurveyKey = "outcome_survey"
	Day1Feedback      SurveyKey = "day1_feedback"
	OrgFitSurvey      SurveyKey = "org_fit_survey"
	Day2Application   SurveyKey = "day2_application"
	Day2Feedback      SurveyKey = "day2_feedback"
	CertificateIssued SurveyKey = "certificate_issued"
)

// SurveyResponse records a completed survey.
type SurveyResponse struct {
	Completed   bool              `json:"completed"`
	CompletedAt time.Time         `json:"completed_at"`
	Answers     map[string]string `json:"answers,omitempty"`
}

// Stats are the running quiz totals. TotalPoints may go negative.
type Stats struct {
	TotalPoints    int `json:"total_points"`
	TotalCorrect   int `json:"total_correct"`
	TotalIncorrect int `json:"total_incorrect"`
}

// LearnerProfile is the persistent per-user progress document.
type LearnerProfile struct {
	UserID            string                       `json:"user_id"`
	CompletedSections []string                     `json:"completed_sections"`
	Stats             Stats                        `json:"stats"`
	Surveys           map[SurveyKey]SurveyResponse `json:"surveys"`
	Onboarding        *Onboarding                  `json:"onboarding,omitempty"`
	CreatedAt         time.Time                    `json:"created_at"`
	UpdatedAt         time.Time                    `json:"updated_at"`
}

// Default returns the profile of a learner with no recorded progress.
func Default(userID string, now time.Time) LearnerProfile {
	return LearnerProfile{
		UserID:            userID,
		CompletedSections: []string{},
		Surveys:           map[SurveyKey]SurveyResponse{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Normalize fills nil collections, e.g. after decoding a partial document.
func (p LearnerProfile) Normalize() LearnerProfile {
	if p.CompletedSections == nil {
		p.CompletedSections = []string{}
	}
	if p.Surveys == nil {
		p.Surveys = map[SurveyKey]SurveyResponse{}
	}
	return p
}

// Clone returns a deep copy.
func (p LearnerProfile) Clone() LearnerProfile {
	c := p
	c.CompletedSections = slices.Clone(p.CompletedSections)
	if c.CompletedSections == nil {
		c.CompletedSections = []string{}
	}
	c.Surveys = make(map[SurveyKey]SurveyResponse, len(p.Surveys))
	for k, v := range p.Surveys {
		v.Answers = maps.Clone(v.Answers)
		c.Surveys[k] = v
	}
	if p.Onboarding != nil {
		o := *p.Onboarding
		c.Onboarding = &o
	}
	return c
}

// IsCompleted reports whether sectionID has been completed.
func (p LearnerProfile) IsCompleted(sectionID string) bool {
	return slices.Contains(p.CompletedSections, sectionID)
}

// CompletedSet returns the completed section IDs as a set.
func (p LearnerProfile) CompletedSet() map[string]bool {
	set := make(map[string]bool, len(p.CompletedSections))
	for _, id := range p.CompletedSections {
		set[id] = true
	}
	return set
}

// HasSurvey reports whether the survey under key has been completed.
func (p LearnerProfile) HasSurvey(key SurveyKey) bool {
	return p.Surveys[key].Completed
}

// WithCompleted returns a copy with sectionID appended. Completion is
// append-only: an already completed section leaves the profile unchanged.
func (p LearnerProfile) WithCompleted(sectionID string, now time.Time) LearnerProfile {
	c := p.Clone()
	if c.IsCompleted(sectionID) {
		return c
	}
	c.CompletedSections = append(c.CompletedSections, sectionID)
	c.UpdatedAt = now
	return c
}

// WithStatsDelta returns a copy with the attempt counts added to the stats.
func (p LearnerProfile) WithStatsDelta(correct, incorrect int, now time.Time) LearnerProfile {
	c := p.Clone()
	c.Stats.TotalCorrect += correct
	c.Stats.TotalIncorrect += incorrect
	c.Stats.TotalPoints += correct - incorrect
	c.UpdatedAt = now
	return c
}

// WithSurvey returns a copy with the survey recorded. A survey that is
// already completed is never overwritten.
func (p LearnerProfile) WithSurvey(key SurveyKey, answers map[string]string, now time.Time) LearnerProfile {
	c := p.Clone()
	if c.HasSurvey(key) {
		return c
	}
	c.Surveys[key] = SurveyResponse{
		Completed:   true,
		CompletedAt: now,
		Answers:     maps.Clone(answers),
	}
	c.UpdatedAt = now
	return c
}

// WithOnboarding returns a copy with the onboarding answers set.
func (p LearnerProfile) WithOnboarding(o Onboarding, now time.Time) LearnerProfile {
	c := p.Clone()
	c.Onboarding = &o
	c.UpdatedAt = now
	return c
}

// Onboarded reports whether the onboarding questionnaire has been answered.
func (p LearnerProfile) Onboarded() bool {
	return p.Onboarding != nil && p.Onboarding.Profession != ""
}

// ProgressPercent is the rounded share of total sections completed.
func (p LearnerProfile) ProgressPercent(total int) int {
	if total <= 0 {
		return 0
	}
	done := min(len(p.CompletedSections), total)
	return (done*100 + total/2) / total
}
