package engine

import (
	"fmt"
	"time"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/profile"
)

// Rule maps the completion of one section to a one-time prompt. When the
// prompt's survey is already recorded, WhenDone is shown instead (if set).
type Rule struct {
	Day       curriculum.DayID
	SectionID string
	Prompt    PromptKind
	WhenDone  PromptKind
	Delay     time.Duration
}

const (
	// triggerDelay leaves the celebration on screen before a prompt opens.
	triggerDelay = 3 * time.Second

	// day2ApplicationIndex is the position of the section after which the
	// Day 2 application survey is asked.
	day2ApplicationIndex = 6
)

// DefaultRules builds the masterclass trigger table from the content.
// Rules are evaluated in order. The first rule for the section that still
// has something to show wins; a rule whose survey is recorded and has no
// WhenDone yields to the next.
func DefaultRules(content curriculum.ContentProvider) ([]Rule, error) {
	d1, err := content.Day(curriculum.Day1)
	if err != nil {
		return nil, fmt.Errorf("resolve rules: %w", err)
	}
	d2, err := content.Day(curriculum.Day2)
	if err != nil {
		return nil, fmt.Errorf("resolve rules: %w", err)
	}

	var rules []Rule
	if len(d1) > 0 {
		rules = append(rules,
			Rule{Day: curriculum.Day1, SectionID: d1[0].ID, Prompt: PromptOutcomeSurvey, Delay: triggerDelay},
			Rule{Day: curriculum.Day1, SectionID: d1[len(d1)-1].ID, Prompt: PromptDay1Feedback, WhenDone: PromptScoreCard, Delay: triggerDelay},
		)
	}
	if len(d2) > day2ApplicationIndex {
		rules = append(rules, Rule{Day: curriculum.Day2, SectionID: d2[day2ApplicationIndex].ID, Prompt: PromptDay2Application, Delay: triggerDelay})
	}
	if len(d2) > 0 {
		rules = append(rules, Rule{Day: curriculum.Day2, SectionID: d2[len(d2)-1].ID, Prompt: PromptDay2Feedback, WhenDone: PromptScoreCard, Delay: triggerDelay})
	}
	return rules, nil
}

// evaluateRules picks at most one prompt for a newly completed section.
func evaluateRules(rules []Rule, p profile.LearnerProfile, day curriculum.DayID, sectionID string) Prompt {
	for _, r := range rules {
		if r.Day != day || r.SectionID != sectionID {
			continue
		}
		key, recorded := r.Prompt.SurveyKey()
		if !recorded || !p.HasSurvey(key) {
			return Prompt{Kind: r.Prompt, Day: r.Day, Delay: r.Delay}
		}
		if r.WhenDone != "" {
			return Prompt{Kind: r.WhenDone, Day: r.Day, Delay: r.Delay}
		}
	}
	return Prompt{}
}

// followUp returns the prompt chained after a survey is submitted.
func followUp(rules []Rule, kind PromptKind) Prompt {
	for _, r := range rules {
		if r.Prompt == kind && r.WhenDone != "" {
			return Prompt{Kind: r.WhenDone, Day: r.Day}
		}
	}
	return Prompt{}
}
