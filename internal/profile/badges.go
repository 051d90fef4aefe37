package profile

// Badge is an achievement shown on the dashboard.
type Badge struct {
	Name        string
	Description string
	Earned      bool
}

const (
	fastLearnerSections = 5
	promptMasterPoints  = 50
)

// Badges evaluates the achievement list against a course of total sections.
func (p LearnerProfile) Badges(total int) []Badge {
	return []Badge{
		{Name: "LMS Pioneer", Description: "Joined the masterclass", Earned: true},
		{Name: "Fast Learner", Description: "Completed 5 sections", Earned: len(p.CompletedSections) >= fastLearnerSections},
		{Name: "Prompt Master", Description: "Scored 50 points", Earned: p.Stats.TotalPoints >= promptMasterPoints},
		{Name: "GenAI Wizard", Description: "Completed the whole course", Earned: total > 0 && p.ProgressPercent(total) == 100},
	}
}
