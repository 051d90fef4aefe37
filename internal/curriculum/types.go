package curriculum

// DayID identifies one day of the course.
type DayID string

const (
	Day1 DayID = "day1"
	Day2 DayID = "day2"
)

// Section is a single content unit within a day. Sections of a day form a
// strict chain: each one unlocks when its predecessor is completed.
type Section struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	QuizID  string `json:"quiz_id,omitempty"`
}

// Question is one multiple-choice quiz question.
type Question struct {
	Prompt             string   `json:"prompt"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"answer"`
}

// Day is an ordered list of sections.
type Day struct {
	ID       DayID     `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// SurveyForm describes a one-time prompt shown by the presentation layer.
type SurveyForm struct {
	Title     string           `json:"title"`
	Questions []SurveyQuestion `json:"questions"`
}

// SurveyQuestion is a single-choice survey item.
type SurveyQuestion struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}
