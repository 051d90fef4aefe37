package curriculum

import "fmt"

// Warning is a non-fatal content problem found by Lint.
type Warning struct {
	Day       DayID
	SectionID string
	Message   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s/%s: %s", w.Day, w.SectionID, w.Message)
}

// Lint reports sections whose quiz can never be passed with the given pass
// threshold, and sections without a quiz, which complete on view.
func (c *Catalog) Lint(passThreshold int) []Warning {
	var out []Warning
	for _, d := range c.days {
		for _, s := range d.Sections {
			n := len(c.quizzes[c.quizFor[s.ID]])
			switch {
			case n == 0:
				out = append(out, Warning{Day: d.ID, SectionID: s.ID, Message: "no quiz; section completes on view"})
			case n < passThreshold:
				out = append(out, Warning{
					Day:       d.ID,
					SectionID: s.ID,
					Message:   fmt.Sprintf("quiz has %d questions but %d correct answers are needed to pass", n, passThreshold),
				})
			}
		}
	}
	return out
}
