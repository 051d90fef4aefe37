// Package gating decides which sections and days a learner may open.
package gating

import (
	"fmt"

	"github.com/iamsmart/masterclass/internal/curriculum"
)

// IsLocked reports whether the section at index is locked: it is locked when
// its predecessor in the same day is not completed. The first section of a
// day is never locked by this rule.
func IsLocked(sections []curriculum.Section, index int, completed map[string]bool) bool {
	if index <= 0 || index >= len(sections) {
		return false
	}
	return !completed[sections[index-1].ID]
}

// DayComplete reports whether every section of the day is completed. A day
// with no sections is not complete.
func DayComplete(sections []curriculum.Section, completed map[string]bool) bool {
	if len(sections) == 0 {
		return false
	}
	for _, s := range sections {
		if !completed[s.ID] {
			return false
		}
	}
	return true
}

// CanEnterDay reports whether day is open: the first day always is, later
// days require every earlier day to be complete.
func CanEnterDay(content curriculum.ContentProvider, day curriculum.DayID, completed map[string]bool) (bool, error) {
	for _, d := range content.Days() {
		if d == day {
			return true, nil
		}
		sections, err := content.Day(d)
		if err != nil {
			return false, err
		}
		if !DayComplete(sections, completed) {
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: %q", curriculum.ErrUnknownDay, day)
}

// NextOpen returns the first section that is unlocked and not completed.
func NextOpen(sections []curriculum.Section, completed map[string]bool) (int, bool) {
	for i, s := range sections {
		if completed[s.ID] {
			continue
		}
		if IsLocked(sections, i, completed) {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
